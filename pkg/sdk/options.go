package pdfsearch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	embedder Embedder

	indexName        string
	keyPrefix        string
	vectorDimensions int
	vectorAlgorithm  string
	hnswM            int
	hnswEFConstruct  int
	fusion           string
	vectorWeight     float64
	batchSize        int
	workers          int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		indexName:        "pdf_search",
		keyPrefix:        "pdfsearch:",
		vectorDimensions: 384,
		fusion:           "weighted",
		vectorWeight:     0.5,
	}
}

// WithRedis configures the client to connect to Redis. Several addresses
// enable cluster topology discovery.
func WithRedis(addr, password string, more ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = append([]string{addr}, more...)
		c.password = password
	})
}

// WithEmbedder sets the embedding provider. Vectors are L2-normalized
// before they are stored or searched.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithIndex sets the search index name and the key prefix of stored documents.
// Defaults match the server: "pdf_search", "pdfsearch:".
func WithIndex(name, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexName = name
		c.keyPrefix = keyPrefix
	})
}

// WithVectorDimensions sets the vector dimension. Defaults to 384.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithFlatIndex indexes vectors with exact brute-force search instead of HNSW.
// Suits small corpora where recall matters more than query latency.
func WithFlatIndex() Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorAlgorithm = "flat"
	})
}

// WithFusion picks how keyword and vector scores blend: "weighted" (default)
// with vectorWeight in [0,1], or "rrf" where vectorWeight is ignored.
func WithFusion(fusion string, vectorWeight float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.fusion = fusion
		c.vectorWeight = vectorWeight
	})
}

// WithIngest sets the bulk write size and the embedding worker count.
func WithIngest(batchSize, workers int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = batchSize
		c.workers = workers
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
