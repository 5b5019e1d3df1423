package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pdfsearch"

// Embedding provider metrics. Calls are recorded through EmbeddingCall so
// every provider reports the same label set.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "requests_total",
		Help:      "Embedding provider calls by outcome",
	}, []string{"provider", "model", "status"})

	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "request_duration_seconds",
		Help:      "Latency of successful embedding provider calls",
		Buckets:   []float64{0.005, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"provider", "model"})

	EmbeddingTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "tokens_total",
		Help:      "Tokens billed by the embedding provider",
	}, []string{"provider", "model", "type"})

	EmbeddingErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "errors_total",
		Help:      "Failed embedding provider calls by cause",
	}, []string{"provider", "model", "error_type"})

	// EmbeddingInputsTotal counts dispatches by record kind: text, image or empty.
	EmbeddingInputsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "inputs_total",
		Help:      "Records dispatched for embedding by input kind",
	}, []string{"kind"})

	// EmbeddingCacheTotal counts cache lookups: hit or miss.
	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "cache_total",
		Help:      "Embedding cache lookups by result",
	}, []string{"result"})
)

// EmbeddingCall is one round trip to an embedding provider.
type EmbeddingCall struct {
	Provider     string
	Model        string
	Took         time.Duration
	PromptTokens int
	TotalTokens  int
	// ErrorType is empty for a successful call.
	ErrorType string
}

// Record updates the embedding counters for the call.
func (c EmbeddingCall) Record() {
	if c.ErrorType != "" {
		EmbeddingRequestsTotal.WithLabelValues(c.Provider, c.Model, "error").Inc()
		EmbeddingErrorsTotal.WithLabelValues(c.Provider, c.Model, c.ErrorType).Inc()
		return
	}

	EmbeddingRequestsTotal.WithLabelValues(c.Provider, c.Model, "success").Inc()
	EmbeddingRequestDuration.WithLabelValues(c.Provider, c.Model).Observe(c.Took.Seconds())
	if c.TotalTokens > 0 {
		EmbeddingTokensTotal.WithLabelValues(c.Provider, c.Model, "prompt").Add(float64(c.PromptTokens))
		EmbeddingTokensTotal.WithLabelValues(c.Provider, c.Model, "total").Add(float64(c.TotalTokens))
	}
}
