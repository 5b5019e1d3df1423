// Package embcache caches text embeddings in the key-value store.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/pdfsearch/internal/db"
	"github.com/kailas-cloud/pdfsearch/internal/domain"
)

const keyNamespace = "emb_cache:"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures key layout and expiry.
type Options struct {
	KeyPrefix string
	// Model namespaces the keys; a model switch never serves old vectors.
	Model string
	TTL   time.Duration
}

// CachedEmbedder decorates an embedder with a store-backed cache.
// Concurrent misses for the same text share one provider call, which matters
// during ingest where page headers and footers repeat across records.
type CachedEmbedder struct {
	inner  domain.Embedder
	store  store
	opts   Options
	flight singleflight.Group
	lookup *prometheus.CounterVec
	logger *zap.Logger
}

// New creates a caching decorator. lookups takes the "result" label (hit or
// miss) and may be nil.
func New(
	inner domain.Embedder,
	s store,
	opts Options,
	lookups *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	opts.KeyPrefix += keyNamespace
	return &CachedEmbedder{
		inner:  inner,
		store:  s,
		opts:   opts,
		lookup: lookups,
		logger: logger,
	}
}

// Embed serves text from the cache or the inner embedder. A hit reports zero
// tokens since nothing was billed.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.load(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	v, err, _ := c.flight.Do(key, func() (any, error) {
		res, err := c.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		c.save(ctx, key, res.Embedding)
		return res, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	res, _ := v.(domain.EmbeddingResult)
	return res, nil
}

// EmbedImage bypasses the cache.
func (c *CachedEmbedder) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	if ie, ok := c.inner.(domain.ImageEmbedder); ok {
		return ie.EmbedImage(ctx, image)
	}
	return domain.EmbeddingResult{}, domain.ErrImageEmbeddingUnsupported
}

// HealthCheck delegates to the inner embedder when it supports checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedEmbedder) count(result string) {
	if c.lookup != nil {
		c.lookup.WithLabelValues(result).Inc()
	}
}

// cacheKey is prefix + hex(sha256(model 0x00 text)).
func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(c.opts.Model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return c.opts.KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// load treats every store or decode failure as a miss.
func (c *CachedEmbedder) load(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decodeVector(data)
	if err != nil {
		c.logger.Warn("Embedding cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, encodeVector(vec), c.opts.TTL); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}
