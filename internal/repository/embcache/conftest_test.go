package embcache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/db"
	"github.com/kailas-cloud/pdfsearch/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.texts = append(m.texts, text)
	return m.result, m.err
}

// blockingEmbedder holds every call until release is closed.
type blockingEmbedder struct {
	release chan struct{}
	result  []float32
	started atomic.Int32
}

func (b *blockingEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	b.started.Add(1)
	<-b.release
	return domain.EmbeddingResult{Embedding: b.result}, nil
}

type mockImageEmbedder struct {
	mockEmbedder
	images int
}

func (m *mockImageEmbedder) EmbedImage(_ context.Context, _ []byte) (domain.EmbeddingResult, error) {
	m.images++
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner domain.Embedder) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	opts := Options{KeyPrefix: "pdfsearch:", Model: "all-MiniLM-L6-v2", TTL: time.Hour}
	ce := New(inner, ms, opts, nil, zap.NewNop())
	return ce, ms
}
