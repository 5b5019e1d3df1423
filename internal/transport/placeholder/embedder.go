// Package placeholder provides a deterministic, non-semantic embedding
// provider for local runs and tests. Its vectors carry no meaning and must
// never share an index with a real model's vectors.
package placeholder

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	"github.com/kailas-cloud/pdfsearch/internal/metrics"
)

// ProviderName labels metrics and the index model tag.
const ProviderName = "placeholder"

// pcg stream selector; any fixed odd constant works.
const stream = 0x9e3779b97f4a7c15

// Embedder maps input bytes to a seeded gaussian unit vector of fixed dimension.
type Embedder struct {
	dim int
}

// New creates a placeholder provider.
func New(dim int) (*Embedder, error) {
	if dim <= 0 {
		return nil, errors.New("placeholder embedder: dimension must be positive")
	}
	return &Embedder{dim: dim}, nil
}

// Embed implements domain.Embedder. The same text always yields the same vector.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return e.vector(ctx, xxhash.Sum64String(text))
}

// EmbedImage implements domain.ImageEmbedder over the raw image bytes.
func (e *Embedder) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	return e.vector(ctx, xxhash.Sum64(image))
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) vector(ctx context.Context, seed uint64) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err //nolint:wrapcheck // context errors are passed through
	}
	rng := rand.New(rand.NewPCG(seed, stream)) //nolint:gosec // not used for security
	v := make([]float32, e.dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	metrics.EmbeddingCall{Provider: ProviderName, Model: ProviderName}.Record()
	return domain.EmbeddingResult{Embedding: domain.NormalizeL2(v)}, nil
}
