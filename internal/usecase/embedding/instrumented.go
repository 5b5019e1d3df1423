package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
)

// InstrumentedEmbedder wraps a provider with timeouts, dimension checks and logging.
// Transport metrics (requests, duration, tokens) are recorded by the provider itself.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	dim      int
	timeout  time.Duration
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. dim <= 0 disables the dimension check,
// timeout <= 0 disables the per-call deadline.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	dim int, timeout time.Duration, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		dim:      dim,
		timeout:  timeout,
		logger:   logger,
	}
}

// Embed delegates text to the provider.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return p.call(ctx, "text", func(ctx context.Context) (domain.EmbeddingResult, error) {
		return p.inner.Embed(ctx, text)
	})
}

// EmbedImage delegates image bytes when the provider supports them.
func (p *InstrumentedEmbedder) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	ie, ok := p.inner.(domain.ImageEmbedder)
	if !ok {
		return domain.EmbeddingResult{}, domain.ErrImageEmbeddingUnsupported
	}
	return p.call(ctx, "image", func(ctx context.Context) (domain.EmbeddingResult, error) {
		return ie.EmbedImage(ctx, image)
	})
}

// HealthCheck delegates to the provider when it supports checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // health errors are reported verbatim
	}
	return nil
}

func (p *InstrumentedEmbedder) call(
	ctx context.Context, kind string,
	fn func(ctx context.Context) (domain.EmbeddingResult, error),
) (domain.EmbeddingResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := fn(ctx)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.String("kind", kind),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.EmbeddingResult{}, fmt.Errorf("embed %s: %w: %w", kind, domain.ErrUpstreamUnavailable, err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed %s: %w", kind, err)
	}

	if p.dim > 0 && len(result.Embedding) != p.dim {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: got %d, want %d",
			domain.ErrVectorDimMismatch, len(result.Embedding), p.dim)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.String("kind", kind),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
