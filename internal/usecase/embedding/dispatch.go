package embedding

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	"github.com/kailas-cloud/pdfsearch/internal/domain/document"
	"github.com/kailas-cloud/pdfsearch/internal/metrics"
)

// Provider embeds both text and images into one vector space.
type Provider interface {
	domain.Embedder
	domain.ImageEmbedder
}

// Dispatcher picks what to embed for a normalized document: its text when
// non-empty, else its image payload, else the empty string.
type Dispatcher struct {
	provider Provider
}

// NewDispatcher creates a dispatcher over provider.
func NewDispatcher(provider Provider) *Dispatcher {
	return &Dispatcher{provider: provider}
}

// EmbedDocument returns the vector for doc. image is the transient payload
// carried alongside the record and is never stored.
func (d *Dispatcher) EmbedDocument(ctx context.Context, doc *document.Document, image []byte) ([]float32, error) {
	var (
		res  domain.EmbeddingResult
		err  error
		kind string
	)

	switch {
	case doc.Text != "":
		kind = "text"
		res, err = d.provider.Embed(ctx, doc.Text)
	case len(image) > 0:
		kind = "image"
		res, err = d.provider.EmbedImage(ctx, image)
	default:
		kind = "empty"
		res, err = d.provider.Embed(ctx, "")
	}
	metrics.EmbeddingInputsTotal.WithLabelValues(kind).Inc()

	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", kind, err)
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	return res.Embedding, nil
}
