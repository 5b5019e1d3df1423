package ingest

import (
	"context"

	"github.com/kailas-cloud/pdfsearch/internal/domain/document"
)

// DocumentWriter upserts documents under their identity. The returned slice
// is aligned with docs; a nil entry means the document was written.
type DocumentWriter interface {
	UpsertBatch(ctx context.Context, docs []document.Document) []error
}

// DocumentEmbedder picks and embeds the content of a normalized document.
type DocumentEmbedder interface {
	EmbedDocument(ctx context.Context, doc *document.Document, image []byte) ([]float32, error)
}

// Source streams raw records. Next returns io.EOF when exhausted. An error
// wrapping domain.ErrInvalidRecord fails that record only; any other error
// aborts the run.
type Source interface {
	Next(ctx context.Context) (map[string]any, error)
}
