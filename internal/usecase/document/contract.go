package document

import (
	"context"

	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
)

// Repository defines the storage contract for stored documents.
type Repository interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
}
