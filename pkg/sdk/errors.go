package pdfsearch

import "github.com/kailas-cloud/pdfsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrInvalidRecord          = domain.ErrInvalidRecord
	ErrDocumentNotFound       = domain.ErrDocumentNotFound
	ErrIndexNotFound          = domain.ErrIndexNotFound
	ErrUpstreamUnavailable    = domain.ErrUpstreamUnavailable
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
