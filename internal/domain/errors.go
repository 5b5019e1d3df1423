package domain

import "errors"

var (
	// ErrUnauthorized signals a missing or unrecognized credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited signals an exhausted admission budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstreamUnavailable signals that the search engine, counter store or
	// embedding provider could not be reached in time. Retryable.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrImageEmbeddingUnsupported signals an image-only record with a text-only provider.
	ErrImageEmbeddingUnsupported = errors.New("image embedding not supported by provider")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidRecord signals an ingestion record missing identity fields.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrInvalidRequest signals a malformed search or index request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrIndexExists signals that the search index is already created.
	ErrIndexExists = errors.New("index already exists")
	// ErrIndexNotFound signals that the search index does not exist.
	ErrIndexNotFound = errors.New("index not found")
)
