package health

import "context"

// StorePinger checks store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether the search index exists.
type IndexChecker interface {
	Exists(ctx context.Context) (bool, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
