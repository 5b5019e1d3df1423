package search

import (
	"context"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/query"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/result"
)

// Repository executes the clauses of a query plan.
type Repository interface {
	Lexical(ctx context.Context, p *query.Plan) ([]result.Result, error)
	Vector(ctx context.Context, p *query.Plan) ([]result.Result, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
