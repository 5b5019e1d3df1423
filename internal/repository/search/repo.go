package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pdfsearch/internal/db"
	"github.com/kailas-cloud/pdfsearch/internal/domain"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/query"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/result"
	docrepo "github.com/kailas-cloud/pdfsearch/internal/repository/document"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo executes the clauses of a hybrid query plan against one index.
type Repo struct {
	store     store
	indexName string
	docPrefix string
}

// New creates a search repository over indexName whose documents live under docPrefix.
func New(s store, indexName, docPrefix string) *Repo {
	return &Repo{store: s, indexName: indexName, docPrefix: docPrefix}
}

// Lexical runs the keyword clause. Scores are raw engine text scores, best first.
func (r *Repo) Lexical(ctx context.Context, p *query.Plan) ([]result.Result, error) {
	q := &db.TextQuery{
		IndexName:    r.indexName,
		Query:        p.Lexical.Text,
		Fields:       p.Lexical.Fields,
		Filters:      p.Filter,
		Limit:        p.Lexical.Limit,
		ReturnFields: p.Return,
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search text %s: %w", r.indexName, mapErr(err))
	}
	return r.toResults(sr), nil
}

// Vector runs the nearest-neighbor clause. Scores are cosine similarities, nearest first.
func (r *Repo) Vector(ctx context.Context, p *query.Plan) ([]result.Result, error) {
	if p.Vector == nil {
		return nil, nil
	}
	q := &db.KNNQuery{
		IndexName:    r.indexName,
		Field:        p.Vector.Field,
		Filters:      p.Filter,
		Vector:       p.Vector.Embedding,
		K:            p.Vector.K,
		ReturnFields: p.Return,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, mapErr(err))
	}
	return r.toResults(sr), nil
}

func (r *Repo) toResults(sr *db.SearchResult) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	results := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id := strings.TrimPrefix(e.Key, r.docPrefix)
		results = append(results, result.New(id, e.Score, docrepo.ParseFields(e.Fields)))
	}
	return results
}

// mapErr surfaces a missing index as a domain error; other causes pass through.
func mapErr(err error) error {
	if errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrIndexNotFound, err)
	}
	return err
}
