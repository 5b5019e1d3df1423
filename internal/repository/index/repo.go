package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pdfsearch/internal/db"
	"github.com/kailas-cloud/pdfsearch/internal/domain"
)

// store is the consumer interface for index management (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo manages the lifecycle of the document search index.
type Repo struct {
	store     store
	name      string
	docPrefix string
	vectorDim int
	algo      db.VectorAlgorithm
	hnsw      HNSWConfig
}

// New creates an index repository.
func New(s store, name, docPrefix string, vectorDim int) *Repo {
	return &Repo{
		store:     s,
		name:      name,
		docPrefix: docPrefix,
		vectorDim: vectorDim,
		algo:      db.VectorHNSW,
		hnsw:      HNSWConfig{M: 16, EFConstruct: 200},
	}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// ParseAlgorithm maps a config value ("hnsw" or "flat") to a vector algorithm.
func ParseAlgorithm(s string) (db.VectorAlgorithm, error) {
	switch strings.ToLower(s) {
	case "", "hnsw":
		return db.VectorHNSW, nil
	case "flat":
		return db.VectorFlat, nil
	default:
		return "", fmt.Errorf("unknown vector algorithm %q", s)
	}
}

// WithAlgorithm selects how the vector field is indexed. FLAT ignores the
// HNSW parameters.
func (r *Repo) WithAlgorithm(algo db.VectorAlgorithm) *Repo {
	r.algo = algo
	return r
}

// Name returns the managed index name.
func (r *Repo) Name() string { return r.name }

// Create builds the index. Returns domain.ErrIndexExists if it is already there.
func (r *Repo) Create(ctx context.Context) error {
	def, err := buildSchema(r.name, r.docPrefix, r.vectorDim, r.algo, r.hnsw)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return domain.ErrIndexExists
		}
		return fmt.Errorf("create index %s: %w", r.name, err)
	}
	return nil
}

// Drop removes the index, keeping stored documents.
// Returns domain.ErrIndexNotFound if it does not exist.
func (r *Repo) Drop(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.name); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domain.ErrIndexNotFound
		}
		return fmt.Errorf("drop index %s: %w", r.name, err)
	}
	return nil
}

// Exists reports whether the index is present.
func (r *Repo) Exists(ctx context.Context) (bool, error) {
	ok, err := r.store.IndexExists(ctx, r.name)
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", r.name, err)
	}
	return ok, nil
}
