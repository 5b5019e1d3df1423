package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pdfsearch/internal/db"
	"github.com/kailas-cloud/pdfsearch/internal/domain"
	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	ReplaceHashes(ctx context.Context, items []db.HashSetItem) []error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo implements document persistence as one hash per identity.
type Repo struct {
	store  store
	prefix string
}

// KeyPrefix returns the namespace documents live in under base. Other hashes
// kept under base, such as rate limit buckets, stay outside the search index.
func KeyPrefix(base string) string {
	return base + "doc:"
}

// New creates a document repository. prefix is the key prefix the search
// index is declared over, e.g. "pdfsearch:doc:".
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// UpsertBatch writes every document under its identity, replacing any
// previous version. The result has one entry per document; nil means stored.
func (r *Repo) UpsertBatch(ctx context.Context, docs []domdoc.Document) []error {
	errs := make([]error, len(docs))
	items := make([]db.HashSetItem, 0, len(docs))
	slots := make([]int, 0, len(docs))

	for i := range docs {
		fields, err := buildHashFields(&docs[i])
		if err != nil {
			errs[i] = err
			continue
		}
		items = append(items, db.HashSetItem{Key: r.key(docs[i].ID()), Fields: fields})
		slots = append(slots, i)
	}

	if len(items) == 0 {
		return errs
	}

	for j, err := range r.store.ReplaceHashes(ctx, items) {
		if err != nil {
			errs[slots[j]] = fmt.Errorf("upsert %s: %w", items[j].Key, err)
		}
	}
	return errs
}

// Get returns a document by identity. The vector is not loaded.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	key := r.key(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return parseHashFields(m), nil
}

// Delete removes a document by identity.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}

// IDFromKey strips the repository prefix from a storage key.
func (r *Repo) IDFromKey(key string) string {
	return strings.TrimPrefix(key, r.prefix)
}
