package document

import (
	"context"
	"testing"

	"github.com/kailas-cloud/pdfsearch/internal/db"
	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
)

// mockStore implements the consumer interface for tests. It keeps written
// hashes so upsert semantics can be checked end to end.
type mockStore struct {
	hashes    map[string]map[string]string
	replaceFn func(ctx context.Context, items []db.HashSetItem) []error
	hgetAllFn func(ctx context.Context, key string) (map[string]string, error)
	existsFn  func(ctx context.Context, key string) (bool, error)
	delFn     func(ctx context.Context, key string) error
}

func (m *mockStore) ReplaceHashes(ctx context.Context, items []db.HashSetItem) []error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, items)
	}
	if m.hashes == nil {
		m.hashes = make(map[string]map[string]string)
	}
	for _, it := range items {
		m.hashes[it.Key] = it.Fields
	}
	return make([]error, len(items))
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	h, ok := m.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return h, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	_, ok := m.hashes[key]
	return ok, nil
}

const testPrefix = "pdfsearch:doc:"

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testPrefix), ms
}

func testDocument(t *testing.T, text string) domdoc.Document {
	t.Helper()
	page := 2
	return domdoc.Document{
		PDFID:    "doc1",
		Page:     &page,
		Type:     domdoc.TypeText,
		Text:     text,
		BBox:     []any{1.0, 2.0, 3.0, 4.0},
		Metadata: domdoc.Metadata{"source": "scan"},
		Vector:   []float32{0.6, 0.8},
	}
}
