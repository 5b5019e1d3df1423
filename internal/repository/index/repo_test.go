package index

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/pdfsearch/internal/db"
	"github.com/kailas-cloud/pdfsearch/internal/domain"
)

type mockStore struct {
	createFn func(ctx context.Context, def *db.IndexDefinition) error
	dropFn   func(ctx context.Context, name string) error
	existsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createFn != nil {
		return m.createFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropFn != nil {
		return m.dropFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, name)
	}
	return false, nil
}

func TestCreate_Schema(t *testing.T) {
	ms := &mockStore{}
	var got *db.IndexDefinition
	ms.createFn = func(_ context.Context, def *db.IndexDefinition) error {
		got = def
		return nil
	}

	repo := New(ms, "pdf_search", "pdfsearch:doc:", 384).WithHNSW(HNSWConfig{M: 32})
	if err := repo.Create(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Name != "pdf_search" || len(got.Prefixes) != 1 || got.Prefixes[0] != "pdfsearch:doc:" {
		t.Fatalf("unexpected definition: %+v", got)
	}

	fields := make(map[string]db.IndexField, len(got.Fields))
	for _, f := range got.Fields {
		fields[f.Name] = f
	}
	if fields["pdf_id"].Type != db.IndexFieldTag || fields["type"].Type != db.IndexFieldTag {
		t.Error("pdf_id and type must be TAG fields")
	}
	if fields["page"].Type != db.IndexFieldNumeric {
		t.Error("page must be NUMERIC")
	}
	if fields["text"].TextWeight != 3 || fields["table_text"].TextWeight != 2 {
		t.Errorf("unexpected weights: text=%v table_text=%v",
			fields["text"].TextWeight, fields["table_text"].TextWeight)
	}
	v := fields["vector"]
	if v.Type != db.IndexFieldVector || v.VectorDim != 384 || v.VectorDistance != db.DistanceCosine {
		t.Errorf("unexpected vector field: %+v", v)
	}
	if v.VectorM != 32 || v.VectorEFConstruct != 200 {
		t.Errorf("HNSW = %d/%d, want 32/200", v.VectorM, v.VectorEFConstruct)
	}
}

func TestCreate_FlatVector(t *testing.T) {
	var got *db.IndexDefinition
	ms := &mockStore{createFn: func(_ context.Context, def *db.IndexDefinition) error {
		got = def
		return nil
	}}

	algo, err := ParseAlgorithm("flat")
	if err != nil {
		t.Fatal(err)
	}
	repo := New(ms, "pdf_search", "pdfsearch:doc:", 384).WithAlgorithm(algo).WithHNSW(HNSWConfig{M: 32})
	if err := repo.Create(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, f := range got.Fields {
		if f.Name != "vector" {
			continue
		}
		if f.VectorAlgo != db.VectorFlat || f.VectorDim != 384 || f.VectorM != 0 {
			t.Errorf("unexpected vector field: %+v", f)
		}
		return
	}
	t.Fatal("vector field missing")
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    db.VectorAlgorithm
		wantErr bool
	}{
		{"", db.VectorHNSW, false},
		{"hnsw", db.VectorHNSW, false},
		{"FLAT", db.VectorFlat, false},
		{"ivf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAlgorithm(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	ms := &mockStore{createFn: func(context.Context, *db.IndexDefinition) error {
		return db.ErrIndexExists
	}}
	err := New(ms, "pdf_search", "p:", 4).Create(context.Background())
	if !errors.Is(err, domain.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreate_InvalidDim(t *testing.T) {
	ms := &mockStore{createFn: func(context.Context, *db.IndexDefinition) error {
		t.Fatal("store must not be called for an invalid schema")
		return nil
	}}
	if err := New(ms, "pdf_search", "p:", 0).Create(context.Background()); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestDrop(t *testing.T) {
	tests := []struct {
		name    string
		storeEr error
		want    error
	}{
		{"ok", nil, nil},
		{"missing", db.ErrIndexNotFound, domain.ErrIndexNotFound},
		{"other", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := &mockStore{dropFn: func(context.Context, string) error { return tt.storeEr }}
			err := New(ms, "pdf_search", "p:", 4).Drop(context.Background())
			switch {
			case tt.storeEr == nil && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.want != nil && !errors.Is(err, tt.want):
				t.Errorf("expected %v, got %v", tt.want, err)
			case tt.storeEr != nil && tt.want == nil && err == nil:
				t.Error("expected error")
			}
		})
	}
}

func TestExists(t *testing.T) {
	ms := &mockStore{existsFn: func(_ context.Context, name string) (bool, error) {
		return name == "pdf_search", nil
	}}
	ok, err := New(ms, "pdf_search", "p:", 4).Exists(context.Background())
	if err != nil || !ok {
		t.Errorf("got %v, %v", ok, err)
	}
}
