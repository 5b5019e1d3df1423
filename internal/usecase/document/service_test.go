package document

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
)

type mockRepo struct {
	docs    map[string]domdoc.Document
	deleted []string
}

func (m *mockRepo) Get(_ context.Context, id string) (domdoc.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return d, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func TestGet(t *testing.T) {
	page := 3
	doc := domdoc.Document{PDFID: "doc1", Page: &page, Text: "hello", Vector: []float32{1}}
	repo := &mockRepo{docs: map[string]domdoc.Document{doc.ID(): doc}}
	svc := New(repo)

	got, err := svc.Get(context.Background(), doc.ID())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "hello" || got.Vector != nil {
		t.Errorf("unexpected document: %+v", got)
	}
}

func TestGet_Errors(t *testing.T) {
	svc := New(&mockRepo{docs: map[string]domdoc.Document{}})

	if _, err := svc.Get(context.Background(), "nocolons"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
	id := domdoc.Identity("doc1", 0, "x")
	if _, err := svc.Get(context.Background(), id); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	id := domdoc.Identity("doc1", 0, "x")
	repo := &mockRepo{docs: map[string]domdoc.Document{id: {PDFID: "doc1"}}}
	svc := New(repo)

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Error("expected one delete")
	}
	if err := svc.Delete(context.Background(), id); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("second delete: expected ErrDocumentNotFound, got %v", err)
	}
}
