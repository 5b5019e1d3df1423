package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/pdfsearch/internal/domain/document"
)

// memWriter is an in-memory identity-keyed store.
type memWriter struct {
	mu      sync.Mutex
	docs    map[string]document.Document
	calls   int
	batches []int
	failFn  func(call int, doc *document.Document) error
}

func newMemWriter() *memWriter {
	return &memWriter{docs: make(map[string]document.Document)}
}

func (w *memWriter) UpsertBatch(_ context.Context, docs []document.Document) []error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls++
	w.batches = append(w.batches, len(docs))
	errs := make([]error, len(docs))
	for i := range docs {
		if w.failFn != nil {
			if err := w.failFn(w.calls, &docs[i]); err != nil {
				errs[i] = err
				continue
			}
		}
		w.docs[docs[i].ID()] = docs[i]
	}
	return errs
}

type stubEmbedder struct {
	mu     sync.Mutex
	images [][]byte
	texts  []string
	errFn  func(doc *document.Document) error
}

func (e *stubEmbedder) EmbedDocument(_ context.Context, doc *document.Document, image []byte) ([]float32, error) {
	if e.errFn != nil {
		if err := e.errFn(doc); err != nil {
			return nil, err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(image) > 0 {
		e.images = append(e.images, image)
	} else {
		e.texts = append(e.texts, doc.Text)
	}
	return []float32{1, 0, 0}, nil
}

func newTestPipeline(t *testing.T, w *memWriter, e *stubEmbedder, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithPoolSize(4), WithRetry(2, time.Millisecond)}, opts...)
	p, err := NewPipeline(w, e, opts...)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	t.Cleanup(p.Release)
	return p
}

func textRecord(pdfID string, page int, text string) map[string]any {
	return map[string]any{"pdf_id": pdfID, "page": float64(page), "type": "text", "text": text}
}
