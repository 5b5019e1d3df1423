package result

import (
	"testing"

	"github.com/kailas-cloud/pdfsearch/internal/domain/document"
)

func TestNew(t *testing.T) {
	doc := document.Document{PDFID: "doc1", Text: "hello", Vector: []float32{0.1}}
	r := New("doc1:0:ab", 0.95, doc)

	if r.ID() != "doc1:0:ab" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Score() != 0.95 {
		t.Errorf("Score() = %f", r.Score())
	}
	if r.Document().Text != "hello" {
		t.Errorf("Text = %q", r.Document().Text)
	}
	if r.Document().Vector != nil {
		t.Error("vector must not be carried into results")
	}
}

func TestWithComponents(t *testing.T) {
	r := New("a", 0, document.Document{}).WithComponents(0.4, 0.8).WithScore(0.6)
	if r.LexicalScore() != 0.4 || r.SemanticScore() != 0.8 || r.Score() != 0.6 {
		t.Errorf("unexpected result: %+v", r)
	}
}
