package result

import "github.com/kailas-cloud/pdfsearch/internal/domain/document"

// Result is a single search hit: the stored document projection and its
// blended score. Lexical and vector components are kept for diagnostics.
type Result struct {
	id       string
	score    float64
	lexical  float64
	semantic float64
	doc      document.Document
}

// New creates a search result. The document vector is dropped.
func New(id string, score float64, doc document.Document) Result {
	doc.Vector = nil
	return Result{id: id, score: score, doc: doc}
}

// WithComponents returns a copy carrying the per-clause scores.
func (r Result) WithComponents(lexical, semantic float64) Result {
	r.lexical = lexical
	r.semantic = semantic
	return r
}

// WithScore returns a copy with a new blended score.
func (r Result) WithScore(score float64) Result {
	r.score = score
	return r
}

// ID returns the document identity.
func (r *Result) ID() string { return r.id }

// Score returns the blended relevance score.
func (r *Result) Score() float64 { return r.score }

// LexicalScore returns the normalized keyword component.
func (r *Result) LexicalScore() float64 { return r.lexical }

// SemanticScore returns the vector similarity component.
func (r *Result) SemanticScore() float64 { return r.semantic }

// Document returns the projected document.
func (r *Result) Document() document.Document { return r.doc }
