// Package query turns a validated search request into an engine-neutral
// hybrid retrieval plan.
package query

import (
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/request"
)

// DefaultVectorCandidates is the minimum number of vector candidates fetched
// for blending, whatever the requested page size.
const DefaultVectorCandidates = 50

// Stored field names.
const (
	FieldPDFID     = "pdf_id"
	FieldPage      = "page"
	FieldType      = "type"
	FieldText      = "text"
	FieldTableText = "table_text"
	FieldBBox      = "bbox"
	FieldMetadata  = "metadata"
	FieldVector    = "vector"
)

// WeightedField is a lexical field and its boost.
type WeightedField struct {
	Name   string
	Weight float64
}

// LexicalFields are matched by the keyword clause, best field first.
var LexicalFields = []WeightedField{
	{Name: FieldText, Weight: 3},
	{Name: FieldTableText, Weight: 2},
}

// ReturnFields is the hit projection. The vector is never returned.
var ReturnFields = []string{FieldPDFID, FieldPage, FieldType, FieldText, FieldTableText, FieldMetadata}

// Lexical is the keyword clause. Blank Text matches every filtered document.
type Lexical struct {
	Text   string
	Fields []string
	Limit  int
}

// Vector is the approximate nearest-neighbor clause.
type Vector struct {
	Field     string
	Embedding []float32
	K         int
}

// Plan is one hybrid query: a mandatory filter, a lexical clause and an
// optional vector clause combined disjunctively, truncated to Size.
type Plan struct {
	Filter  filter.Expression
	Lexical Lexical
	Vector  *Vector
	Size    int
	Return  []string
}

// Builder composes plans with a fixed over-fetch policy.
type Builder struct {
	candidates int
}

// NewBuilder creates a Builder. candidates <= 0 uses DefaultVectorCandidates.
func NewBuilder(candidates int) *Builder {
	if candidates <= 0 {
		candidates = DefaultVectorCandidates
	}
	return &Builder{candidates: candidates}
}

// Candidates returns how many hits each clause retrieves for a page of k.
func (b *Builder) Candidates(k int) int {
	return max(b.candidates, k)
}

// NeedsEmbedding reports whether Build will use a query vector for req.
func (b *Builder) NeedsEmbedding(req *request.Request) bool {
	return req.Mode().UsesVector() && !req.IsBlank()
}

// Build composes the plan. embedding is ignored unless NeedsEmbedding(req).
func (b *Builder) Build(req *request.Request, embedding []float32) Plan {
	fetch := b.Candidates(req.K())

	fields := make([]string, len(LexicalFields))
	for i, f := range LexicalFields {
		fields[i] = f.Name
	}

	p := Plan{
		Filter: req.Filters(),
		Lexical: Lexical{
			Text:   req.Query(),
			Fields: fields,
			Limit:  fetch,
		},
		Size:   req.K(),
		Return: ReturnFields,
	}

	if b.NeedsEmbedding(req) && len(embedding) > 0 {
		p.Vector = &Vector{Field: FieldVector, Embedding: embedding, K: fetch}
	}
	return p
}
