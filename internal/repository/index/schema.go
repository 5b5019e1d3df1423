package index

import (
	"github.com/kailas-cloud/pdfsearch/internal/db"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/query"
)

// buildSchema creates the fixed document index: filterable identity fields,
// weighted lexical fields and one COSINE vector field, HNSW unless algo is FLAT.
func buildSchema(name, prefix string, vectorDim int, algo db.VectorAlgorithm, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	b := db.NewIndex(name).
		Prefix(prefix).
		Tag(query.FieldPDFID).
		Numeric(query.FieldPage).
		Tag(query.FieldType)

	for _, f := range query.LexicalFields {
		b = b.Text(f.Name, f.Weight)
	}

	if algo == db.VectorFlat {
		return b.VectorFlat(query.FieldVector, vectorDim, db.DistanceCosine).Build()
	}
	return b.
		VectorHNSW(query.FieldVector, vectorDim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).
		Build()
}
