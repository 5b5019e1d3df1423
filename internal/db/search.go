package db

import "github.com/kailas-cloud/pdfsearch/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Field        string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for multi-field full-text search. Terms are OR-ed
// and field weights come from the index schema. An empty Query matches every
// document that passes Filters.
type TextQuery struct {
	IndexName    string
	Query        string
	Fields       []string
	Filters      filter.Expression
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
