package pdfsearch

// SearchRequest describes one hybrid search.
type SearchRequest struct {
	Query string
	PDFID string // restricts hits to one document when set
	K     int    // 0 means the default (10)
	// KeywordOnly skips the vector clause.
	KeywordOnly bool
}

// Hit is a single search result.
type Hit struct {
	ID        string
	Score     float64
	PDFID     string
	Page      *int
	Type      string
	Text      string
	TableText string
	BBox      any
	Metadata  map[string]any
}

// SearchResponse is one ranked page of hits.
type SearchResponse struct {
	Hits   []Hit
	TookMs int64
}

// Document is a stored block, as returned by GetDocument.
type Document struct {
	ID        string
	PDFID     string
	Page      *int
	Type      string
	Text      string
	TableText string
	BBox      any
	Metadata  map[string]any
}

// IndexFailure is one record that did not make it into the index.
type IndexFailure struct {
	Index int
	PDFID string
	Err   error
}

// IndexResult summarizes an ingestion run.
type IndexResult struct {
	Indexed  int
	Failures []IndexFailure
}
