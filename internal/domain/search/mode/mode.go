package mode

// Mode is the retrieval strategy of a search request.
type Mode string

// Search mode constants.
const (
	// Hybrid blends the lexical clause with vector similarity.
	Hybrid Mode = "hybrid"
	// Keyword runs the lexical clause only and skips the embedding call.
	Keyword Mode = "keyword"
)

// FromUseVector maps the use_vector toggle onto a Mode.
func FromUseVector(useVector bool) Mode {
	if useVector {
		return Hybrid
	}
	return Keyword
}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Keyword
}

// UsesVector reports whether the mode needs a query embedding.
func (m Mode) UsesVector() bool { return m == Hybrid }
