package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/pdfsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in runes.
	MaxQueryLength = 4096
	DefaultK       = 10
	MaxK           = 100
)

// Request is a validated search query.
type Request struct {
	query      string
	searchMode mode.Mode
	filters    filter.Expression
	k          int
}

// New validates search parameters. k <= 0 is rejected; k above maxK is
// clamped (maxK <= 0 falls back to MaxK). A blank query is allowed and
// degrades to filter-only lexical matching.
func New(query string, m mode.Mode, filters filter.Expression, k, maxK int) (Request, error) {
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if k <= 0 {
		return Request{}, fmt.Errorf("k must be positive, got %d", k)
	}
	if maxK <= 0 {
		maxK = MaxK
	}
	if k > maxK {
		k = maxK
	}

	return Request{
		query:      strings.TrimSpace(query),
		searchMode: m,
		filters:    filters,
		k:          k,
	}, nil
}

// Query returns the trimmed search text.
func (r *Request) Query() string { return r.query }

// IsBlank reports whether the query has no text to match or embed.
func (r *Request) IsBlank() bool { return r.query == "" }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Filters returns the pre-filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// K returns the number of hits to return.
func (r *Request) K() int { return r.k }
