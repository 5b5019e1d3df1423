package search

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/pdfsearch/internal/domain/search/result"
)

// Fusion selects how lexical and vector rankings are blended.
type Fusion string

const (
	// FusionWeighted blends min-max normalized lexical scores with cosine similarity.
	FusionWeighted Fusion = "weighted"
	// FusionRRF blends ranks via Reciprocal Rank Fusion.
	FusionRRF Fusion = "rrf"
)

// ParseFusion validates a configured fusion name. Empty means weighted.
func ParseFusion(s string) (Fusion, error) {
	switch f := Fusion(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FusionWeighted, nil
	case FusionWeighted, FusionRRF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown fusion %q (want weighted or rrf)", s)
	}
}

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

type fused struct {
	res      result.Result
	lexical  float64
	semantic float64
	score    float64
}

// merge indexes both rankings by identity. The lexical copy of a document wins
// when it appears in both lists; their projections are identical.
func merge(lexical, vector []result.Result) (map[string]*fused, []string) {
	merged := make(map[string]*fused, len(lexical)+len(vector))
	order := make([]string, 0, len(lexical)+len(vector))

	for _, r := range lexical {
		if _, ok := merged[r.ID()]; ok {
			continue
		}
		merged[r.ID()] = &fused{res: r}
		order = append(order, r.ID())
	}
	for _, r := range vector {
		if _, ok := merged[r.ID()]; !ok {
			merged[r.ID()] = &fused{res: r}
			order = append(order, r.ID())
		}
	}
	return merged, order
}

// fuseWeighted scores each candidate as (1-w)*lexical_norm + w*similarity.
// A document missing from one clause contributes 0 for it.
func fuseWeighted(lexical, vector []result.Result, w float64, size int) []result.Result {
	merged, order := merge(lexical, vector)

	lo, hi := scoreRange(lexical)
	for _, r := range lexical {
		f := merged[r.ID()]
		f.lexical = max(f.lexical, normalize(r.Score(), lo, hi))
	}
	for _, r := range vector {
		f := merged[r.ID()]
		f.semantic = max(f.semantic, r.Score())
	}
	for _, id := range order {
		f := merged[id]
		f.score = (1-w)*f.lexical + w*f.semantic
	}

	return rank(merged, order, size)
}

// fuseRRF scores each candidate as the sum of 1/(k + rank) over the clauses it appears in.
func fuseRRF(lexical, vector []result.Result, size int) []result.Result {
	merged, order := merge(lexical, vector)

	lo, hi := scoreRange(lexical)
	for i, r := range lexical {
		f := merged[r.ID()]
		f.lexical = normalize(r.Score(), lo, hi)
		f.score += 1.0 / float64(rrfK+i+1)
	}
	for i, r := range vector {
		f := merged[r.ID()]
		f.semantic = r.Score()
		f.score += 1.0 / float64(rrfK+i+1)
	}

	return rank(merged, order, size)
}

// lexicalOnly keeps raw engine text scores and reorders deterministically.
func lexicalOnly(lexical []result.Result, size int) []result.Result {
	merged, order := merge(lexical, nil)
	lo, hi := scoreRange(lexical)
	for _, r := range lexical {
		f := merged[r.ID()]
		f.score = r.Score()
		f.lexical = normalize(r.Score(), lo, hi)
	}
	return rank(merged, order, size)
}

// rank sorts by score descending with identity ascending as tie-break, then truncates.
func rank(merged map[string]*fused, order []string, size int) []result.Result {
	out := make([]result.Result, 0, len(order))
	for _, id := range order {
		f := merged[id]
		out = append(out, f.res.WithScore(f.score).WithComponents(f.lexical, f.semantic))
	}

	slices.SortStableFunc(out, func(a, b result.Result) int {
		switch {
		case a.Score() > b.Score():
			return -1
		case a.Score() < b.Score():
			return 1
		default:
			return strings.Compare(a.ID(), b.ID())
		}
	})

	if size >= 0 && len(out) > size {
		out = out[:size]
	}
	return out
}

func scoreRange(rs []result.Result) (lo, hi float64) {
	for i, r := range rs {
		if i == 0 || r.Score() < lo {
			lo = r.Score()
		}
		if i == 0 || r.Score() > hi {
			hi = r.Score()
		}
	}
	return lo, hi
}

// normalize maps s into [0,1] over [lo,hi]. A flat range means every hit matched equally.
func normalize(s, lo, hi float64) float64 {
	if hi <= lo {
		return 1
	}
	return (s - lo) / (hi - lo)
}
