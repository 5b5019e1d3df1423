package filter

import "fmt"

// MaxConditions caps the number of conditions in one expression.
const MaxConditions = 8

// Expression is a conjunction of exact-match conditions. It constrains the
// candidate set and never contributes to scoring.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	seen := make(map[string]bool, len(must))
	for _, c := range must {
		if seen[c.key] {
			return Expression{}, fmt.Errorf("duplicate filter on %q", c.key)
		}
		seen[c.key] = true
	}
	return Expression{must: must}, nil
}

// Must returns the conditions every hit has to satisfy.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Condition is an exact match of a keyword field against a value.
type Condition struct {
	key   string
	value string
}

// NewMatch creates an exact keyword match condition.
func NewMatch(key, value string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, value: value}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Value returns the exact match value.
func (c Condition) Value() string { return c.value }
