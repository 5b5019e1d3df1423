package document

import (
	"encoding/json"
	"fmt"
)

// Metadata is an open key-value map passed through unexamined. Values are
// limited to JSON shapes: nil, bool, string, numbers, []any, map[string]any.
type Metadata map[string]any

// NewMetadata copies m, coercing values outside the JSON shapes to strings.
func NewMetadata(m map[string]any) Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = jsonValue(v)
	}
	return out
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return NewMetadata(m)
}

// MarshalString encodes metadata for storage as a single hash field.
func (m Metadata) MarshalString() (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(map[string]any(m))
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

// ParseMetadata decodes a stored metadata field. Empty input yields an empty map.
func ParseMetadata(s string) (Metadata, error) {
	if s == "" {
		return Metadata{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if m == nil {
		return Metadata{}, nil
	}
	return Metadata(m), nil
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case nil, bool, string, json.Number, float64, float32, int, int32, int64, uint, uint32, uint64:
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = jsonValue(e)
		}
		return out
	case Metadata:
		return jsonValue(map[string]any(x))
	default:
		return fmt.Sprint(x)
	}
}
