package document

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is a loosely-structured block exported by the PDF parser.
// Every field is optional; Normalize decides what a missing field means.
type Record struct {
	PDFID     string
	Page      *int
	Type      string
	Text      string
	TableText string
	Table     *Table
	BBox      any
	Metadata  Metadata
	ImageB64  string
}

// Table holds the cell grid of a table block.
type Table struct {
	Rows [][]any
}

// ParseRecord reads a decoded JSON object into a Record. It never fails:
// values of the wrong shape are treated as absent.
func ParseRecord(m map[string]any) Record {
	r := Record{
		PDFID:     scalarString(m["pdf_id"]),
		Page:      parsePage(m["page"]),
		Type:      stringValue(m["type"]),
		Text:      stringValue(m["text"]),
		TableText: stringValue(m["table_text"]),
		Table:     parseTable(m["table"]),
		BBox:      m["bbox"],
		ImageB64:  stringValue(m["image_b64"]),
	}
	if md, ok := m["metadata"].(map[string]any); ok {
		r.Metadata = NewMetadata(md)
	}
	return r
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// scalarString accepts identifiers exported as numbers.
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

// parsePage keeps non-negative integers and drops everything else.
func parsePage(v any) *int {
	var f float64
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			f = float64(i)
		} else if g, err := x.Float64(); err == nil {
			f = g
		} else {
			return nil
		}
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		f = float64(i)
	default:
		return nil
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	p := int(f)
	return &p
}

func parseTable(v any) *Table {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	rawRows, ok := m["rows"].([]any)
	if !ok {
		return nil
	}
	rows := make([][]any, 0, len(rawRows))
	for _, rr := range rawRows {
		if cells, ok := rr.([]any); ok {
			rows = append(rows, cells)
		}
	}
	return &Table{Rows: rows}
}
