package document

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Normalize converts a raw record into the canonical document shape. It is
// total and pure; image bytes are never carried into the result.
func Normalize(r Record) Document {
	typ := inferType(r)

	text := r.Text
	var tableText string
	if typ == TypeTable {
		tableText = r.TableText
		if text == "" {
			if tableText == "" && r.Table != nil {
				tableText = Linearize(r.Table.Rows)
			}
			text = tableText
		}
	}

	var page *int
	if r.Page != nil && *r.Page >= 0 {
		p := *r.Page
		page = &p
	}

	md := r.Metadata.Clone()
	if md == nil {
		md = Metadata{}
	}

	return Document{
		PDFID:     strings.TrimSpace(r.PDFID),
		Page:      page,
		Type:      typ,
		Text:      text,
		TableText: tableText,
		BBox:      r.BBox,
		Metadata:  md,
	}
}

// inferType honours a known explicit type; otherwise a table payload makes a
// table, an image without text makes an image, and anything else is text.
func inferType(r Record) Type {
	if t, ok := ParseType(r.Type); ok {
		return t
	}
	switch {
	case r.Table != nil || r.TableText != "":
		return TypeTable
	case r.ImageB64 != "" && r.Text == "":
		return TypeImage
	default:
		return TypeText
	}
}

// Linearize joins cells with ", " and rows with newlines.
func Linearize(rows [][]any) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(formatCell(cell))
		}
	}
	return b.String()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
