package document

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/query"
)

// buildHashFields flattens a Document for HSET. Absent optional fields are
// omitted so the index never sees an empty page or table_text.
func buildHashFields(doc *domdoc.Document) (map[string]string, error) {
	md, err := doc.Metadata.MarshalString()
	if err != nil {
		return nil, err
	}

	m := map[string]string{
		query.FieldPDFID:    doc.PDFID,
		query.FieldType:     string(doc.Type),
		query.FieldText:     doc.Text,
		query.FieldMetadata: md,
	}
	if doc.Page != nil {
		m[query.FieldPage] = strconv.Itoa(*doc.Page)
	}
	if doc.TableText != "" {
		m[query.FieldTableText] = doc.TableText
	}
	if doc.BBox != nil {
		data, err := json.Marshal(doc.BBox)
		if err != nil {
			return nil, fmt.Errorf("marshal bbox: %w", err)
		}
		m[query.FieldBBox] = string(data)
	}
	if len(doc.Vector) > 0 {
		m[query.FieldVector] = vectorToBytes(doc.Vector)
	}
	return m, nil
}

// parseHashFields rebuilds a Document from stored or projected fields.
// Malformed optional fields are dropped rather than failing the read.
func parseHashFields(m map[string]string) domdoc.Document {
	doc := domdoc.Document{
		PDFID:     m[query.FieldPDFID],
		Type:      domdoc.Type(m[query.FieldType]),
		Text:      m[query.FieldText],
		TableText: m[query.FieldTableText],
	}
	if p, err := strconv.Atoi(m[query.FieldPage]); err == nil {
		doc.Page = &p
	}
	if raw, ok := m[query.FieldBBox]; ok && raw != "" {
		var bbox any
		if err := json.Unmarshal([]byte(raw), &bbox); err == nil {
			doc.BBox = bbox
		}
	}
	md, err := domdoc.ParseMetadata(m[query.FieldMetadata])
	if err != nil {
		md = domdoc.Metadata{}
	}
	doc.Metadata = md
	return doc
}

// ParseFields is parseHashFields for search projections.
func ParseFields(m map[string]string) domdoc.Document {
	return parseHashFields(m)
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
