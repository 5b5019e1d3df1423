package document

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Type determines which derived fields of a Document are populated.
type Type string

// Block types produced by the PDF parser.
const (
	TypeText  Type = "text"
	TypeTable Type = "table"
	TypeImage Type = "image"
)

// ParseType maps a raw type name onto a known Type. ok is false for unknown names.
func ParseType(s string) (Type, bool) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeText, TypeTable, TypeImage:
		return t, true
	}
	return "", false
}

// IdentityPrefixRunes is how much of the text participates in the identity.
const IdentityPrefixRunes = 64

// Document is the canonical unit stored in and retrieved from the index.
// TableText is empty unless Type is TypeTable. BBox is opaque pass-through.
type Document struct {
	PDFID     string
	Page      *int
	Type      Type
	Text      string
	TableText string
	BBox      any
	Metadata  Metadata
	Vector    []float32
}

// PageOrZero returns the page number, or 0 when the block has none.
func (d *Document) PageOrZero() int {
	if d.Page == nil {
		return 0
	}
	return *d.Page
}

// ID returns the document identity: pdf_id, page-or-0 and a hash of the
// first 64 runes of text. Re-ingesting the same tuple overwrites in place.
func (d *Document) ID() string {
	return Identity(d.PDFID, d.PageOrZero(), d.Text)
}

// Identity derives the stable document key.
func Identity(pdfID string, page int, text string) string {
	return pdfID + ":" + strconv.Itoa(page) + ":" + strconv.FormatUint(xxhash.Sum64String(prefixRunes(text, IdentityPrefixRunes)), 16)
}

// ParseIdentity splits an identity into its pdf_id and page parts.
// pdf_id may itself contain ':' so the split is taken from the right.
func ParseIdentity(id string) (pdfID string, page int, ok bool) {
	last := strings.LastIndexByte(id, ':')
	if last <= 0 {
		return "", 0, false
	}
	mid := strings.LastIndexByte(id[:last], ':')
	if mid <= 0 || last == len(id)-1 {
		return "", 0, false
	}
	page, err := strconv.Atoi(id[mid+1 : last])
	if err != nil || page < 0 {
		return "", 0, false
	}
	return id[:mid], page, true
}

// AsRecord turns a normalized document back into an input record.
func (d *Document) AsRecord() Record {
	r := Record{
		PDFID:     d.PDFID,
		Type:      string(d.Type),
		Text:      d.Text,
		TableText: d.TableText,
		BBox:      d.BBox,
		Metadata:  d.Metadata.Clone(),
	}
	if d.Page != nil {
		p := *d.Page
		r.Page = &p
	}
	return r
}

func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
