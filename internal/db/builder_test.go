package db

import (
	"strings"
	"testing"
)

func mustBuild(t *testing.T, b *IndexBuilder) *IndexDefinition {
	t.Helper()
	def, err := b.Build()
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return def
}

func TestIndexBuilder_DocumentSchema(t *testing.T) {
	idx := mustBuild(t, NewIndex("pdf_search").
		Prefix("pdfsearch:doc:").
		Tag("pdf_id").
		Numeric("page").
		Tag("type").
		Text("text", 3).
		Text("table_text", 2).
		VectorHNSW("vector", 384, DistanceCosine, 16, 200))

	if idx.Name != "pdf_search" {
		t.Errorf("name = %q, want pdf_search", idx.Name)
	}
	if len(idx.Fields) != 6 {
		t.Fatalf("fields count = %d, want 6", len(idx.Fields))
	}
	if f := idx.Fields[0]; f.Type != IndexFieldTag || !f.TagCaseSensitive {
		t.Errorf("pdf_id = %+v, want case-sensitive TAG", f)
	}
	if f := idx.Fields[1]; f.Type != IndexFieldNumeric || !f.Sortable {
		t.Errorf("page = %+v, want sortable NUMERIC", f)
	}
	if f := idx.Fields[3]; f.Type != IndexFieldText || f.TextWeight != 3 {
		t.Errorf("text = %+v, want TEXT weight 3", f)
	}
	v := idx.Fields[5]
	if v.VectorAlgo != VectorHNSW || v.VectorDim != 384 || v.VectorM != 16 || v.VectorEFConstruct != 200 {
		t.Errorf("vector = %+v", v)
	}
}

func TestIndexBuilder_Validation(t *testing.T) {
	tests := []struct {
		name string
		b    *IndexBuilder
	}{
		{"empty name", NewIndex("").Tag("a")},
		{"invalid name", NewIndex("bad name").Tag("a")},
		{"no fields", NewIndex("idx")},
		{"duplicate field", NewIndex("idx").Tag("a").Text("a", 1)},
		{"zero dim", NewIndex("idx").VectorFlat("v", 0, DistanceCosine)},
		{"negative weight", NewIndex("idx").Text("t", -1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.b.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"pdf_search", true},
		{"idx:v1-a", true},
		{"", false},
		{"has space", false},
		{"semi;colon", false},
	}
	for _, tc := range tests {
		if got := IsValidIdentifier(tc.in); got != tc.want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIndexDefinition_Args(t *testing.T) {
	args, err := mustBuild(t, NewIndex("idx").
		Prefix("p:").
		Tag("type").
		VectorFlat("v", 3, DistanceL2)).
		Args()
	if err != nil {
		t.Fatal(err)
	}
	want := "idx ON HASH PREFIX 1 p: SCHEMA type TAG CASESENSITIVE v VECTOR FLAT 6 TYPE FLOAT32 DIM 3 DISTANCE_METRIC L2"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("args =\n%s\nwant\n%s", got, want)
	}
}

func TestError_Message(t *testing.T) {
	err := Wrap(OpGet, "pdfsearch:emb:abc", ErrKeyNotFound)
	if err.Error() != "GET pdfsearch:emb:abc: db: key not found" {
		t.Errorf("message = %q", err.Error())
	}
	if Wrap(OpGet, "k", nil) != nil {
		t.Error("Wrap(nil) must be nil")
	}
}
