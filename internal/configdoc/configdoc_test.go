package configdoc

import (
	"testing"
	"time"

	"github.com/Koenneker/uvl-lsp/internal/parsetree"
	"github.com/Koenneker/uvl-lsp/internal/rope"
)

func parse(t *testing.T, text string) *ConfigDocument {
	t.Helper()
	r := rope.New(text)
	tree := parsetree.ParseJSON(r, nil)
	return Parse(tree, r, "file:///a.uvls.json", time.Now())
}

func TestParse_ValidSelection(t *testing.T) {
	doc := parse(t, `{"Base": true, "Logging": false}`)
	if len(doc.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", doc.Errors)
	}
	if !doc.Selections["Base"] {
		t.Errorf("expected Base selected")
	}
	if doc.Selections["Logging"] {
		t.Errorf("expected Logging not selected")
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	doc := parse(t, `{"Base": true,`)
	if len(doc.Errors) == 0 {
		t.Fatalf("expected a parse error for malformed JSON")
	}
}

func TestParse_SchemaViolation(t *testing.T) {
	doc := parse(t, `{"Base": "yes"}`)
	if len(doc.Errors) == 0 {
		t.Fatalf("expected a schema error for a non-boolean selection")
	}
}

func TestParse_EmptyObject(t *testing.T) {
	doc := parse(t, `{}`)
	if len(doc.Errors) != 0 {
		t.Fatalf("expected no errors for an empty selection, got %v", doc.Errors)
	}
	if len(doc.Selections) != 0 {
		t.Errorf("expected no selections")
	}
}

func TestParse_TimestampAndURIPreserved(t *testing.T) {
	ts := time.Now()
	r := rope.New(`{}`)
	tree := parsetree.ParseJSON(r, nil)
	doc := Parse(tree, r, "file:///x.uvls.json", ts)
	if doc.URI != "file:///x.uvls.json" {
		t.Errorf("expected URI preserved, got %s", doc.URI)
	}
	if !doc.Timestamp.Equal(ts) {
		t.Errorf("expected timestamp preserved")
	}
}
