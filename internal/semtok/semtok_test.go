package semtok

import (
	"testing"

	"github.com/Koenneker/uvl-lsp/internal/parsetree"
	"github.com/Koenneker/uvl-lsp/internal/rope"
)

const sampleUVL = "namespace Base\n\nfeatures\n\tBase\n\t\tmandatory\n\t\t\tLogging\n"

func TestEngine_FullProducesTokens(t *testing.T) {
	e := NewEngine()
	src := rope.New(sampleUVL)
	tree := parsetree.Parse(src, nil)

	data := e.Full("file:///a.uvl", tree, src, nil)
	if len(data) == 0 {
		t.Fatalf("expected at least one token for a namespace + feature file")
	}
	if len(data)%5 != 0 {
		t.Fatalf("expected a multiple of 5 uint32 per token, got %d values", len(data))
	}
}

func TestEngine_DeltaFirstCallReturnsFull(t *testing.T) {
	e := NewEngine()
	src := rope.New(sampleUVL)
	tree := parsetree.Parse(src, nil)

	result := e.Delta("file:///b.uvl", tree, src, nil)
	if result.Full == nil {
		t.Fatalf("expected a Full result on first Delta call")
	}
	if result.Edits != nil {
		t.Errorf("expected no edits on first Delta call")
	}
}

func TestEngine_DeltaAfterAppendProducesSmallEdit(t *testing.T) {
	e := NewEngine()
	uri := "file:///c.uvl"

	src1 := rope.New(sampleUVL)
	tree1 := parsetree.Parse(src1, nil)
	e.Full(uri, tree1, src1, nil)

	appended := sampleUVL + "\t\tmandatory\n\t\t\tSecurity\n"
	src2 := rope.New(appended)
	tree2 := parsetree.Parse(src2, nil)

	result := e.Delta(uri, tree2, src2, nil)
	if result.Full != nil {
		t.Fatalf("expected an edit-based delta after a prior Full call")
	}
	if len(result.Edits) != 1 {
		t.Fatalf("expected exactly one edit for an append-only change, got %d", len(result.Edits))
	}
}

func TestEngine_Forget(t *testing.T) {
	e := NewEngine()
	uri := "file:///d.uvl"
	src := rope.New(sampleUVL)
	tree := parsetree.Parse(src, nil)
	e.Full(uri, tree, src, nil)

	e.Forget(uri)

	result := e.Delta(uri, tree, src, nil)
	if result.Full == nil {
		t.Errorf("expected Full result after Forget, as if this were the first call")
	}
}

func TestTokenTypes_FixedLegend(t *testing.T) {
	types := TokenTypes()
	if len(types) != 11 {
		t.Fatalf("expected exactly 11 token types, got %d", len(types))
	}
	want := []string{"keyword", "operator", "namespace", "enumMember", "class", "comment", "enum", "interface", "function", "macro", "parameter"}
	for i, w := range want {
		if types[i] != w {
			t.Errorf("expected token type %d to be %q, got %q", i, w, types[i])
		}
	}
}

func TestDedupOverlaps_DropsExactDuplicateAndOverlap(t *testing.T) {
	tokens := []absToken{
		{startLine: 0, startChar: 0, endLine: 0, endChar: 4, kind: 0},
		{startLine: 0, startChar: 0, endLine: 0, endChar: 4, kind: 0},
		{startLine: 0, startChar: 2, endLine: 0, endChar: 6, kind: 1},
		{startLine: 1, startChar: 0, endLine: 1, endChar: 3, kind: 2},
	}
	out := dedupOverlaps(tokens)
	if len(out) != 2 {
		t.Fatalf("expected duplicate and overlapping tokens dropped, got %d tokens: %+v", len(out), out)
	}
}
