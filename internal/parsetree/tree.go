// Package parsetree is the parser facade: it turns a Rope into a Tree for
// the two dialects this server understands, UVL and its companion JSON
// configuration format.
//
// The concrete UVL/JSON grammars and tree-sitter queries are explicitly
// out of scope for this core (they are named only as opaque "Parser" and
// "Query" interfaces). This package is the concrete stand-in: a small
// hand-rolled reader for each dialect, shaped so that DraftActor can treat
// both the same way a tree-sitter-backed implementation would -- a pure
// Parse(rope, previousTree) -> Tree function that never panics on
// malformed input.
package parsetree

import "github.com/Koenneker/uvl-lsp/internal/rope"

// Section is the syntactic region of a UVL file a node was read from.
// Highlight extraction and constraint-path resolution both switch on it.
type Section int

const (
	SectionNone Section = iota
	SectionNamespace
	SectionImports
	SectionFeatures
	SectionConstraints
)

func (s Section) String() string {
	switch s {
	case SectionNamespace:
		return "namespace"
	case SectionImports:
		return "imports"
	case SectionFeatures:
		return "features"
	case SectionConstraints:
		return "constraints"
	default:
		return "none"
	}
}

// Capture is a highlight-query capture name. The fixed token-kind table in
// spec.md §4.3 is keyed by these names.
type Capture string

const (
	CaptureKeyword    Capture = "keyword"
	CaptureOperator   Capture = "operator"
	CaptureNamespace  Capture = "namespace"
	CaptureEnumMember Capture = "enumMember"
	CaptureClass      Capture = "class"
	CaptureComment    Capture = "comment"
	CaptureEnum       Capture = "enum"
	CaptureInterface  Capture = "interface"
	CaptureFunction   Capture = "function"
	CaptureMacro      Capture = "macro"
	CaptureParameter  Capture = "parameter"
	// CaptureSomePath marks a dotted reference whose real kind can only be
	// decided by asking a RootGraph to resolve it (spec.md §4.3).
	CaptureSomePath Capture = "some_path"
)

// PathSegment is one `.`-separated component of a dotted reference, with
// its own source span so each component can be colored independently.
type PathSegment struct {
	Name string
	Span rope.ByteSpan
}

// Node is a single captured span in the source. The grammar this package
// implements is flat rather than a real parse tree: each Node stands alone
// with enough context (Section, Depth, PathSegments) for the AST visitor
// and the semantic-token engine to do their job without walking parent
// chains.
type Node struct {
	Kind         string
	Capture      Capture
	Span         rope.ByteSpan
	Start        rope.Point
	End          rope.Point
	Section      Section
	Text         string
	Depth        int // indentation depth; meaningful when Kind == "feature"
	PathSegments []PathSegment
	// NumericContext is set on some_path nodes found next to a comparison
	// or arithmetic operator inside a constraints expression, and on
	// attribute nodes whose value is numeric.
	NumericContext bool
	IsError        bool
	ErrorMessage   string
}

// Tree is the parse result for one file. It is immutable once returned by
// Parse/ParseJSON: every publication replaces it, nothing mutates it.
type Tree struct {
	Nodes  []*Node
	Errors []*Node
}

// Dialect distinguishes which grammar produced a Tree.
type Dialect int

const (
	DialectUVL Dialect = iota
	DialectJSON
)
