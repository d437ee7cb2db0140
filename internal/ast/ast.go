// Package ast turns a parsed UVL Tree into the structured document the
// link stage fans in: a feature hierarchy, an import table, and the list
// of dotted-path references appearing in constraints.
package ast

import (
	"fmt"
	"time"

	"github.com/Koenneker/uvl-lsp/internal/errors"
	"github.com/Koenneker/uvl-lsp/internal/fileid"
	"github.com/Koenneker/uvl-lsp/internal/parsetree"
	"github.com/Koenneker/uvl-lsp/internal/rope"
)

// Attribute is a named value on a Feature. Number is true for attributes
// whose value is numeric -- the only attribute kind the semantic-token
// engine resolves references against (spec.md §4.3).
type Attribute struct {
	Name   string
	Span   rope.ByteSpan
	Number bool
}

// Feature is one node of the feature hierarchy, keyed by indentation
// depth at parse time.
type Feature struct {
	Name       string
	Span       rope.ByteSpan
	Depth      int
	Attributes []Attribute
	Children   []*Feature
	Parent     *Feature
}

// QualifiedName returns the dotted name from the root feature down to f.
func (f *Feature) QualifiedName() string {
	if f.Parent == nil {
		return f.Name
	}
	return f.Parent.QualifiedName() + "." + f.Name
}

// PathRef is one dotted reference found inside a constraints expression.
type PathRef struct {
	Segments       []parsetree.PathSegment
	NumericContext bool
}

// AstDocument is the product of visiting a UVL tree: immutable once
// published, carrying its own (possibly partial) errors rather than
// failing the whole pipeline on malformed input.
type AstDocument struct {
	URI         string
	Timestamp   time.Time
	Namespace   string
	Imports     map[string]string
	Features    []*Feature
	AllFeatures map[string]*Feature // qualified name -> Feature
	Constraints []PathRef
	Errors      []error
}

// VisitRoot builds an AstDocument from a parsed Tree. It never panics on
// malformed input: structural problems become entries in Errors instead.
func VisitRoot(src *rope.Rope, tree *parsetree.Tree, uri string, ts time.Time) *AstDocument {
	doc := &AstDocument{
		URI:         uri,
		Timestamp:   ts,
		Imports:     make(map[string]string),
		AllFeatures: make(map[string]*Feature),
	}
	fid := fileid.New(uri)

	var stack []*Feature // stack[i].Depth < stack[i+1].Depth
	var pendingAlias string

	for _, n := range tree.Nodes {
		switch n.Kind {
		case "namespace_name":
			doc.Namespace = n.Text
		case "import_source":
			pendingAlias = n.Text
		case "import_alias":
			if pendingAlias != "" {
				doc.Imports[n.Text] = pendingAlias
				pendingAlias = ""
			}
		case "feature":
			for len(stack) > 0 && stack[len(stack)-1].Depth >= n.Depth {
				stack = stack[:len(stack)-1]
			}
			f := &Feature{Name: n.Text, Span: n.Span, Depth: n.Depth}
			if len(stack) > 0 {
				f.Parent = stack[len(stack)-1]
				f.Parent.Children = append(f.Parent.Children, f)
			} else {
				doc.Features = append(doc.Features, f)
			}
			stack = append(stack, f)
			doc.AllFeatures[f.QualifiedName()] = f
		case "attribute":
			if len(stack) == 0 {
				doc.Errors = append(doc.Errors, errors.NewParseError(fid, uri, n.Start.Row, n.Start.Column, n.Text, fmt.Errorf("attribute outside any feature")))
				continue
			}
			cur := stack[len(stack)-1]
			cur.Attributes = append(cur.Attributes, Attribute{Name: n.Text, Span: n.Span, Number: n.NumericContext})
		case "path":
			if n.Section == parsetree.SectionConstraints {
				doc.Constraints = append(doc.Constraints, PathRef{Segments: n.PathSegments, NumericContext: n.NumericContext})
			}
		}
	}

	doc.Errors = append(doc.Errors, CheckSanity(tree, src)...)
	doc.Errors = append(doc.Errors, CheckErrors(tree, src, fid, uri)...)
	return doc
}

// CheckSanity scans for structural problems a well-formed file should
// never have, independent of whether any single token failed to parse:
// duplicate feature names at the same nesting level. It checks nothing
// else.
func CheckSanity(tree *parsetree.Tree, src *rope.Rope) []error {
	var errs []error
	siblingSeen := map[string]bool{}
	depthStack := []string{}
	for _, n := range tree.Nodes {
		if n.Kind != "feature" {
			continue
		}
		for len(depthStack) > n.Depth {
			depthStack = depthStack[:len(depthStack)-1]
		}
		parentKey := ""
		if len(depthStack) > 0 {
			parentKey = depthStack[len(depthStack)-1]
		}
		key := parentKey + "/" + n.Text
		if siblingSeen[key] {
			errs = append(errs, fmt.Errorf("duplicate feature %q at %d:%d", n.Text, n.Start.Row+1, n.Start.Column))
		}
		siblingSeen[key] = true
		for len(depthStack) <= n.Depth {
			depthStack = append(depthStack, "")
		}
		depthStack[n.Depth] = n.Text
	}
	return errs
}

// CheckErrors collects the parse-level errors the tokenizer already
// flagged (the equivalent of a tree-sitter ERROR node).
func CheckErrors(tree *parsetree.Tree, src *rope.Rope, fid fileid.FileID, uri string) []error {
	var errs []error
	for _, n := range tree.Errors {
		errs = append(errs, errors.NewParseError(fid, uri, n.Start.Row, n.Start.Column, n.Text, fmt.Errorf("%s", n.ErrorMessage)))
	}
	return errs
}
