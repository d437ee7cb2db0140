// Package graph builds the cross-document analysis snapshot (RootGraph)
// the link stage assembles from the latest AstDocument/ConfigDocument of
// every open file, grounded on original_source/uvls/src/semantic.rs's
// RootGraph and the resolve/owner walk in original_source/src/color.rs.
package graph

import (
	goerrors "errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Koenneker/uvl-lsp/internal/ast"
	"github.com/Koenneker/uvl-lsp/internal/configdoc"
	"github.com/Koenneker/uvl-lsp/internal/errors"
	"github.com/Koenneker/uvl-lsp/internal/fileid"
	"github.com/Koenneker/uvl-lsp/internal/suggest"
)

// errUnresolvedPath is resolveConstraints' Underlying cause for every
// ResolutionError it raises; the path and suggestion fields carry the
// specifics, so the wrapped cause only needs to name the failure kind.
var errUnresolvedPath = goerrors.New("no symbol in scope for this path")

// SymbolKind classifies what a resolved path segment refers to.
type SymbolKind int

const (
	SymbolFeature SymbolKind = iota
	SymbolAttribute
	SymbolNumber
	SymbolNamespace
)

// Symbol is one named thing a dotted path can resolve to.
type Symbol struct {
	Kind          SymbolKind
	File          fileid.FileID
	QualifiedName string
}

// IsValue reports whether sym denotes a value-bearing symbol (an
// attribute or a numeric attribute) as opposed to a structural feature.
// The highlighter's owner walk (color.rs) continues emitting enumMember
// while walking through value symbols and stops at the first non-value.
func (s Symbol) IsValue() bool {
	return s.Kind == SymbolAttribute || s.Kind == SymbolNumber
}

// ResolvedSymbol is one match for a resolve() query.
type ResolvedSymbol struct {
	File fileid.FileID
	Sym  Symbol
}

type fileEntry struct {
	uri    string
	ast    *ast.AstDocument
	config *configdoc.ConfigDocument
}

// ErrorsAcc accumulates diagnostics while a RootGraph is being built,
// keyed by the file they belong to.
type ErrorsAcc struct {
	Errors map[fileid.FileID][]error
}

func newErrorsAcc() *ErrorsAcc {
	return &ErrorsAcc{Errors: make(map[fileid.FileID][]error)}
}

func (e *ErrorsAcc) add(id fileid.FileID, errs []error) {
	if len(errs) == 0 {
		return
	}
	e.Errors[id] = append(e.Errors[id], errs...)
}

// DiagnosticUpdate is published alongside a RootGraph with the errors
// accumulated while building it.
type DiagnosticUpdate struct {
	Revision  uint64
	ErrorsAcc *ErrorsAcc
}

// RootGraph is the immutable multi-file snapshot consumers query
// against. A new RootGraph is constructed on every link-stage
// execution; nothing about a published RootGraph ever mutates except
// its cancel flag.
type RootGraph struct {
	revision   uint64
	files      map[fileid.FileID]*fileEntry
	timestamps map[string]time.Time // uri -> timestamp
	cancelled  int32
}

// Empty returns the zero-value RootGraph a freshly constructed Pipeline
// publishes before any file has been linked.
func Empty() *RootGraph {
	return &RootGraph{files: make(map[fileid.FileID]*fileEntry), timestamps: make(map[string]time.Time)}
}

// New builds a RootGraph from the latest per-file ASTs and configs,
// recording per-file timestamps and accumulating errors. No previous
// RootGraph is consulted; timestamps is only written to, with each linked
// file's timestamp (the Rust pipeline's running timestamps map passed
// into RootGraph::new).
func New(
	asts map[fileid.FileID]*ast.AstDocument,
	configs map[fileid.FileID]*configdoc.ConfigDocument,
	revision uint64,
	timestamps map[fileid.FileID]time.Time,
) (*RootGraph, *ErrorsAcc) {
	g := &RootGraph{
		revision:   revision,
		files:      make(map[fileid.FileID]*fileEntry, len(asts)+len(configs)),
		timestamps: make(map[string]time.Time, len(asts)+len(configs)),
	}
	acc := newErrorsAcc()

	for id, doc := range asts {
		g.files[id] = &fileEntry{uri: doc.URI, ast: doc}
		g.timestamps[doc.URI] = doc.Timestamp
		timestamps[id] = doc.Timestamp
		acc.add(id, doc.Errors)
	}
	for id, doc := range configs {
		entry, ok := g.files[id]
		if !ok {
			entry = &fileEntry{uri: doc.URI}
			g.files[id] = entry
		}
		entry.config = doc
		g.timestamps[doc.URI] = doc.Timestamp
		timestamps[id] = doc.Timestamp
		acc.add(id, doc.Errors)
	}

	g.resolveConstraints(asts, acc)
	return g, acc
}

// resolveConstraints walks every constraint's dotted path and records a
// ResolutionError for anything Resolve can't find, with a fuzzy-matched
// "did you mean" against the sibling names actually in scope in that
// file -- the cross-file counterpart to extractPath's per-request miss
// handling, but computed once per RootGraph build so the result reaches
// callers through the same ErrorsAcc/DiagnosticUpdate every other
// diagnostic travels through.
func (g *RootGraph) resolveConstraints(asts map[fileid.FileID]*ast.AstDocument, acc *ErrorsAcc) {
	for id, doc := range asts {
		candidates := candidateNames(doc)
		for _, ref := range doc.Constraints {
			if len(ref.Segments) == 0 {
				continue
			}
			names := make([]string, len(ref.Segments))
			for i, seg := range ref.Segments {
				names[i] = seg.Name
			}
			if len(g.Resolve(id, names)) > 0 {
				continue
			}
			path := strings.Join(names, ".")
			match := suggest.ForPath(path, candidates)
			acc.add(id, []error{errors.NewResolutionError(id, path, match, errUnresolvedPath)})
		}
	}
}

// candidateNames lists every qualified name visible inside doc: each
// feature's own path, plus "feature.attribute" for each of its
// attributes, the same universe RootGraph.Resolve matches a dotted path
// against within a single file.
func candidateNames(doc *ast.AstDocument) []string {
	candidates := make([]string, 0, len(doc.AllFeatures))
	for qualified, f := range doc.AllFeatures {
		candidates = append(candidates, qualified)
		for _, a := range f.Attributes {
			candidates = append(candidates, qualified+"."+a.Name)
		}
	}
	return candidates
}

// Revision returns the monotonic revision this snapshot was built at.
func (g *RootGraph) Revision() uint64 { return g.revision }

// Contains reports whether this snapshot has any content for uri.
func (g *RootGraph) Contains(uri string) bool {
	_, ok := g.timestamps[uri]
	return ok
}

// Timestamp returns the per-file timestamp recorded for uri, if known.
func (g *RootGraph) Timestamp(uri string) (time.Time, bool) {
	t, ok := g.timestamps[uri]
	return t, ok
}

// URI returns the document URI a FileID was derived from, so a
// DiagnosticUpdate's per-file error map (keyed by FileID) can be turned
// back into textDocument/publishDiagnostics notifications.
func (g *RootGraph) URI(id fileid.FileID) (string, bool) {
	entry, ok := g.files[id]
	if !ok {
		return "", false
	}
	return entry.uri, true
}

// Cancel marks this snapshot stale; long-running consumers (an SMT
// checker, an inlay-hint pass) are expected to check Cancelled
// periodically and abort cooperatively.
func (g *RootGraph) Cancel() {
	atomic.StoreInt32(&g.cancelled, 1)
}

// Cancelled reports whether Cancel has been called.
func (g *RootGraph) Cancelled() bool {
	return atomic.LoadInt32(&g.cancelled) != 0
}

// Resolve looks up a dotted path starting from file, returning every
// symbol it could denote. The first segment may name an import alias
// declared in file's own AstDocument, in which case resolution
// continues against whichever open file declares that namespace.
func (g *RootGraph) Resolve(file fileid.FileID, names []string) []ResolvedSymbol {
	if len(names) == 0 {
		return nil
	}
	entry, ok := g.files[file]
	if !ok || entry.ast == nil {
		return nil
	}

	target := entry
	rest := names
	if alias, ok := entry.ast.Imports[names[0]]; ok {
		if imported, importedID, ok := g.findNamespace(alias); ok {
			target = imported
			file = importedID
			rest = names[1:]
		}
	}
	if target.ast == nil || len(rest) == 0 {
		return nil
	}

	qualified := strings.Join(rest, ".")
	var out []ResolvedSymbol

	if f, ok := target.ast.AllFeatures[qualified]; ok {
		out = append(out, ResolvedSymbol{File: file, Sym: Symbol{Kind: SymbolFeature, File: file, QualifiedName: f.QualifiedName()}})
	}

	if idx := strings.LastIndex(qualified, "."); idx >= 0 {
		featureName, attrName := qualified[:idx], qualified[idx+1:]
		if f, ok := target.ast.AllFeatures[featureName]; ok {
			for _, a := range f.Attributes {
				if a.Name != attrName {
					continue
				}
				kind := SymbolAttribute
				if a.Number {
					kind = SymbolNumber
				}
				full := featureName + "." + attrName
				out = append(out, ResolvedSymbol{File: file, Sym: Symbol{Kind: kind, File: file, QualifiedName: full}})
			}
		}
	}
	return out
}

func (g *RootGraph) findNamespace(namespace string) (*fileEntry, fileid.FileID, bool) {
	for id, entry := range g.files {
		if entry.ast != nil && entry.ast.Namespace == namespace {
			return entry, id, true
		}
	}
	return nil, 0, false
}

// Owner returns the symbol that syntactically encloses sym: an
// attribute's (or numeric attribute's) owner is its feature; a
// feature's owner is its parent feature. This is the walk color.rs
// drives right-to-left while highlighting a dotted path in a
// constraints expression.
// Owner's SymbolNumber/SymbolAttribute case always lands on a
// SymbolFeature: the AST's Feature.Attributes is a flat list, so there
// is no way to represent an attribute whose own value carries further
// nested attributes. A path like a.b.c where a and b are themselves
// value-bearing (rather than structural features) therefore cannot walk
// all the way to an all-enumMember highlight the way color.rs's nested
// value model does -- the walk in extract.go flips to parameterKind as
// soon as it steps past the first attribute segment. Deliberate
// deviation: modeling nested attribute values would require reworking
// Feature/Attribute into a recursive value tree for a highlighting edge
// case that doesn't affect resolution correctness.
func (g *RootGraph) Owner(sym Symbol) (Symbol, bool) {
	entry, ok := g.files[sym.File]
	if !ok || entry.ast == nil {
		return Symbol{}, false
	}
	switch sym.Kind {
	case SymbolNumber, SymbolAttribute:
		idx := strings.LastIndex(sym.QualifiedName, ".")
		if idx < 0 {
			return Symbol{}, false
		}
		featureName := sym.QualifiedName[:idx]
		if f, ok := entry.ast.AllFeatures[featureName]; ok {
			return Symbol{Kind: SymbolFeature, File: sym.File, QualifiedName: f.QualifiedName()}, true
		}
		return Symbol{}, false
	case SymbolFeature:
		f, ok := entry.ast.AllFeatures[sym.QualifiedName]
		if !ok || f.Parent == nil {
			return Symbol{}, false
		}
		return Symbol{Kind: SymbolFeature, File: sym.File, QualifiedName: f.Parent.QualifiedName()}, true
	default:
		return Symbol{}, false
	}
}
