package semtok

import (
	"sort"

	"github.com/Koenneker/uvl-lsp/internal/fileid"
	"github.com/Koenneker/uvl-lsp/internal/graph"
	"github.com/Koenneker/uvl-lsp/internal/parsetree"
	"github.com/Koenneker/uvl-lsp/internal/rope"
)

// absToken is one highlighted span in absolute (not delta-encoded)
// UTF-16 coordinates, the Go analogue of color.rs's AbsToken.
type absToken struct {
	startLine, startChar int
	endLine, endChar     int
	kind                 uint32
}

// extract walks every node tree.Parse produced and turns it into zero or
// more absTokens, resolving dotted references against root when the file
// is known to it. file is the FileID the tokens are being computed for;
// it is used to look up the Node's owning file in root for Resolve/Owner
// calls.
func extract(tree *parsetree.Tree, src *rope.Rope, file fileid.FileID, root *graph.RootGraph) []absToken {
	wide := src.WideRows()
	var tokens []absToken

	for _, n := range tree.Nodes {
		if n.IsError {
			continue
		}
		if n.Capture == parsetree.CaptureSomePath {
			tokens = append(tokens, extractPath(n, src, wide, file, root)...)
			continue
		}
		r := fastRange(n, src, wide)
		tokens = append(tokens, absToken{
			startLine: r.startLine, startChar: r.startChar,
			endLine: r.endLine, endChar: r.endChar,
			kind: kindFor(n.Capture),
		})
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].startLine != tokens[j].startLine {
			return tokens[i].startLine < tokens[j].startLine
		}
		return tokens[i].startChar < tokens[j].startChar
	})
	return dedupOverlaps(tokens)
}

// rangeT is a tiny positional type fastRange and the path-segment walk
// return, used only to build absToken literals; it never crosses a
// function boundary.
type rangeT struct {
	startLine, startChar, endLine, endChar int
}

func fastRange(n *parsetree.Node, src *rope.Rope, wide map[int]struct{}) rangeT {
	_, startWide := wide[n.Start.Row]
	_, endWide := wide[n.End.Row]
	if startWide || endWide {
		r := rope.LSPRange(n.Span, src)
		return rangeT{int(r.Start.Line), int(r.Start.Character), int(r.End.Line), int(r.End.Character)}
	}
	// ASCII-only rows: the byte column and the UTF-16 column coincide.
	return rangeT{n.Start.Row, n.Start.Column, n.End.Row, n.End.Column}
}

// extractPath resolves a some_path node's dotted segments against root,
// walking right-to-left through each segment's owner the way
// color.rs's numeric-context branch does, and falls back to a flat
// parameter token when root doesn't know the file yet or the path never
// resolves to a numeric attribute.
func extractPath(n *parsetree.Node, src *rope.Rope, wide map[int]struct{}, file fileid.FileID, root *graph.RootGraph) []absToken {
	fallback := func() []absToken {
		r := fastRange(n, src, wide)
		return []absToken{{startLine: r.startLine, startChar: r.startChar, endLine: r.endLine, endChar: r.endChar, kind: kindFor(parameterKind)}}
	}

	if !n.NumericContext || root == nil || len(n.PathSegments) == 0 {
		return fallback()
	}
	names := make([]string, len(n.PathSegments))
	for i, seg := range n.PathSegments {
		names[i] = seg.Name
	}
	resolved := root.Resolve(file, names)
	var numeric *graph.ResolvedSymbol
	for i := range resolved {
		if resolved[i].Sym.Kind == graph.SymbolNumber {
			numeric = &resolved[i]
			break
		}
	}
	if numeric == nil {
		return fallback()
	}

	out := make([]absToken, 0, len(n.PathSegments))
	sym := &numeric.Sym
	for i := len(n.PathSegments) - 1; i >= 0; i-- {
		seg := n.PathSegments[i]
		span := rope.ByteSpan{Start: seg.Span.Start, End: seg.Span.End}
		var rt rangeT
		if _, w := wide[n.Start.Row]; w {
			r := rope.LSPRange(span, src)
			rt = rangeT{int(r.Start.Line), int(r.Start.Character), int(r.End.Line), int(r.End.Character)}
		} else {
			rt = rangeT{n.Start.Row, seg.Span.Start - src.LineStartByte(n.Start.Row), n.Start.Row, seg.Span.End - src.LineStartByte(n.Start.Row)}
		}

		if sym != nil {
			out = append(out, absToken{startLine: rt.startLine, startChar: rt.startChar, endLine: rt.endLine, endChar: rt.endChar, kind: kindFor(enumMemberKind)})
			owner, ok := root.Owner(*sym)
			if ok && owner.IsValue() {
				sym = &owner
			} else {
				sym = nil
			}
		} else {
			out = append(out, absToken{startLine: rt.startLine, startChar: rt.startChar, endLine: rt.endLine, endChar: rt.endChar, kind: kindFor(parameterKind)})
		}
	}
	return out
}

// dedupOverlaps drops exact duplicates and any token whose start lies
// before the previous (sorted) token's end, mirroring color.rs's
// dedup()+overlap filter. Tokens are expected pre-sorted by position.
func dedupOverlaps(tokens []absToken) []absToken {
	var out []absToken
	for _, t := range tokens {
		if len(out) > 0 {
			last := out[len(out)-1]
			if last == t {
				continue
			}
			if last.endLine > t.startLine {
				continue
			}
			if last.endLine == t.startLine && last.endChar > t.startChar {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}
