// Package semtok turns a parsed UVL file plus its RootGraph into LSP
// semantic tokens: the 11-kind highlight extraction, dotted-path
// resolution, and the prefix/suffix delta algorithm are all grounded on
// original_source/src/color.rs's FileState::new/diff. Nothing here
// imports glsp's protocol types -- Engine.Full returns the flat LSP wire
// format ([]uint32), and Engine.Delta returns an edit list whose Start and
// DeleteCount count whole tokens. A transport layer folds these into its
// own SemanticTokens/SemanticTokensDelta struct at the boundary, scaling
// the edit offsets to the wire's five values per token.
package semtok

import "github.com/Koenneker/uvl-lsp/internal/parsetree"

// kindOrder is the fixed legend spec.md §4.3 requires: this slice's
// index is the wire token_type value, and TokenTypes() below is exactly
// the SemanticTokensLegend.TokenTypes a server advertises at Initialize.
var kindOrder = []parsetree.Capture{
	parsetree.CaptureKeyword,
	parsetree.CaptureOperator,
	parsetree.CaptureNamespace,
	parsetree.CaptureEnumMember,
	parsetree.CaptureClass,
	parsetree.CaptureComment,
	parsetree.CaptureEnum,
	parsetree.CaptureInterface,
	parsetree.CaptureFunction,
	parsetree.CaptureMacro,
	parsetree.CaptureParameter,
}

var kindIndex = func() map[parsetree.Capture]uint32 {
	m := make(map[parsetree.Capture]uint32, len(kindOrder))
	for i, c := range kindOrder {
		m[c] = uint32(i)
	}
	return m
}()

// TokenTypes returns the legend's token type names in wire order.
func TokenTypes() []string {
	out := make([]string, len(kindOrder))
	for i, c := range kindOrder {
		out[i] = string(c)
	}
	return out
}

// parameterKind and enumMemberKind are referenced by name, not just by
// table lookup, because the dotted-path resolution walk in extract.go
// chooses between them based on what a symbol resolves to rather than
// the capture name alone.
const (
	parameterKind  = parsetree.CaptureParameter
	enumMemberKind = parsetree.CaptureEnumMember
)

func kindFor(c parsetree.Capture) uint32 {
	if idx, ok := kindIndex[c]; ok {
		return idx
	}
	// Unrecognized captures fall back to the legend's first entry
	// (keyword), matching color.rs's token_index default of 0 rather
	// than picking some other specific kind out of the table.
	return 0
}
