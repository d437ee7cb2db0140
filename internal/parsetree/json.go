package parsetree

import (
	"encoding/json"

	"github.com/Koenneker/uvl-lsp/internal/rope"
)

// ParseJSON reads a companion JSON configuration document into a Tree.
// Like Parse, it is pure and ignores previous beyond its type signature.
// Highlighting is not a concern for config files (spec.md scopes semantic
// tokens to the UVL grammar); this reader's job is only to surface
// whether the document is well-formed JSON, which check_errors-equivalent
// logic in internal/configdoc turns into diagnostics.
func ParseJSON(src *rope.Rope, previous *Tree) *Tree {
	t := &Tree{}
	var raw interface{}
	text := src.String()
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		if se, ok := err.(*json.SyntaxError); ok {
			p := src.ByteToPoint(int(se.Offset))
			t.appendError(int(se.Offset), 1, p.Row, "invalid JSON: "+err.Error())
		} else {
			t.appendError(0, len(text), 0, "invalid JSON: "+err.Error())
		}
	}
	return t
}
