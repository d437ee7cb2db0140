package semtok

import (
	"sync"

	"github.com/Koenneker/uvl-lsp/internal/fileid"
	"github.com/Koenneker/uvl-lsp/internal/graph"
	"github.com/Koenneker/uvl-lsp/internal/parsetree"
	"github.com/Koenneker/uvl-lsp/internal/rope"
)

// fileState is the cached result of the last highlight computation for
// one open file, kept only so the next request can delta-encode against
// it.
type fileState struct {
	tokens []semanticToken
}

// Engine computes and caches semantic tokens per open file. One Engine
// is shared by every textDocument/semanticTokens{,/full,/full/delta}
// request handler.
type Engine struct {
	mu    sync.Mutex
	files map[string]fileState
}

// NewEngine returns an empty Engine.
func NewEngine() *Engine {
	return &Engine{files: make(map[string]fileState)}
}

// Full computes (and caches) the complete semantic token stream for uri,
// the wire format a textDocument/semanticTokens/full response carries
// verbatim as its Data field.
func (e *Engine) Full(uri string, tree *parsetree.Tree, src *rope.Rope, root *graph.RootGraph) []uint32 {
	state := e.compute(uri, tree, src, root)
	return flatten(state.tokens)
}

// DeltaResult is what textDocument/semanticTokens/full/delta returns:
// either Full (no prior state existed for this uri) or Edits against
// whatever the last Full/Delta call computed.
type DeltaResult struct {
	Full  []uint32
	Edits []Edit
}

// Delta computes uri's current tokens and diffs them against the state
// cached by the previous Full/Delta call for the same uri.
func (e *Engine) Delta(uri string, tree *parsetree.Tree, src *rope.Rope, root *graph.RootGraph) DeltaResult {
	e.mu.Lock()
	old, hadOld := e.files[uri]
	e.mu.Unlock()

	state := e.compute(uri, tree, src, root)
	if !hadOld {
		return DeltaResult{Full: flatten(state.tokens)}
	}
	return DeltaResult{Edits: diff(old.tokens, state.tokens)}
}

// Forget drops uri's cached state, called when a document closes.
func (e *Engine) Forget(uri string) {
	e.mu.Lock()
	delete(e.files, uri)
	e.mu.Unlock()
}

func (e *Engine) compute(uri string, tree *parsetree.Tree, src *rope.Rope, root *graph.RootGraph) fileState {
	file := fileid.New(uri)
	abs := extract(tree, src, file, root)
	tokens := encode(abs, func(line int) uint32 { return uint32(src.UTF16Len(line)) })
	state := fileState{tokens: tokens}

	e.mu.Lock()
	e.files[uri] = state
	e.mu.Unlock()
	return state
}
