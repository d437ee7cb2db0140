package lspserver

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Koenneker/uvl-lsp/internal/debug"
	"github.com/Koenneker/uvl-lsp/internal/semtok"
)

// TextDocumentSemanticTokensFull answers textDocument/semanticTokens/full
// with the complete token stream for uri's current draft, synced against
// whatever RootGraph has observed that draft's timestamp so dotted-path
// highlighting (spec.md §4.3) sees cross-file symbols from the latest
// edit rather than a stale snapshot.
func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (result *protocol.SemanticTokens, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("panic in semantic tokens handler", "panic", r, "uri", params.TextDocument.URI)
			result = &protocol.SemanticTokens{Data: []uint32{}}
			err = nil
		}
	}()

	uri := string(params.TextDocument.URI)
	rctx, cancel := h.requestContext()
	defer cancel()

	draft, root, ok, snapErr := h.pipeline.Snapshot(rctx, uri, true)
	if snapErr != nil || !ok {
		return &protocol.SemanticTokens{Data: []uint32{}}, nil
	}

	data := h.engine.Full(uri, draft.Tree, draft.Source, root)
	debug.LogSemanticTokens("%s: full, %d values", uri, len(data))
	h.logger.Debugw("semantic tokens full", "uri", uri, "values", len(data))
	return &protocol.SemanticTokens{Data: data}, nil
}

// TextDocumentSemanticTokensFullDelta answers
// textDocument/semanticTokens/full/delta. glsp's result type is the
// union LSP itself specifies (SemanticTokens | SemanticTokensDelta); we
// return whichever semtok.Engine.Delta produced, boxed as any the same
// way every other Go LSP binding in the pack represents this union.
func (h *Handler) TextDocumentSemanticTokensFullDelta(ctx *glsp.Context, params *protocol.SemanticTokensDeltaParams) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("panic in semantic tokens delta handler", "panic", r, "uri", params.TextDocument.URI)
			result = &protocol.SemanticTokens{Data: []uint32{}}
			err = nil
		}
	}()

	uri := string(params.TextDocument.URI)
	rctx, cancel := h.requestContext()
	defer cancel()

	draft, root, ok, snapErr := h.pipeline.Snapshot(rctx, uri, true)
	if snapErr != nil || !ok {
		return &protocol.SemanticTokens{Data: []uint32{}}, nil
	}

	delta := h.engine.Delta(uri, draft.Tree, draft.Source, root)
	debug.LogSemanticTokens("%s: delta, %d edits (full=%v)", uri, len(delta.Edits), delta.Full != nil)
	h.logger.Debugw("semantic tokens delta", "uri", uri, "edits", len(delta.Edits), "full", delta.Full != nil)

	if delta.Full != nil {
		return &protocol.SemanticTokens{Data: delta.Full}, nil
	}
	return &protocol.SemanticTokensDelta{Edits: convertEdits(delta.Edits)}, nil
}

// convertEdits scales semtok's token-counted edit offsets to the wire's
// uint32 offsets: every token occupies five values of the Data array.
func convertEdits(edits []semtok.Edit) []protocol.SemanticTokensEdit {
	out := make([]protocol.SemanticTokensEdit, len(edits))
	for i, e := range edits {
		out[i] = protocol.SemanticTokensEdit{
			Start:       e.Start * 5,
			DeleteCount: e.DeleteCount * 5,
			Data:        e.Data,
		}
	}
	return out
}
