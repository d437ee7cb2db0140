package lspserver

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Koenneker/uvl-lsp/internal/document"
	"github.com/Koenneker/uvl-lsp/internal/logging"
	"github.com/Koenneker/uvl-lsp/internal/pipeline"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	logger, err := logging.New("error")
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	p := pipeline.New(document.DefaultIsConfig)
	t.Cleanup(p.Shutdown)
	return New(p, logger)
}

func TestInitialize_AdvertisesSemanticTokensLegend(t *testing.T) {
	h := newTestHandler(t)

	raw, err := h.Initialize(nil, &protocol.InitializeParams{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	result, ok := raw.(protocol.InitializeResult)
	if !ok {
		t.Fatalf("expected protocol.InitializeResult, got %T", raw)
	}
	if result.Capabilities.SemanticTokensProvider == nil {
		t.Fatalf("expected SemanticTokensProvider to be set")
	}
	opts, ok := result.Capabilities.SemanticTokensProvider.(*protocol.SemanticTokensOptions)
	if !ok {
		t.Fatalf("expected *protocol.SemanticTokensOptions, got %T", result.Capabilities.SemanticTokensProvider)
	}
	if len(opts.Legend.TokenTypes) != 11 {
		t.Errorf("expected 11 token types in legend, got %d", len(opts.Legend.TokenTypes))
	}
}

func TestDidOpenThenSemanticTokensFull(t *testing.T) {
	h := newTestHandler(t)
	uri := "file:///a.uvl"

	if err := h.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:  uri,
			Text: "namespace A\n\nfeatures\n\tRoot\n\t\tmandatory\n\t\t\tLogging\n",
		},
	}); err != nil {
		t.Fatalf("TextDocumentDidOpen: %v", err)
	}

	result, err := h.TextDocumentSemanticTokensFull(nil, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		t.Fatalf("TextDocumentSemanticTokensFull: %v", err)
	}
	if len(result.Data)%5 != 0 {
		t.Fatalf("expected a multiple of 5 uint32 per token, got %d values", len(result.Data))
	}
	if len(result.Data) == 0 {
		t.Fatalf("expected at least one token for a namespace + feature file")
	}
}

func TestDidCloseForgetsCachedTokens(t *testing.T) {
	h := newTestHandler(t)
	uri := "file:///b.uvl"

	_ = h.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: "namespace B\n"},
	})
	_, _ = h.TextDocumentSemanticTokensFull(nil, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})

	if err := h.TextDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}); err != nil {
		t.Fatalf("TextDocumentDidClose: %v", err)
	}

	if _, ok := h.pipeline.SnapshotDraft(uri); ok {
		t.Errorf("expected draft to be gone after DidClose")
	}
}

func TestSemanticTokensFull_UnknownURIReturnsEmpty(t *testing.T) {
	h := newTestHandler(t)

	result, err := h.TextDocumentSemanticTokensFull(nil, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///never-opened.uvl"},
	})
	if err != nil {
		t.Fatalf("TextDocumentSemanticTokensFull: %v", err)
	}
	if len(result.Data) != 0 {
		t.Errorf("expected empty data for an unopened document, got %v", result.Data)
	}
}
