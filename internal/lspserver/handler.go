// Package lspserver wires the Pipeline and the semantic-token Engine to
// the LSP wire protocol over github.com/tliron/glsp. Grounded on
// teranos-QNTX/server/lsp_handler.go's GLSPHandler: the same
// Initialize/Initialized/Shutdown and
// TextDocumentDidOpen/DidChange/DidClose/SemanticTokensFull method set,
// the same panic-recovery-in-handler pattern, and the same zap
// SugaredLogger used for request logging. Neither Pipeline nor Engine
// import glsp themselves; besides this package, only internal/rope does,
// for the protocol.Range values it builds and the didChange content-change
// events it applies (which Pipeline.Update passes through untyped).
package lspserver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Koenneker/uvl-lsp/internal/document"
	"github.com/Koenneker/uvl-lsp/internal/pipeline"
	"github.com/Koenneker/uvl-lsp/internal/semtok"
	"github.com/Koenneker/uvl-lsp/internal/version"
)

// requestTimeout bounds how long a request handler waits for the
// pipeline's RootGraph to settle before answering, so a stuck client
// edit never hangs textDocument/semanticTokens forever.
const requestTimeout = 2 * time.Second

// Name and Version identify this server to clients during Initialize.
const (
	Name    = "uvls"
	Version = version.Version
)

// Handler implements the glsp protocol.Handler function set for the UVL
// feature-modeling language. One Handler is constructed per server
// process and shared by every connection glsp hands it.
type Handler struct {
	pipeline *pipeline.Pipeline
	engine   *semtok.Engine
	logger   *zap.SugaredLogger

	// notifyCtx is the glsp.Context captured from the first request the
	// client sends (Initialize). Its Notify function is connection-scoped,
	// not request-scoped, so RunDiagnostics reuses it to push
	// textDocument/publishDiagnostics notifications the client never
	// explicitly asked for.
	notifyMu  sync.Mutex
	notifyCtx *glsp.Context
}

// New builds a Handler wired to an already-running Pipeline and a fresh
// semantic-token Engine.
func New(p *pipeline.Pipeline, logger *zap.SugaredLogger) *Handler {
	return &Handler{pipeline: p, engine: semtok.NewEngine(), logger: logger}
}

// Initialize answers the client's capability negotiation with the
// subset of the protocol this server implements: full document sync
// and semantic tokens. Completion, hover, and the other collaborators
// spec.md §1 names as out-of-scope are not advertised.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	h.logger.Infow("client initializing", "client", params.ClientInfo)
	h.notifyMu.Lock()
	h.notifyCtx = ctx
	h.notifyMu.Unlock()

	syncKind := protocol.TextDocumentSyncKindFull
	full := true
	version := Version

	capabilities := protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: &full,
			Change:    &syncKind,
		},
		SemanticTokensProvider: &protocol.SemanticTokensOptions{
			Legend: protocol.SemanticTokensLegend{
				TokenTypes:     semtok.TokenTypes(),
				TokenModifiers: []string{},
			},
			Full: true,
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

// Initialized is a no-op acknowledgement, matching the teacher's
// handler (nothing needs the client's registration confirmations).
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	h.logger.Infow("client initialized")
	return nil
}

// Shutdown drains the pipeline so no draft/link goroutine outlives the
// LSP session.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	h.logger.Infow("client shutting down")
	h.pipeline.Shutdown()
	return nil
}

// TextDocumentDidOpen opens uri at the text the editor currently holds,
// with editor ownership (spec.md §5's DraftState ownership rule).
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	h.pipeline.Open(uri, params.TextDocument.Text, document.Editor())
	h.logger.Debugw("document opened", "uri", uri, "length", len(params.TextDocument.Text))
	return nil
}

// TextDocumentDidChange forwards the editor's content changes straight
// to Pipeline.Update. Under the full document sync Initialize advertises,
// each change carries the whole text and replaces the draft's rope; a
// change that carries a range is spliced into the rope in place.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	h.pipeline.Update(uri, params.ContentChanges)
	h.logger.Debugw("document changed", "uri", uri, "changes", len(params.ContentChanges))
	return nil
}

// TextDocumentDidClose releases uri's draft actor and forgets its cached
// semantic tokens.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	h.pipeline.Delete(uri, document.Editor())
	h.engine.Forget(uri)
	h.logger.Debugw("document closed", "uri", uri)
	return nil
}

func (h *Handler) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
