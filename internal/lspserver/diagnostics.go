package lspserver

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Koenneker/uvl-lsp/internal/graph"
)

// diagnosticFanoutLimit bounds how many textDocument/publishDiagnostics
// notifications are in flight at once per RootGraph rebuild, the same
// bounded-parallelism shape as the teacher's errgroup.SetLimit use in
// its own concurrent request tests.
const diagnosticFanoutLimit = 10

// notifyWaitInterval is how often RunDiagnostics checks whether a
// glsp.Context has become available yet, before the client's first
// request (Initialize) has arrived.
const notifyWaitInterval = 20 * time.Millisecond

// RunDiagnostics drains Pipeline.Diagnostics() until ctx is cancelled,
// publishing one textDocument/publishDiagnostics notification per file
// with a non-empty error list for each DiagnosticUpdate. It blocks and
// is meant to run in its own goroutine for the lifetime of the server
// process, started alongside the transport loop.
func (h *Handler) RunDiagnostics(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-h.pipeline.Diagnostics():
			if !ok {
				return
			}
			h.publishBatch(ctx, update)
		}
	}
}

func (h *Handler) publishBatch(ctx context.Context, update graph.DiagnosticUpdate) {
	notifyCtx, ok := h.waitForNotifyContext(ctx)
	if !ok {
		return
	}

	root, err := h.pipeline.SyncRoot(ctx, func(g *graph.RootGraph) bool { return g.Revision() >= update.Revision })
	if err != nil {
		h.logger.Warnw("diagnostics: giving up waiting for RootGraph", "revision", update.Revision, "error", err)
		return
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(diagnosticFanoutLimit)

	for id, errs := range update.ErrorsAcc.Errors {
		id, errs := id, errs
		g.Go(func() error {
			uri, ok := root.URI(id)
			if !ok {
				return nil
			}
			publishOne(notifyCtx, uri, errs)
			return nil
		})
	}
	_ = g.Wait()
}

func publishOne(notifyCtx *glsp.Context, uri string, errs []error) {
	diags := make([]protocol.Diagnostic, 0, len(errs))
	for _, e := range errs {
		diags = append(diags, toDiagnostic(e))
	}
	notifyCtx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

func (h *Handler) waitForNotifyContext(ctx context.Context) (*glsp.Context, bool) {
	for {
		h.notifyMu.Lock()
		nc := h.notifyCtx
		h.notifyMu.Unlock()
		if nc != nil {
			return nc, true
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(notifyWaitInterval):
		}
	}
}
