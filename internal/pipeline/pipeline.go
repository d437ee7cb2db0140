package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Koenneker/uvl-lsp/internal/document"
	"github.com/Koenneker/uvl-lsp/internal/errors"
	"github.com/Koenneker/uvl-lsp/internal/graph"
)

// openDoc tracks one open document's actor handle and ownership state,
// the Go analogue of DraftState + the DashMap<Url, DraftState> it lives
// in.
type openDoc struct {
	actor     *draftActor
	state     document.State
	timestamp time.Time
}

// Pipeline is the process-wide façade: Open/Update/Delete feed draft
// actors, snapshot/sync methods read back the current RootGraph. One
// Pipeline is constructed per server instance and shared by every LSP
// request handler.
type Pipeline struct {
	mu     sync.Mutex
	drafts map[string]*openDoc

	link *linkActor

	isConfig document.IsConfig

	revisionCounter atomic.Uint64

	dirtyTree *signal

	diagnostics <-chan graph.DiagnosticUpdate
}

// New builds a Pipeline and starts its link actor. isConfig decides,
// once per URI at Open time, whether that document parses as UVL or as a
// JSON configuration; pass document.DefaultIsConfig unless the server's
// own .uvls.kdl overrides the routing rule.
func New(isConfig document.IsConfig) *Pipeline {
	link, diag := newLinkActor()
	p := &Pipeline{
		drafts:      make(map[string]*openDoc),
		link:        link,
		isConfig:    isConfig,
		dirtyTree:   newSignal(),
		diagnostics: diag,
	}
	link.start()
	return p
}

// Shutdown stops every open draft actor and the link actor, then blocks
// until the link actor's run/executor pair has fully drained. Pipeline
// is not usable afterwards.
func (p *Pipeline) Shutdown() {
	p.mu.Lock()
	for _, d := range p.drafts {
		d.actor.inbox <- draftMsg{kind: draftShutdown}
	}
	p.drafts = make(map[string]*openDoc)
	p.mu.Unlock()
	close(p.link.inbox.ast)
	p.link.wait()
}

// Diagnostics returns the channel DiagnosticUpdates are published to,
// one per RootGraph rebuild.
func (p *Pipeline) Diagnostics() <-chan graph.DiagnosticUpdate { return p.diagnostics }

// CurrentRevision reports the number of open/update/delete calls
// accepted so far, without waiting for the RootGraph to catch up to
// any of them. A caller that needs the RootGraph itself to reflect a
// particular revision should use SyncRoot instead.
func (p *Pipeline) CurrentRevision() uint64 { return p.revisionCounter.Load() }

// SubscribeDirtyTree returns a channel that receives a value every time
// the set of open documents changes (open/update/delete), for a
// workspace-wide "something changed" notifier independent of the slower
// RootGraph rebuild.
func (p *Pipeline) SubscribeDirtyTree() <-chan struct{} { return p.dirtyTree.subscribe() }

// Touch re-triggers reparse/relink for uri without changing its text,
// used after a workspace-config change that might affect how a file
// resolves even though its own bytes didn't move.
func (p *Pipeline) Touch(uri string) {
	p.Update(uri, nil)
}

// Open starts a new draft actor for uri, or replaces the existing one if
// state is allowed to supersede the current owner (see document.State).
func (p *Pipeline) Open(uri, text string, state document.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, ok := p.drafts[uri]
	if ok && !existing.state.CanUpdate(state) {
		return
	}
	if ok {
		existing.actor.inbox <- draftMsg{kind: draftShutdown}
	}

	ts := time.Now()
	p.revisionCounter.Add(1)
	p.dirtyTree.fire()
	actor := newDraftActor(uri, text, ts, p.isConfig, p.link.inbox)
	p.drafts[uri] = &openDoc{actor: actor, state: state, timestamp: ts}
}

// ShouldLoad reports whether a filesystem event with the given mtime is
// allowed to load uri -- false when the editor already owns a newer
// copy.
func (p *Pipeline) ShouldLoad(uri string, mtime time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.drafts[uri]
	if !ok {
		return true
	}
	return d.state.CanUpdate(document.FromOS(mtime))
}

// Stat reports the last-write timestamp and ownership state of an open
// document.
func (p *Pipeline) Stat(uri string) (time.Time, document.State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.drafts[uri]
	if !ok {
		return time.Time{}, document.State{}, false
	}
	return d.timestamp, d.state, true
}

// Delete removes uri's draft actor if state is allowed to supersede its
// current owner.
func (p *Pipeline) Delete(uri string, state document.State) {
	p.mu.Lock()
	d, ok := p.drafts[uri]
	if ok && !d.state.CanUpdate(state) {
		p.mu.Unlock()
		return
	}
	if ok {
		delete(p.drafts, uri)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	p.revisionCounter.Add(1)
	p.dirtyTree.fire()
	d.actor.inbox <- draftMsg{kind: draftDelete, timestamp: time.Now()}
}

// Update applies content changes to uri's draft. changes is a slice of
// protocol.TextDocumentContentChangeEvent/…Whole values; nil re-parses
// the current text unchanged (used by Touch).
func (p *Pipeline) Update(uri string, changes []interface{}) {
	ts := time.Now()
	p.mu.Lock()
	d, ok := p.drafts[uri]
	if ok {
		d.timestamp = ts
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	p.revisionCounter.Add(1)
	p.dirtyTree.fire()
	d.actor.inbox <- draftMsg{kind: draftUpdate, changes: changes, timestamp: ts}
}

// SnapshotDraft returns a copy of uri's current parse state, or false if
// uri is not open.
func (p *Pipeline) SnapshotDraft(uri string) (document.Draft, bool) {
	p.mu.Lock()
	d, ok := p.drafts[uri]
	p.mu.Unlock()
	if !ok {
		return document.Draft{}, false
	}
	reply := make(chan document.Draft, 1)
	d.actor.inbox <- draftMsg{kind: draftSnapshot, reply: reply}
	return <-reply, true
}

// SnapshotRoot blocks until the current RootGraph contains uri, then
// returns it.
func (p *Pipeline) SnapshotRoot(ctx context.Context, uri string) (*graph.RootGraph, error) {
	return p.syncRoot(ctx, func(g *graph.RootGraph) bool { return g.Contains(uri) })
}

// SnapshotRootSync blocks until the RootGraph has observed a timestamp
// for uri at least as new as ts.
func (p *Pipeline) SnapshotRootSync(ctx context.Context, uri string, ts time.Time) (*graph.RootGraph, error) {
	return p.syncRoot(ctx, func(g *graph.RootGraph) bool {
		t, ok := g.Timestamp(uri)
		return ok && !ts.After(t)
	})
}

// SyncRootGlobal blocks until the published RootGraph's revision has
// caught up with every Open/Update/Delete issued so far.
func (p *Pipeline) SyncRootGlobal(ctx context.Context) (*graph.RootGraph, error) {
	target := p.revisionCounter.Load()
	return p.syncRoot(ctx, func(g *graph.RootGraph) bool { return target <= g.Revision() })
}

// SyncRoot blocks until pred holds for the published RootGraph.
func (p *Pipeline) SyncRoot(ctx context.Context, pred func(*graph.RootGraph) bool) (*graph.RootGraph, error) {
	return p.syncRoot(ctx, pred)
}

func (p *Pipeline) syncRoot(ctx context.Context, pred func(*graph.RootGraph) bool) (*graph.RootGraph, error) {
	for {
		g, changed := p.link.root.get()
		if pred(g) {
			return g, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, errors.NewFileError("sync", "", ctx.Err())
		}
	}
}

// Snapshot pairs a draft snapshot with a RootGraph: sync=true waits for
// the RootGraph to reflect this exact draft's timestamp, sync=false only
// waits for the RootGraph to mention uri at all (faster, slightly stale).
func (p *Pipeline) Snapshot(ctx context.Context, uri string, sync bool) (document.Draft, *graph.RootGraph, bool, error) {
	draft, ok := p.SnapshotDraft(uri)
	if !ok {
		return document.Draft{}, nil, false, nil
	}
	var root *graph.RootGraph
	var err error
	if sync {
		root, err = p.SnapshotRootSync(ctx, uri, draft.Timestamp)
	} else {
		root, err = p.SnapshotRoot(ctx, uri)
	}
	if err != nil {
		return document.Draft{}, nil, false, err
	}
	return draft, root, true, nil
}
