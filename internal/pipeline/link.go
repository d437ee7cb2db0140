package pipeline

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Koenneker/uvl-lsp/internal/ast"
	"github.com/Koenneker/uvl-lsp/internal/configdoc"
	"github.com/Koenneker/uvl-lsp/internal/debug"
	"github.com/Koenneker/uvl-lsp/internal/fileid"
	"github.com/Koenneker/uvl-lsp/internal/graph"
)

// debounceInterval is how often the link actor checks whether it has
// accumulated updates worth rebuilding a RootGraph for, matching
// pipeline.rs's 100ms interval timer.
const debounceInterval = 100 * time.Millisecond

// linkActor fans in every open document's latest AstDocument/
// ConfigDocument, debounces bursts of edits, and republishes a RootGraph
// to root once per settled burst.
type linkActor struct {
	inbox linkInbox

	root  *rootWatch
	diag  chan graph.DiagnosticUpdate
	onEnd chan struct{}

	// eg owns the run/executor goroutine pair. Grounded on the
	// teacher's concurrent_operations.go preferring an errgroup.Group
	// over bare `go` so Pipeline.Shutdown has something to wait on
	// instead of guessing how long the second stage needs to drain.
	eg *errgroup.Group

	revision uint64
}

func newLinkActor() (*linkActor, <-chan graph.DiagnosticUpdate) {
	diag := make(chan graph.DiagnosticUpdate, 64)
	l := &linkActor{
		inbox: linkInbox{
			ast:    make(chan astUpdate, 256),
			config: make(chan configUpdate, 256),
			delete: make(chan deleteUpdate, 256),
		},
		root:  newRootWatch(graph.Empty()),
		diag:  diag,
		onEnd: make(chan struct{}),
		eg:    &errgroup.Group{},
	}
	return l, diag
}

// start launches run under eg and returns at once; run starts the
// executor in the same group. wait is what blocks until both return.
func (l *linkActor) start() {
	l.eg.Go(func() error {
		l.run()
		return nil
	})
}

// wait blocks until run and executor have both returned, i.e. until the
// inbox has been closed and the executor has drained its last batch.
func (l *linkActor) wait() {
	_ = l.eg.Wait()
}

func (l *linkActor) run() {
	latestAST := make(map[fileid.FileID]*ast.AstDocument)
	latestConfig := make(map[fileid.FileID]*configdoc.ConfigDocument)
	timestamps := make(map[string]time.Time) // uri -> last accepted timestamp

	execute := make(chan executeBatch, 1)
	l.eg.Go(func() error {
		l.executor(execute)
		return nil
	})

	ticker := time.NewTicker(debounceInterval)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case u, ok := <-l.inbox.ast:
			if !ok {
				close(execute)
				return
			}
			if accepted(timestamps, u.uri, u.doc.Timestamp) {
				latestAST[fileid.New(u.uri)] = u.doc
			}
			l.revision++
			dirty = true
		case u := <-l.inbox.config:
			if accepted(timestamps, u.uri, u.doc.Timestamp) {
				latestConfig[fileid.New(u.uri)] = u.doc
			}
			l.revision++
			dirty = true
		case d := <-l.inbox.delete:
			if accepted(timestamps, d.uri, d.timestamp) {
				id := fileid.New(d.uri)
				delete(latestAST, id)
				delete(latestConfig, id)
			}
			l.revision++
			dirty = true
		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			batch := executeBatch{
				asts:     cloneAstMap(latestAST),
				configs:  cloneConfigMap(latestConfig),
				revision: l.revision,
			}
			select {
			case execute <- batch:
			default:
				// Executor still busy with a prior batch; drop this one,
				// the next tick will carry a superset forward since dirty
				// was already consumed -- so force it dirty again.
				dirty = true
			}
		}
	}
}

// accepted applies the staleness rule shared by every kind of update:
// reject anything not strictly newer than what a URI last published.
func accepted(timestamps map[string]time.Time, uri string, ts time.Time) bool {
	if old, ok := timestamps[uri]; ok && !old.Before(ts) {
		return false
	}
	timestamps[uri] = ts
	return true
}

func cloneAstMap(m map[fileid.FileID]*ast.AstDocument) map[fileid.FileID]*ast.AstDocument {
	out := make(map[fileid.FileID]*ast.AstDocument, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneConfigMap(m map[fileid.FileID]*configdoc.ConfigDocument) map[fileid.FileID]*configdoc.ConfigDocument {
	out := make(map[fileid.FileID]*configdoc.ConfigDocument, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type executeBatch struct {
	asts     map[fileid.FileID]*ast.AstDocument
	configs  map[fileid.FileID]*configdoc.ConfigDocument
	revision uint64
}

// executor is the second stage of the link actor: it turns a settled
// batch into a RootGraph, off the hot path that drains the inbox, so a
// slow RootGraph build never stalls staleness bookkeeping. Mirrors
// link_executor's watch-channel handoff in the original pipeline.
func (l *linkActor) executor(batches <-chan executeBatch) {
	perFileTimestamps := make(map[fileid.FileID]time.Time)
	for batch := range batches {
		if old, _ := l.root.get(); old != nil {
			old.Cancel()
		}
		start := time.Now()
		root, errs := graph.New(batch.asts, batch.configs, batch.revision, perFileTimestamps)
		debug.LogLink("rebuilt RootGraph revision %d from %d files in %s", batch.revision, len(batch.asts)+len(batch.configs), time.Since(start))
		l.root.set(root)
		l.diag <- graph.DiagnosticUpdate{Revision: batch.revision, ErrorsAcc: errs}
	}
	close(l.onEnd)
}
