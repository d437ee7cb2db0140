// Package pipeline is the actor-model core: one DraftActor goroutine per
// open document feeds a single LinkActor goroutine, which republishes a
// RootGraph every time the set of open documents settles. Grounded on
// original_source/uvls/src/pipeline.rs's draft_handler/link_handler pair,
// translated from tokio mpsc/watch/broadcast channels to plain Go
// channels and a small watch primitive (watch.go).
package pipeline

import (
	"time"

	"github.com/Koenneker/uvl-lsp/internal/ast"
	"github.com/Koenneker/uvl-lsp/internal/configdoc"
	"github.com/Koenneker/uvl-lsp/internal/debug"
	"github.com/Koenneker/uvl-lsp/internal/document"
	"github.com/Koenneker/uvl-lsp/internal/parsetree"
	"github.com/Koenneker/uvl-lsp/internal/rope"
)

// draftMsg is the DraftActor mailbox message, mirroring DraftMsg in the
// original pipeline. Exactly one of the typed fields is meaningful,
// selected by kind.
type draftMsgKind int

const (
	draftUpdate draftMsgKind = iota
	draftDelete
	draftSnapshot
	draftShutdown
)

type draftMsg struct {
	kind      draftMsgKind
	changes   []interface{}
	timestamp time.Time
	reply     chan document.Draft // only for draftSnapshot
}

// astUpdate and configUpdate are what a DraftActor hands to the LinkActor
// every time it reparses: one or the other, by the document's kind, on
// the link inbox's ast or config channel.
type astUpdate struct {
	uri string
	doc *ast.AstDocument
}

type configUpdate struct {
	uri string
	doc *configdoc.ConfigDocument
}

type deleteUpdate struct {
	uri       string
	timestamp time.Time
}

// linkInbox is the LinkActor's mailbox; only the DraftActor and Pipeline
// write to it.
type linkInbox struct {
	ast    chan astUpdate
	config chan configUpdate
	delete chan deleteUpdate
}

// draftActor owns one open document's Draft and serializes every edit to
// it through its mailbox. Reparsing happens synchronously on the actor's
// own goroutine after each message, then it fans the new red tree out to
// the link actor from a short-lived helper goroutine so a slow link
// executor never backs up typing.
type draftActor struct {
	uri      string
	isConfig document.IsConfig
	inbox    chan draftMsg
	link     linkInbox
}

func newDraftActor(uri, initialText string, ts time.Time, isConfig document.IsConfig, link linkInbox) *draftActor {
	a := &draftActor{uri: uri, isConfig: isConfig, inbox: make(chan draftMsg, 64), link: link}
	draft := a.initialDraft(initialText, ts)
	go a.run(draft)
	return a
}

func (a *draftActor) initialDraft(text string, ts time.Time) document.Draft {
	src := rope.New(text)
	if a.isConfig(a.uri) {
		return document.Draft{Kind: document.KindJSON, Source: src, Tree: parsetree.ParseJSON(src, nil), Timestamp: ts}
	}
	return document.Draft{Kind: document.KindUVL, Source: src, Tree: parsetree.Parse(src, nil), Timestamp: ts}
}

func (a *draftActor) run(draft document.Draft) {
	publish := func(d document.Draft) {
		go a.makeRedTree(d.Clone())
	}
	publish(draft)

	for msg := range a.inbox {
		switch msg.kind {
		case draftShutdown:
			debug.LogDraft("%s: shutting down", a.uri)
			return
		case draftDelete:
			debug.LogDraft("%s: deleted", a.uri)
			a.link.delete <- deleteUpdate{uri: a.uri, timestamp: msg.timestamp}
			return
		case draftSnapshot:
			msg.reply <- draft.Clone()
		case draftUpdate:
			previousTree := draft.Tree
			wholeFile, _ := rope.UpdateText(draft.Source, msg.changes)
			if wholeFile {
				previousTree = nil
			}
			draft.Timestamp = msg.timestamp
			start := time.Now()
			if draft.Kind == document.KindJSON {
				draft.Tree = parsetree.ParseJSON(draft.Source, previousTree)
			} else {
				draft.Tree = parsetree.Parse(draft.Source, previousTree)
			}
			debug.LogDraft("%s: reparsed in %s (incremental=%v)", a.uri, time.Since(start), !wholeFile)
			publish(draft)
		}
	}
}

// makeRedTree reparses draft into its typed document (AstDocument or
// ConfigDocument) and forwards it to the link actor. Named after
// make_red_tree in the original pipeline: "red tree" is rowan/rust-analyzer
// terminology for an immutable, fully-positioned syntax tree.
func (a *draftActor) makeRedTree(draft document.Draft) {
	switch draft.Kind {
	case document.KindUVL:
		doc := ast.VisitRoot(draft.Source, draft.Tree, a.uri, draft.Timestamp)
		a.link.ast <- astUpdate{uri: a.uri, doc: doc}
	case document.KindJSON:
		doc := configdoc.Parse(draft.Tree, draft.Source, a.uri, draft.Timestamp)
		a.link.config <- configUpdate{uri: a.uri, doc: doc}
	}
}
