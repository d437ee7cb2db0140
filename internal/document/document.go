// Package document holds the per-file parse state (Draft) and the
// ownership rule that decides whether an incoming event may replace it.
package document

import (
	"time"

	"github.com/Koenneker/uvl-lsp/internal/parsetree"
	"github.com/Koenneker/uvl-lsp/internal/rope"
)

// Kind distinguishes the two Draft variants. Which Kind a URI gets is
// decided once, by IsConfig, and never changes for the lifetime of a
// draft.
type Kind int

const (
	KindUVL Kind = iota
	KindJSON
)

// Draft is the parse state of one open document: its text, its parse
// tree, and the timestamp of the edit that produced it. The DraftActor
// updates its own working copy in place; Clone hands out independent
// copies to readers.
type Draft struct {
	Kind      Kind
	Source    *rope.Rope
	Tree      *parsetree.Tree
	Timestamp time.Time
}

// Clone returns an independent copy, safe to hand to a Snapshot requester
// while the actor keeps mutating its own working copy.
func (d Draft) Clone() Draft {
	return Draft{
		Kind:      d.Kind,
		Source:    d.Source.Clone(),
		Tree:      d.Tree,
		Timestamp: d.Timestamp,
	}
}

// OwnershipKind distinguishes who last wrote a document.
type OwnershipKind int

const (
	OwnedByEditor OwnershipKind = iota
	OwnedByOS
)

// State is the ownership marker for a document. Editor ownership shadows
// filesystem ownership; among filesystem events, the newer mtime wins.
type State struct {
	Kind OwnershipKind
	Mtime time.Time // only meaningful when Kind == OwnedByOS
}

func Editor() State { return State{Kind: OwnedByEditor} }
func FromOS(mtime time.Time) State { return State{Kind: OwnedByOS, Mtime: mtime} }

// CanUpdate reports whether a document currently in state `cur` may be
// overwritten by an event carrying state `next`.
func (cur State) CanUpdate(next State) bool {
	switch cur.Kind {
	case OwnedByEditor:
		// The editor's copy is authoritative; only another editor event
		// (not a filesystem event) may replace it.
		return next.Kind == OwnedByEditor
	case OwnedByOS:
		if next.Kind == OwnedByEditor {
			return true
		}
		return next.Mtime.After(cur.Mtime)
	default:
		return true
	}
}

// IsConfig is the file-type routing rule: a URI is a JSON configuration
// iff it matches the server's configured config-file rule (by default,
// file extension).
type IsConfig func(uri string) bool

// DefaultIsConfig recognizes ".json" and ".uvl.json" suffixed URIs as
// configuration files; everything else is UVL.
func DefaultIsConfig(uri string) bool {
	for i := len(uri) - 1; i >= 0 && i >= len(uri)-6; i-- {
		if uri[i] == '.' {
			return uri[i:] == ".json"
		}
	}
	return false
}
