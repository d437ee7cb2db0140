package pipeline

import (
	"sync"

	"github.com/Koenneker/uvl-lsp/internal/graph"
)

// rootWatch is a single-slot broadcast cell: the last published RootGraph
// plus a channel that is closed (and replaced) every time a new value is
// published. It gives Go callers the same borrow_and_update/changed loop
// tokio::sync::watch gives the original pipeline, without needing an
// external dependency for one value.
type rootWatch struct {
	mu      sync.Mutex
	value   *graph.RootGraph
	changed chan struct{}
}

func newRootWatch(initial *graph.RootGraph) *rootWatch {
	return &rootWatch{value: initial, changed: make(chan struct{})}
}

// get returns the current value together with a channel that closes the
// next time set is called. A caller that needs to wait for a change reads
// the value, checks its predicate, and if unsatisfied blocks on <-ch.
func (w *rootWatch) get() (*graph.RootGraph, <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value, w.changed
}

func (w *rootWatch) set(v *graph.RootGraph) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value = v
	close(w.changed)
	w.changed = make(chan struct{})
}

// signal is a fan-out broadcaster with no payload, the Go equivalent of
// tokio::sync::broadcast::channel(()) used for subscribe_dirty_tree: any
// number of subscribers, each getting a best-effort notification per
// fire (a slow subscriber drops notifications rather than stalling
// fire's caller).
type signal struct {
	mu   sync.Mutex
	subs []chan struct{}
}

func newSignal() *signal { return &signal{} }

func (s *signal) subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{}, 1)
	s.subs = append(s.subs, ch)
	return ch
}

func (s *signal) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
