package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Koenneker/uvl-lsp/internal/document"
)

type fakeSink struct {
	opened  map[string]string
	deleted map[string]bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{opened: make(map[string]string), deleted: make(map[string]bool)}
}

func (f *fakeSink) ShouldLoad(uri string, mtime time.Time) bool { return true }
func (f *fakeSink) Open(uri, text string, state document.State) {
	f.opened[uri] = text
}
func (f *fakeSink) Delete(uri string, state document.State) {
	f.deleted[uri] = true
}

func TestWatcher_InitialScanLoadsMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.uvl"), []byte("namespace A\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("not uvl"), 0644); err != nil {
		t.Fatal(err)
	}

	sink := newFakeSink()
	w, err := New(dir, []string{"**/*.uvl"}, nil, sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if len(sink.opened) != 1 {
		t.Fatalf("expected exactly one file opened, got %d: %v", len(sink.opened), sink.opened)
	}
}

func TestWatcher_ExcludeOverridesInclude(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "vendor"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "vendor", "b.uvl"), []byte("namespace B\n"), 0644); err != nil {
		t.Fatal(err)
	}

	sink := newFakeSink()
	w, err := New(dir, []string{"**/*.uvl"}, []string{"vendor/**"}, sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if len(sink.opened) != 0 {
		t.Errorf("expected excluded file not to be opened, got %v", sink.opened)
	}
}
