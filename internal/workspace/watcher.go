// Package workspace watches the project directory for files the editor
// hasn't opened itself, feeding them into the Pipeline the same way an
// editor's didOpen/didChange/didClose would. Grounded on
// standardbeagle-lci/internal/indexing/watcher.go's FileWatcher: a
// recursive fsnotify.Watcher plus a doublestar include/exclude pattern
// set, adapted from a full reindex pipeline down to the single concern
// SPEC_FULL.md needs here -- keeping Pipeline in sync with on-disk UVL
// and configuration files nobody has open in an editor.
package workspace

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/Koenneker/uvl-lsp/internal/document"
)

// PipelineSink is the subset of *pipeline.Pipeline the watcher drives;
// declared as an interface here so this package never imports pipeline
// (avoiding a cycle, since a full server also hands the watcher its own
// Pipeline instance).
type PipelineSink interface {
	ShouldLoad(uri string, mtime time.Time) bool
	Open(uri, text string, state document.State)
	Delete(uri string, state document.State)
}

// Watcher recursively watches a root directory, loading and reloading
// files that match Include and don't match Exclude into a Pipeline.
type Watcher struct {
	fsw     *fsnotify.Watcher
	root    string
	include []string
	exclude []string
	sink    PipelineSink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Watcher rooted at root. include/exclude are doublestar
// glob patterns matched against paths relative to root; a file is
// watched iff it matches some include pattern and no exclude pattern.
func New(root string, include, exclude []string, sink PipelineSink) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{fsw: fsw, root: root, include: include, exclude: exclude, sink: sink, ctx: ctx, cancel: cancel}, nil
}

// Start adds watches for every directory under root and begins
// processing fsnotify events in the background. It also performs an
// initial load of every matching file already on disk.
func (w *Watcher) Start() error {
	if err := w.addWatches(w.root); err != nil {
		return err
	}
	if err := w.initialScan(); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop cancels event processing and closes the underlying fsnotify
// watcher.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addWatches(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("workspace: failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) initialScan() error {
	return filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if w.matches(path) {
			w.load(path, info.ModTime())
		}
		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	if w.excluded(path) {
		return false
	}
	for _, pattern := range w.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) excluded(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("workspace: watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !w.matches(ev.Name) {
		if ev.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !w.excluded(ev.Name) {
				if err := w.fsw.Add(ev.Name); err != nil {
					log.Printf("workspace: failed to watch %s: %v", ev.Name, err)
				}
			}
		}
		return
	}
	switch {
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if info, err := os.Stat(ev.Name); err == nil {
			w.load(ev.Name, info.ModTime())
		}
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.sink.Delete(uriFor(ev.Name), document.FromOS(time.Now()))
	}
}

func (w *Watcher) load(path string, mtime time.Time) {
	uri := uriFor(path)
	if !w.sink.ShouldLoad(uri, mtime) {
		return
	}
	text, err := os.ReadFile(path)
	if err != nil {
		log.Printf("workspace: failed to read %s: %v", path, err)
		return
	}
	w.sink.Open(uri, string(text), document.FromOS(mtime))
}

func uriFor(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}
