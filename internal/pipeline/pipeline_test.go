package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/Koenneker/uvl-lsp/internal/document"
	"github.com/Koenneker/uvl-lsp/internal/graph"
)

const sampleUVL = "namespace Base\n\nfeatures\n\tBase\n\t\tmandatory\n\t\t\tLogging\n"

func TestPipeline_OpenAndSnapshotRoot(t *testing.T) {
	p := New(document.DefaultIsConfig)
	defer p.Shutdown()

	p.Open("file:///a.uvl", sampleUVL, document.Editor())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	root, err := p.SnapshotRoot(ctx, "file:///a.uvl")
	if err != nil {
		t.Fatalf("SnapshotRoot: %v", err)
	}
	if !root.Contains("file:///a.uvl") {
		t.Fatalf("expected root graph to contain the opened file")
	}
}

func TestPipeline_UpdateBumpsRevision(t *testing.T) {
	p := New(document.DefaultIsConfig)
	defer p.Shutdown()

	p.Open("file:///b.uvl", sampleUVL, document.Editor())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	first, err := p.SnapshotRoot(ctx, "file:///b.uvl")
	if err != nil {
		t.Fatalf("SnapshotRoot: %v", err)
	}

	p.Update("file:///b.uvl", nil)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	second, err := p.SyncRootGlobal(ctx2)
	if err != nil {
		t.Fatalf("SyncRootGlobal: %v", err)
	}
	if second.Revision() <= first.Revision() {
		t.Errorf("expected revision to increase, got %d -> %d", first.Revision(), second.Revision())
	}
}

func TestPipeline_DeleteRemovesFile(t *testing.T) {
	p := New(document.DefaultIsConfig)
	defer p.Shutdown()

	p.Open("file:///c.uvl", sampleUVL, document.Editor())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	root, err := p.SnapshotRoot(ctx, "file:///c.uvl")
	if err != nil {
		t.Fatalf("SnapshotRoot: %v", err)
	}
	if !root.Contains("file:///c.uvl") {
		t.Fatalf("expected file present before delete")
	}

	p.Delete("file:///c.uvl", document.Editor())

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	after, err := p.SyncRoot(ctx2, func(g *graph.RootGraph) bool {
		return g.Revision() > root.Revision()
	})
	if err != nil {
		t.Fatalf("SyncRoot: %v", err)
	}
	if after.Contains("file:///c.uvl") {
		t.Errorf("expected file removed from root graph after delete")
	}
}

func TestPipeline_SnapshotDraftRoundTrip(t *testing.T) {
	p := New(document.DefaultIsConfig)
	defer p.Shutdown()

	p.Open("file:///d.uvl", sampleUVL, document.Editor())

	draft, ok := p.SnapshotDraft("file:///d.uvl")
	if !ok {
		t.Fatalf("expected draft to be present")
	}
	if draft.Kind != document.KindUVL {
		t.Errorf("expected KindUVL, got %v", draft.Kind)
	}
	if draft.Source.String() != sampleUVL {
		t.Errorf("expected draft source to match opened text")
	}
}

func TestPipeline_EditorOwnershipBlocksOSOverwrite(t *testing.T) {
	p := New(document.DefaultIsConfig)
	defer p.Shutdown()

	p.Open("file:///e.uvl", sampleUVL, document.Editor())

	if p.ShouldLoad("file:///e.uvl", time.Now()) {
		t.Errorf("expected editor-owned document to reject a filesystem reload")
	}
}

func TestPipeline_ConfigRouting(t *testing.T) {
	p := New(document.DefaultIsConfig)
	defer p.Shutdown()

	p.Open("file:///select.json", `{"Base": true}`, document.Editor())

	draft, ok := p.SnapshotDraft("file:///select.json")
	if !ok {
		t.Fatalf("expected draft present")
	}
	if draft.Kind != document.KindJSON {
		t.Errorf("expected KindJSON for a .json uri, got %v", draft.Kind)
	}
}
