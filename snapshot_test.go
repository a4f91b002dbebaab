package framegraph

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/framegraph/taskpool"
)

// =============================================================================
// Snapshot
// =============================================================================

func TestSnapshotRequiresBuild(t *testing.T) {
	g := New(newFakeProvider())
	if _, err := g.Snapshot(); !errors.Is(err, ErrProtocolViolation) {
		t.Errorf("Snapshot before Build: err = %v, want ErrProtocolViolation", err)
	}
	if err := g.LogGraph(); !errors.Is(err, ErrProtocolViolation) {
		t.Errorf("LogGraph before Build: err = %v, want ErrProtocolViolation", err)
	}
}

func TestSnapshotContents(t *testing.T) {
	g := New(newFakeProvider())
	ts := taskpool.NewTaskSet()
	buildDeferredFrame(t, g, ts)

	snap, err := g.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	if got := len(snap.Passes); got != 4 {
		t.Fatalf("len(Passes) = %d, want 4", got)
	}
	if got := len(snap.Aggregates); got != 4 {
		t.Fatalf("len(Aggregates) = %d, want 4", got)
	}
	if got := len(snap.Resources); got != 4 {
		t.Fatalf("len(Resources) = %d, want 4", got)
	}

	// Passes appear in execution order with their batch levels.
	var lighting *PassSnapshot
	for i := range snap.Passes {
		if snap.Passes[i].Name == "Lighting" {
			lighting = &snap.Passes[i]
		}
	}
	if lighting == nil {
		t.Fatal("Lighting missing from snapshot")
	}
	if lighting.Batch != 1 {
		t.Errorf("Lighting batch = %d, want 1", lighting.Batch)
	}
	if lighting.WaitsFor != "Shadow" {
		t.Errorf("Lighting WaitsFor = %q, want %q", lighting.WaitsFor, "Shadow")
	}
	if len(lighting.Barriers) == 0 {
		t.Error("Lighting has no barriers in snapshot")
	}

	if !snap.Aggregates[len(snap.Aggregates)-1].Terminal {
		t.Error("last aggregate not marked terminal in snapshot")
	}
}

func TestSnapshotYAML(t *testing.T) {
	g := New(newFakeProvider())
	ts := taskpool.NewTaskSet()
	buildDeferredFrame(t, g, ts)

	snap, err := g.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	out, err := snap.YAML()
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"passes:", "aggregates:", "resources:", "GBuffer", "Shadow", "queue: Compute"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML missing %q:\n%s", want, out)
		}
	}
}

func TestLogGraphAfterBuild(t *testing.T) {
	g := New(newFakeProvider())
	ts := taskpool.NewTaskSet()
	buildDeferredFrame(t, g, ts)

	if err := g.LogGraph(); err != nil {
		t.Errorf("LogGraph() = %v, want nil", err)
	}
}
