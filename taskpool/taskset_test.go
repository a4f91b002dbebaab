package taskpool

import "testing"

// =============================================================================
// TaskSet Construction
// =============================================================================

func TestTaskSetAdd(t *testing.T) {
	ts := NewTaskSet()

	a := ts.Add("a", PriorityNormal, nil)
	b := ts.Add("b", PriorityBackground, nil)

	if a != 0 || b != 1 {
		t.Errorf("handles = %d, %d, want 0, 1", a, b)
	}
	if got := ts.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if got := ts.tasks[a].Name(); got != "a" {
		t.Errorf("Name() = %q, want %q", got, "a")
	}
	if got := ts.tasks[b].Priority(); got != PriorityBackground {
		t.Errorf("Priority() = %v, want %v", got, PriorityBackground)
	}
}

func TestTaskHandleIsValid(t *testing.T) {
	if TaskHandle(-1).IsValid() {
		t.Error("IsValid(-1) = true, want false")
	}
	if !TaskHandle(0).IsValid() {
		t.Error("IsValid(0) = false, want true")
	}
}

func TestAddEdgeDeduplicates(t *testing.T) {
	ts := NewTaskSet()
	a := ts.Add("a", PriorityNormal, nil)
	b := ts.Add("b", PriorityNormal, nil)

	ts.AddEdge(a, b)
	ts.AddEdge(a, b)

	if got := len(ts.edges[a]); got != 1 {
		t.Errorf("len(edges) = %d, want 1 after duplicate AddEdge", got)
	}
}

// =============================================================================
// Finalize
// =============================================================================

func TestFinalizeComputesPending(t *testing.T) {
	ts := NewTaskSet()
	a := ts.Add("a", PriorityNormal, nil)
	b := ts.Add("b", PriorityNormal, nil)
	c := ts.Add("c", PriorityNormal, nil)
	ts.AddEdge(a, c)
	ts.AddEdge(b, c)
	ts.Finalize()

	if !ts.IsFinalized() {
		t.Fatal("IsFinalized() = false after Finalize")
	}
	if got := ts.tasks[c].pending.Load(); got != 2 {
		t.Errorf("pending(c) = %d, want 2", got)
	}
	if ts.tasks[c].ready == nil {
		t.Error("ready(c) = nil, want channel")
	}
	if ts.tasks[a].ready != nil {
		t.Error("ready(a) != nil for a task with no predecessors")
	}
	if got := len(ts.tasks[a].adjacencies); got != 1 {
		t.Errorf("len(adjacencies(a)) = %d, want 1", got)
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	ts := NewTaskSet()
	a := ts.Add("a", PriorityNormal, nil)
	b := ts.Add("b", PriorityNormal, nil)
	ts.AddEdge(a, b)

	ts.Finalize()
	ts.Finalize()

	if got := len(ts.tasks[a].adjacencies); got != 1 {
		t.Errorf("len(adjacencies) = %d, want 1 after double Finalize", got)
	}
}

// =============================================================================
// Signaling Protocol
// =============================================================================

func TestSignalDependentsClosesReady(t *testing.T) {
	ts := NewTaskSet()
	a := ts.Add("a", PriorityNormal, nil)
	b := ts.Add("b", PriorityNormal, nil)
	c := ts.Add("c", PriorityNormal, nil)
	ts.AddEdge(a, c)
	ts.AddEdge(b, c)
	ts.Finalize()

	ts.tasks[a].signalDependents()
	select {
	case <-ts.tasks[c].ready:
		t.Fatal("ready closed after one of two predecessors")
	default:
	}

	ts.tasks[b].signalDependents()
	select {
	case <-ts.tasks[c].ready:
	default:
		t.Fatal("ready not closed after all predecessors signaled")
	}
}
