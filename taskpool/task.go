package taskpool

import "sync/atomic"

// Priority selects how strictly a task participates in dependency ordering.
type Priority uint8

const (
	// PriorityNormal tasks wait for their predecessors before running and
	// signal their dependents afterwards.
	PriorityNormal Priority = iota

	// PriorityBackground tasks are best-effort: they skip the predecessor
	// wait and never signal dependents. Use for work with no ordering
	// requirements (asset streaming, cache warmup).
	PriorityBackground
)

// String returns the string representation of a Priority.
func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "Normal"
	case PriorityBackground:
		return "Background"
	}
	return "Unknown"
}

// Task is a single schedulable unit of work.
//
// A Task created with NewTask has no dependencies and may be enqueued
// directly. Tasks created through a TaskSet carry a signal handle and an
// adjacency list of dependents, populated by TaskSet.Finalize.
type Task struct {
	name     string
	priority Priority
	fn       func()

	// signal is the task's handle within its TaskSet (-1 for standalone
	// tasks). Kept for diagnostics.
	signal int32

	// pending counts unfinished predecessors. ready is closed when the
	// count reaches zero; it is nil for tasks with no predecessors.
	pending atomic.Int32
	ready   chan struct{}

	// adjacencies lists the dependents to signal on completion.
	adjacencies []*Task
}

// NewTask creates a standalone task with no dependencies.
func NewTask(name string, priority Priority, fn func()) *Task {
	return &Task{name: name, priority: priority, fn: fn, signal: -1}
}

// Name returns the task's display name.
func (t *Task) Name() string { return t.name }

// Priority returns the task's priority tier.
func (t *Task) Priority() Priority { return t.priority }

// waitPredecessors blocks until every predecessor has signaled completion.
func (t *Task) waitPredecessors() {
	if t.ready != nil && t.pending.Load() > 0 {
		<-t.ready
	}
}

// run executes the task body.
func (t *Task) run() {
	if t.fn != nil {
		t.fn()
	}
}

// signalDependents notifies every dependent that this task has finished.
// The dependent whose last predecessor signals closes its ready channel.
func (t *Task) signalDependents() {
	for _, adj := range t.adjacencies {
		if adj.pending.Add(-1) == 0 {
			close(adj.ready)
		}
	}
}
