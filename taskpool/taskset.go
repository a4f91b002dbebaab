package taskpool

// TaskHandle identifies a task within a TaskSet. Handles are stable indices
// assigned in Add order.
type TaskHandle int32

// IsValid reports whether the handle refers to a task.
func (h TaskHandle) IsValid() bool { return h >= 0 }

// TaskSet is a group of tasks with precedence edges between them.
//
// Build the set by adding tasks and edges, then call Finalize to freeze it.
// A finalized set is handed to Pool.EnqueueSet as one unit; edges are
// enforced by the completion-signaling protocol, never by enqueue order.
//
// TaskSet is not safe for concurrent use during construction.
type TaskSet struct {
	tasks     []*Task
	edges     [][]TaskHandle // adjacency list, tail handles per task
	finalized bool
}

// NewTaskSet creates an empty task set.
func NewTaskSet() *TaskSet {
	return &TaskSet{}
}

// Add appends a task to the set and returns its handle.
func (s *TaskSet) Add(name string, priority Priority, fn func()) TaskHandle {
	h := TaskHandle(len(s.tasks))
	t := NewTask(name, priority, fn)
	t.signal = int32(h)
	s.tasks = append(s.tasks, t)
	s.edges = append(s.edges, nil)
	return h
}

// AddEdge records that the task at head must complete before the task at
// tail may run. Duplicate edges are ignored.
func (s *TaskSet) AddEdge(head, tail TaskHandle) {
	for _, existing := range s.edges[head] {
		if existing == tail {
			return
		}
	}
	s.edges[head] = append(s.edges[head], tail)
}

// Len returns the number of tasks in the set.
func (s *TaskSet) Len() int { return len(s.tasks) }

// IsFinalized reports whether Finalize has been called.
func (s *TaskSet) IsFinalized() bool { return s.finalized }

// Finalize freezes the set: it resolves edges into per-task adjacency lists
// and predecessor counters. No tasks or edges may be added afterwards.
func (s *TaskSet) Finalize() {
	if s.finalized {
		return
	}

	// Indegree per task.
	indegree := make([]int32, len(s.tasks))
	for _, tails := range s.edges {
		for _, tail := range tails {
			indegree[tail]++
		}
	}

	for i, t := range s.tasks {
		if indegree[i] > 0 {
			t.pending.Store(indegree[i])
			t.ready = make(chan struct{})
		}
		for _, tail := range s.edges[i] {
			t.adjacencies = append(t.adjacencies, s.tasks[tail])
		}
	}

	s.finalized = true
}
