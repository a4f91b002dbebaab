// Package taskpool provides a fixed-size worker pool with dependency-aware
// task scheduling.
//
// The pool drains a shared multi-producer/multi-consumer queue. Tasks are
// grouped into a TaskSet, which records precedence edges between them; a
// worker that dequeues a task blocks until all of the task's predecessors
// have signaled completion, runs it, then signals its dependents.
//
// Any thread that enqueues work may also help execute it: PumpUntilEmpty
// pulls and runs tasks on the calling goroutine until the queue drains,
// which guarantees forward progress without additional workers.
//
// # Basic Usage
//
//	pool := taskpool.New(4)
//	defer pool.Shutdown()
//
//	ts := taskpool.NewTaskSet()
//	a := ts.Add("produce", taskpool.PriorityNormal, produce)
//	b := ts.Add("consume", taskpool.PriorityNormal, consume)
//	ts.AddEdge(a, b)
//	ts.Finalize()
//
//	pool.EnqueueSet(ts)
//	for !pool.TryFlush() {
//	}
package taskpool
