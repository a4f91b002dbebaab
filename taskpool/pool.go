package taskpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// DefaultQueueCapacity is the buffer size of the shared task queue when no
// explicit capacity is given.
const DefaultQueueCapacity = 1024

// Pool is a fixed-size worker pool draining a shared MPMC task queue.
//
// Workers block on the queue when it is empty. A dequeued task first waits
// for its predecessors (unless it is background priority), runs, then
// signals its dependents. Any goroutine that enqueues work may additionally
// call PumpUntilEmpty or TryFlush to execute queued tasks itself.
//
// Thread safety: Pool is safe for concurrent use. Tasks must not be
// enqueued after Shutdown has been called.
type Pool struct {
	workers int
	queue   chan *Task

	shutdown atomic.Bool
	wg       sync.WaitGroup

	// queued counts tasks currently sitting in the queue. A failed channel
	// receive does not prove the queue is empty, so drain loops spin on
	// this counter instead.
	queued atomic.Int64

	// finished and target track per-flush completion accounting; both are
	// reset by a successful TryFlush.
	finished atomic.Int64
	target   atomic.Int64
}

// Option configures a Pool.
type Option func(*poolConfig)

type poolConfig struct {
	queueCapacity int
}

// WithQueueCapacity sets the buffer size of the shared task queue.
func WithQueueCapacity(n int) Option {
	return func(c *poolConfig) {
		if n > 0 {
			c.queueCapacity = n
		}
	}
}

// New creates a pool with the given number of workers and starts them.
// If workers is 0 or negative, GOMAXPROCS is used.
func New(workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	cfg := poolConfig{queueCapacity: DefaultQueueCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pool{
		workers: workers,
		queue:   make(chan *Task, cfg.queueCapacity),
	}

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Enqueue submits a single task. It blocks if the queue is full.
func (p *Pool) Enqueue(t *Task) {
	p.target.Add(1)
	p.queued.Add(1)
	p.queue <- t
}

// EnqueueSet submits every task of a finalized TaskSet.
//
// Precedence edges are enforced by completion signaling, not by enqueue
// order: a worker that dequeues a task ahead of its predecessors simply
// blocks until they have run.
func (p *Pool) EnqueueSet(ts *TaskSet) {
	if !ts.finalized {
		slogger().Error("taskpool: EnqueueSet called with non-finalized TaskSet")
		return
	}

	p.target.Add(int64(len(ts.tasks)))
	for _, t := range ts.tasks {
		p.queued.Add(1)
		p.queue <- t
	}
}

// PumpUntilEmpty executes queued tasks on the calling goroutine until the
// queue is empty. Tasks already dequeued by workers may still be running
// when it returns; use TryFlush to wait for full completion.
func (p *Pool) PumpUntilEmpty() {
	for p.queued.Load() != 0 {
		select {
		case t := <-p.queue:
			p.execute(t)
		default:
			// Another consumer holds the remaining tasks; spin on the
			// counter until they drain.
		}
	}
}

// TryFlush reports whether all enqueued tasks have finished. On success the
// completion counters are reset for the next frame; on failure the calling
// goroutine pumps the queue before returning. Callers typically loop:
//
//	for !pool.TryFlush() {
//	}
func (p *Pool) TryFlush() bool {
	done := p.finished.Load() == p.target.Load()
	if !done {
		p.PumpUntilEmpty()
		return false
	}

	p.finished.Store(0)
	p.target.Store(0)
	return true
}

// Shutdown stops the pool: it raises the shutdown flag, enqueues one no-op
// sentinel per worker to wake any that are blocked, joins them, and then
// drains whatever is left in the queue on the calling goroutine. Every task
// enqueued before the call is executed before Shutdown returns. Shutdown is
// safe to call multiple times.
func (p *Pool) Shutdown() {
	if p.shutdown.Swap(true) {
		return
	}

	for range p.workers {
		p.Enqueue(NewTask("NoOp", PriorityNormal, nil))
	}

	p.wg.Wait()

	// Workers exit without draining, so a sentinel is never consumed on
	// another worker's behalf; the leftovers land here.
	p.drain()
	slogger().Info("taskpool: pool shut down", "workers", p.workers)
}

// worker is the main loop of each worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()
	slogger().Debug("taskpool: worker waiting for tasks", "worker", id)

	for {
		// Exit as soon as the shutdown flag is observed. A worker takes
		// at most one task past the flag (its wake-up sentinel); pending
		// work is drained by Shutdown once all workers have joined.
		if p.shutdown.Load() {
			slogger().Debug("taskpool: worker exiting", "worker", id)
			return
		}

		t := <-p.queue
		p.execute(t)
	}
}

// execute runs one dequeued task with dependency signaling.
func (p *Pool) execute(t *Task) {
	p.queued.Add(-1)

	// Background tasks are best-effort: no ordering either way.
	if t.priority != PriorityBackground {
		t.waitPredecessors()
	}

	t.run()

	if t.priority != PriorityBackground {
		t.signalDependents()
	}

	p.finished.Add(1)
}

// drain executes all tasks remaining in the queue.
func (p *Pool) drain() {
	for {
		select {
		case t := <-p.queue:
			p.execute(t)
		default:
			return
		}
	}
}
