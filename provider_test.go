package framegraph

import (
	"fmt"
	"sync"
)

// fakeStream records the events replayed onto it: transitions and pass
// callbacks, in order.
type fakeStream struct {
	provider *fakeProvider
	queue    Queue
	label    string
	events   []string
	fence    uint64
}

func (s *fakeStream) SetLabel(label string) { s.label = label }

func (s *fakeStream) Transition(barriers []Barrier) {
	for _, b := range barriers {
		s.events = append(s.events, fmt.Sprintf("barrier %d %v->%v", b.ResourceID, b.Before, b.After))
	}
}

func (s *fakeStream) note(event string) {
	s.events = append(s.events, event)
}

// fakeProvider is an in-memory StreamProvider: per-queue fence counters,
// submissions in Execute order, and a log of queue waits.
type fakeProvider struct {
	mu          sync.Mutex
	fences      [NumQueues]uint64
	submissions []*fakeStream
	waits       []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{}
}

func (p *fakeProvider) Stream(q Queue) CommandStream {
	return &fakeStream{provider: p, queue: q}
}

func (p *fakeProvider) Execute(cs CommandStream) uint64 {
	s := cs.(*fakeStream)
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fences[s.queue]++
	s.fence = p.fences[s.queue]
	p.submissions = append(p.submissions, s)
	return s.fence
}

func (p *fakeProvider) WaitForDirectQueue(v uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits = append(p.waits, fmt.Sprintf("direct>=%d", v))
}

func (p *fakeProvider) WaitForComputeQueue(v uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits = append(p.waits, fmt.Sprintf("compute>=%d", v))
}

// submissionLabels returns the labels of all submissions in Execute order.
func (p *fakeProvider) submissionLabels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	labels := make([]string, len(p.submissions))
	for i, s := range p.submissions {
		labels[i] = s.label
	}
	return labels
}

// mark returns a pass callback that appends its name to the stream.
func mark(name string) RecordFunc {
	return func(cs CommandStream) {
		cs.(*fakeStream).note("record " + name)
	}
}

// runAggregates executes every aggregate of a built graph in order on the
// calling goroutine, bypassing the pool for determinism.
func runAggregates(g *Graph) {
	for _, agg := range g.aggregates {
		g.executeAggregate(agg)
	}
}
