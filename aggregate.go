package framegraph

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/framegraph/taskpool"
)

// aggregateNode is one submission unit: one or more passes of the same
// batch and queue fused together, recording onto a single command stream.
type aggregateNode struct {
	name  string
	queue Queue
	batch int32

	// index is this aggregate's position in the graph's aggregate list.
	// The task handle cannot stand in for it: the TaskSet may already
	// hold driver tasks when the frame is built.
	index int32

	// passes are the fused members, as execution-order positions.
	passes []int32

	forceSeparate bool
	isLast        bool

	// crossQueueDep is the execution-order position of the latest producer
	// on the other queue any member waits for, or -1.
	crossQueueDep int32

	// hasUnsupportedBarrier routes the members' barriers through the
	// direct queue with an immediate wait before the compute work runs.
	hasUnsupportedBarrier bool

	// mergedStreamIndex selects the shared stream of a merge run, or -1
	// when the aggregate owns its stream. mergeStart acquires the shared
	// stream, mergeEnd submits it and back-fills the fence.
	mergedStreamIndex int32
	mergeStart        bool
	mergeEnd          bool

	// fence is the completion fence value, published on submission. Zero
	// until the aggregate (or its merge run) has executed.
	fence atomic.Uint64

	task taskpool.TaskHandle
}

// joinNodes fuses the sorted pass table into aggregate nodes. Within each
// batch, non-separate compute passes fuse into one aggregate, emitted ahead
// of the fused direct-queue aggregate; force-separate passes each keep
// their own. The final aggregate is marked terminal.
func (g *Graph) joinNodes() {
	g.aggregates = g.aggregates[:0]

	i := 0
	for i < len(g.nodes) {
		j := i
		for j < len(g.nodes) && g.nodes[j].batch == g.nodes[i].batch {
			j++
		}

		g.joinQueueGroup(i, j, QueueCompute)
		g.joinQueueGroup(i, j, QueueDirect)
		for p := i; p < j; p++ {
			if g.nodes[p].forceSeparate {
				g.appendAggregate([]int32{int32(p)}, g.nodes[p].queue, true)
			}
		}

		i = j
	}

	g.aggregates[len(g.aggregates)-1].isLast = true
}

// joinQueueGroup fuses the non-separate passes of one queue within the
// batch slice [from, to).
func (g *Graph) joinQueueGroup(from, to int, q Queue) {
	var members []int32
	for p := from; p < to; p++ {
		if g.nodes[p].queue == q && !g.nodes[p].forceSeparate {
			members = append(members, int32(p))
		}
	}
	if len(members) > 0 {
		g.appendAggregate(members, q, false)
	}
}

func (g *Graph) appendAggregate(members []int32, q Queue, forceSeparate bool) {
	agg := &aggregateNode{
		queue:             q,
		batch:             g.nodes[members[0]].batch,
		index:             int32(len(g.aggregates)),
		passes:            members,
		forceSeparate:     forceSeparate,
		crossQueueDep:     -1,
		mergedStreamIndex: -1,
		task:              -1,
	}

	for _, p := range members {
		node := &g.nodes[p]
		node.aggIndex = int32(len(g.aggregates))
		if node.crossQueueDep > agg.crossQueueDep {
			agg.crossQueueDep = node.crossQueueDep
		}
		if node.hasUnsupportedBarrier {
			agg.hasUnsupportedBarrier = true
		}
	}

	// The direct-queue barrier flush already serializes against the other
	// queue's producers; a fence wait on top of it would be redundant.
	if agg.hasUnsupportedBarrier {
		agg.crossQueueDep = -1
	}

	agg.name = g.nodes[members[0]].name
	if len(members) > 1 {
		agg.name = fmt.Sprintf("%s+%d", agg.name, len(members)-1)
	}

	g.aggregates = append(g.aggregates, agg)
}

// mergeSmallNodes fuses runs of consecutive single-pass direct-queue
// aggregates onto one shared command stream, trading submission count for
// recording parallelism. Only runs longer than one survive; a run of one is
// unwound and keeps its own stream.
//
// A run must end at any member that a compute-queue consumer waits on:
// the run's fence is published only on submission at the run end, and the
// consumer reads it at its own task start.
func (g *Graph) mergeSmallNodes() {
	depTarget := make([]bool, len(g.aggregates))
	for _, agg := range g.aggregates {
		if agg.crossQueueDep != -1 {
			depTarget[g.nodes[agg.crossQueueDep].aggIndex] = true
		}
	}

	streamIdx := int32(0)
	runStart := -1

	endRun := func(end int) {
		if runStart == -1 {
			return
		}
		if end-runStart > 1 {
			for k := runStart; k < end; k++ {
				g.aggregates[k].mergedStreamIndex = streamIdx
			}
			g.aggregates[runStart].mergeStart = true
			g.aggregates[end-1].mergeEnd = true
			streamIdx++
		}
		runStart = -1
	}

	for i, agg := range g.aggregates {
		mergeable := agg.queue == QueueDirect && len(agg.passes) == 1 && !agg.forceSeparate
		if !mergeable {
			endRun(i)
			continue
		}
		if runStart == -1 {
			runStart = i
		}
		if depTarget[i] {
			endRun(i + 1)
		}
	}
	endRun(len(g.aggregates))

	if streamIdx > 0 {
		g.mergedStreams = make([]CommandStream, streamIdx)
	}
}
