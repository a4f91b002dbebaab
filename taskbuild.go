package framegraph

import (
	"github.com/gogpu/framegraph/taskpool"
)

// buildTaskGraph emits one task per aggregate node into ts and wires the
// precedence edges.
//
// Every aggregate of batch b precedes every aggregate of batch b+1; that
// chain transitively orders all earlier batches, so no longer edges are
// needed. Within a batch, the fused aggregates are mutually independent by
// construction, and only force-separate aggregates get ordering edges.
func (g *Graph) buildTaskGraph(ts *taskpool.TaskSet) {
	for _, agg := range g.aggregates {
		agg.task = ts.Add(agg.name, taskpool.PriorityNormal, func() {
			g.executeAggregate(agg)
		})
	}

	for i, a := range g.aggregates {
		for j := i + 1; j < len(g.aggregates); j++ {
			b := g.aggregates[j]
			if b.batch > a.batch+1 {
				break
			}
			if b.batch == a.batch+1 {
				ts.AddEdge(a.task, b.task)
			} else if a.forceSeparate || b.forceSeparate {
				ts.AddEdge(a.task, b.task)
			}
		}
	}
}

// executeAggregate is the task body of one aggregate node: acquire a
// stream, flush unsupported transitions through the direct queue, record
// the cross-queue wait, record the member passes, and submit.
//
// Merged runs share one stream: the run start acquires it, members append
// to it, and only the run end submits and back-fills the fence.
func (g *Graph) executeAggregate(agg *aggregateNode) {
	var cs CommandStream
	merged := agg.mergedStreamIndex != -1
	if merged && !agg.mergeStart {
		cs = g.mergedStreams[agg.mergedStreamIndex]
	} else {
		cs = g.provider.Stream(agg.queue)
		cs.SetLabel(agg.name)
		if merged {
			g.mergedStreams[agg.mergedStreamIndex] = cs
		}
	}

	// Transitions a compute queue cannot perform are recorded onto a
	// direct-queue stream and submitted up front; the compute work then
	// waits for that submission instead of recording them itself.
	if agg.hasUnsupportedBarrier {
		flush := g.provider.Stream(QueueDirect)
		flush.SetLabel(agg.name + "/barriers")
		for _, p := range agg.passes {
			if barriers := g.nodes[p].barriers; len(barriers) > 0 {
				flush.Transition(barriers)
			}
		}
		g.provider.WaitForDirectQueue(g.provider.Execute(flush))
	}

	// The cross-queue wait precedes every member command. The producer's
	// fence is published by construction: it lives in an earlier batch,
	// and batch edges order its task before this one.
	if agg.crossQueueDep != -1 {
		dep := g.aggregates[g.nodes[agg.crossQueueDep].aggIndex]
		if agg.queue == QueueDirect {
			g.provider.WaitForComputeQueue(dep.fence.Load())
		} else {
			g.provider.WaitForDirectQueue(dep.fence.Load())
		}
	}

	for _, p := range agg.passes {
		node := &g.nodes[p]
		if !agg.hasUnsupportedBarrier && len(node.barriers) > 0 {
			cs.Transition(node.barriers)
		}
		if node.record != nil {
			node.record(cs)
		}
	}

	if agg.isLast && g.frameEndHook != nil {
		g.frameEndHook(cs)
	}

	if merged && !agg.mergeEnd {
		return
	}

	fence := g.provider.Execute(cs)
	agg.fence.Store(fence)
	if merged {
		for k := int(agg.index) - 1; k >= 0; k-- {
			if g.aggregates[k].mergedStreamIndex != agg.mergedStreamIndex {
				break
			}
			g.aggregates[k].fence.Store(fence)
		}
	}

	if agg.isLast && g.frameWait != nil {
		g.frameWait.Notify()
		g.frameWait = nil
	}
}
