package framegraph

// PassHandle is a stable handle to a registered pass, valid for the current
// frame. Handles index the pass table in registration order; after Build
// sorts the table into execution order, the graph's internal mapping
// translates them.
type PassHandle int32

// InvalidPassHandle is the zero-dependency sentinel handle.
const InvalidPassHandle PassHandle = -1

// IsValid reports whether the handle refers to a pass.
func (h PassHandle) IsValid() bool { return h >= 0 }

// dependency is one declared input or output slot of a pass.
type dependency struct {
	resID uint64
	state ResourceState
}

// passNode is one registered pass. Records are populated during
// registration, rewritten into execution order by the sort, and annotated
// by the barrier planner and aggregator.
type passNode struct {
	name          string
	queue         Queue
	record        RecordFunc
	forceSeparate bool

	inputs  []dependency
	outputs []dependency

	// indegree is consumed by the topological sort.
	indegree int32

	// batch is the pass's topological level: 1 + the maximum batch of its
	// direct predecessors. Written by the sort.
	batch int32

	// aggIndex is the aggregate node this pass was fused into. Written by
	// the aggregator.
	aggIndex int32

	// outputMask marks output slots that are ping-pong obligations: the
	// resource is also an input of this pass, the callback restores its
	// input state itself, and the planner skips output-side barriers for
	// those slots.
	outputMask uint32

	// barriers are the transitions planned for this pass.
	barriers []Barrier

	// hasUnsupportedBarrier is set when a planned transition cannot be
	// performed on this pass's queue; the whole barrier list is then
	// routed through the direct queue with an immediate wait.
	hasUnsupportedBarrier bool

	// crossQueueDep is the execution-order position of the producer on
	// the other queue whose fence this pass must wait for, or -1.
	crossQueueDep int32
}

// reset re-initializes a pass record for registration.
func (n *passNode) reset(name string, q Queue, record RecordFunc, forceSeparate bool) {
	n.name = name
	n.queue = q
	n.record = record
	n.forceSeparate = forceSeparate
	n.inputs = n.inputs[:0]
	n.outputs = n.outputs[:0]
	n.indegree = 0
	n.batch = 0
	n.aggIndex = -1
	n.outputMask = 0
	n.barriers = nil
	n.hasUnsupportedBarrier = false
	n.crossQueueDep = -1
}
