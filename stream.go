package framegraph

// Queue identifies the execution queue a pass is recorded and submitted on.
// A pass's queue affinity is fixed at registration and never changes.
type Queue uint8

const (
	// QueueDirect is the primary queue; it can execute every kind of work
	// and every state transition.
	QueueDirect Queue = iota

	// QueueCompute is the asynchronous compute queue. Some transitions
	// (see InvalidComputeStates) cannot be performed on it and are routed
	// through the direct queue instead.
	QueueCompute
)

// NumQueues is the number of execution queues.
const NumQueues = 2

// String returns the string representation of a Queue.
func (q Queue) String() string {
	switch q {
	case QueueDirect:
		return "Direct"
	case QueueCompute:
		return "Compute"
	}
	return "Unknown"
}

// Barrier is a planned transition of one resource between synchronization
// states. Barriers are recorded onto a command stream before the consuming
// pass's commands.
type Barrier struct {
	// ResourceID identifies the tracked resource.
	ResourceID uint64

	// Backing is the opaque backing object supplied at registration
	// (a hal.Texture for the wgpustream provider). Nil for dummy or
	// unbacked resources.
	Backing any

	// Before and After are the tracked state and the state required by
	// the consumer.
	Before, After ResourceState
}

// RecordFunc records one pass's GPU commands onto a stream. It is bound at
// registration, capturing any pass-local state it needs, and invoked
// exactly once per frame.
//
// A RecordFunc may itself issue further transitions only for the ping-pong
// resources it declared as both input and output, and must leave those in
// their declared input state before returning.
type RecordFunc func(cs CommandStream)

// CommandStream is a recording surface for one submission unit. Streams are
// exclusively owned by the executing task for its duration; fused passes
// share one stream sequentially.
type CommandStream interface {
	// SetLabel attaches a debug name to the stream.
	SetLabel(label string)

	// Transition records the given state transitions.
	Transition(barriers []Barrier)
}

// StreamProvider supplies command streams and executes them. It is the
// boundary to the real GPU API: package wgpustream implements it over
// gogpu/wgpu, and tests substitute an in-memory recorder.
//
// Fence values returned by Execute are monotonically increasing per queue
// and never zero; zero always means "not yet executed".
type StreamProvider interface {
	// Stream returns a fresh command stream for the given queue.
	Stream(q Queue) CommandStream

	// Execute submits a finished stream and returns its completion fence
	// value. Catastrophic submission failures (device loss, out of
	// memory) are owned by the provider, not the graph.
	Execute(cs CommandStream) uint64

	// WaitForDirectQueue blocks compute-queue progress until the direct
	// queue has reached fence value v.
	WaitForDirectQueue(v uint64)

	// WaitForComputeQueue blocks direct-queue progress until the compute
	// queue has reached fence value v.
	WaitForComputeQueue(v uint64)
}
