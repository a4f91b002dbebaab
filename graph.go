package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/taskpool"
)

// Graph is the per-frame dependency graph of GPU passes.
//
// A Graph is driven through a strict phase sequence each frame:
//
//	BeginFrame → RegisterResource/RegisterPass → EndRegistration →
//	DeclareInput/DeclareOutput → Build → (execution) → BeginFrame ...
//
// Calls outside their phase return ErrProtocolViolation. Construction is
// single-threaded by contract (see the package documentation); no locking
// is performed.
type Graph struct {
	provider StreamProvider

	// resources is the tracked-resource table. The prefix
	// [0:prevFrameCount) is sorted and carried over from earlier frames;
	// EndRegistration sorts the whole table.
	resources      []resourceMeta
	prevFrameCount int

	// nodes holds pass records in registration order until Build shuffles
	// them into execution order. mapping translates pre-sort handles to
	// execution-order positions.
	nodes   []passNode
	mapping []int32

	aggregates    []*aggregateNode
	mergedStreams []CommandStream

	frameWait    *taskpool.WaitObject
	frameEndHook RecordFunc
	presentID    uint64

	inFrame       bool
	inPreRegister bool
	built         bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithPresentResource names the display-surface resource. After barrier
// planning, its tracked state is set to StatePresent without emitting a
// transition: the external presenter owns that final transition. This makes
// the terminal hand-off an explicit contract between graph and presenter.
func WithPresentResource(id uint64) Option {
	return func(g *Graph) { g.presentID = id }
}

// WithFrameEndHook registers a callback recorded onto the terminal
// aggregate node's stream before submission, after all of its passes. Used
// for end-of-frame bookkeeping such as GPU timer resolution.
func WithFrameEndHook(fn RecordFunc) Option {
	return func(g *Graph) { g.frameEndHook = fn }
}

// New creates a graph bound to a stream provider.
func New(provider StreamProvider, opts ...Option) *Graph {
	g := &Graph{
		provider:  provider,
		resources: make([]resourceMeta, 0, MaxResources),
		nodes:     make([]passNode, 0, MaxPasses),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Shutdown releases all graph storage. The graph must not be used after.
func (g *Graph) Shutdown() {
	g.resources = nil
	g.nodes = nil
	g.mapping = nil
	g.aggregates = nil
	g.mergedStreams = nil
	g.frameWait = nil
}

// BeginFrame opens the pre-registration phase of a new frame. Resource
// records persist from the previous frame with their tracked states;
// producer lists, passes, and aggregates are cleared.
func (g *Graph) BeginFrame() error {
	if g.inFrame {
		return fmt.Errorf("BeginFrame during an open frame: %w", ErrProtocolViolation)
	}

	g.prevFrameCount = len(g.resources)
	for i := range g.resources {
		g.resources[i].resetProducers()
	}

	g.nodes = g.nodes[:0]
	g.mapping = nil
	g.aggregates = nil
	g.mergedStreams = nil
	g.built = false
	g.inFrame = true
	g.inPreRegister = true
	return nil
}

// RegisterResource inserts or updates a tracked resource record.
//
// Re-registering an id with an unchanged backing is a no-op, preserving the
// tracked state from previous frames. A changed backing re-initializes the
// record with initState. Dummy identifiers (below NumDummyResources) must
// be registered with a nil backing.
func (g *Graph) RegisterResource(id uint64, backing any, initState ResourceState, surfaceDependent bool) error {
	if !g.inFrame || !g.inPreRegister {
		return fmt.Errorf("RegisterResource outside pre-registration: %w", ErrProtocolViolation)
	}
	if backing != nil && isDummyID(id) {
		return fmt.Errorf("resource id %d is reserved for dummy resources: %w", id, ErrProtocolViolation)
	}

	// Carried-over records are looked up in the sorted prefix.
	if pos := findResource(g.resources[:g.prevFrameCount], id); pos != -1 {
		if g.resources[pos].backing != backing {
			g.resources[pos] = resourceMeta{
				id:               id,
				backing:          backing,
				state:            initState,
				surfaceDependent: surfaceDependent,
			}
			g.resources[pos].resetProducers()
		}
		return nil
	}

	if len(g.resources) >= MaxResources {
		return fmt.Errorf("resource table full (%d): %w", MaxResources, ErrCapacityExceeded)
	}

	meta := resourceMeta{
		id:               id,
		backing:          backing,
		state:            initState,
		surfaceDependent: surfaceDependent,
	}
	meta.resetProducers()
	g.resources = append(g.resources, meta)
	return nil
}

// RegisterPass adds a pass with the given queue affinity and recording
// callback. forceSeparate keeps the pass in its own submission unit,
// bypassing aggregation and merging.
func (g *Graph) RegisterPass(name string, q Queue, record RecordFunc, forceSeparate bool) (PassHandle, error) {
	if !g.inFrame || !g.inPreRegister {
		return InvalidPassHandle, fmt.Errorf("RegisterPass outside pre-registration: %w", ErrProtocolViolation)
	}
	if len(g.nodes) >= MaxPasses {
		return InvalidPassHandle, fmt.Errorf("pass table full (%d): %w", MaxPasses, ErrCapacityExceeded)
	}

	h := PassHandle(len(g.nodes))
	g.nodes = append(g.nodes, passNode{})
	g.nodes[h].reset(name, q, record, forceSeparate)
	return h, nil
}

// EndRegistration closes the pre-registration phase: the resource table is
// sorted by identifier (enabling binary-search lookup) and checked for
// duplicates. Dependency declaration becomes valid afterwards.
func (g *Graph) EndRegistration() error {
	if !g.inFrame || !g.inPreRegister {
		return fmt.Errorf("EndRegistration outside pre-registration: %w", ErrProtocolViolation)
	}

	sortResources(g.resources)
	for i := 0; i+1 < len(g.resources); i++ {
		if g.resources[i].id == g.resources[i+1].id {
			return fmt.Errorf("resource id %d registered twice: %w", g.resources[i].id, ErrDuplicateResource)
		}
	}

	g.inPreRegister = false
	return nil
}

// DeclareInput appends a read dependency to a pass. The expected state must
// be read-compatible, and executable on the pass's queue.
func (g *Graph) DeclareInput(h PassHandle, resID uint64, expected ResourceState) error {
	node, err := g.declTarget(h, "DeclareInput")
	if err != nil {
		return err
	}
	if expected&ReadStates == 0 {
		return fmt.Errorf("input state %v of pass %q is not read-compatible: %w",
			expected, node.name, ErrProtocolViolation)
	}
	if node.queue == QueueCompute && expected&InvalidComputeStates != 0 {
		return fmt.Errorf("input state %v of pass %q: %w", expected, node.name, ErrUnsupportedTransition)
	}

	// Producer existence is deferred to Build; registration order between
	// declaring inputs and outputs is unconstrained.
	node.inputs = append(node.inputs, dependency{resID: resID, state: expected})
	return nil
}

// DeclareOutput appends a write dependency to a pass and records the pass
// as a producer of the resource.
func (g *Graph) DeclareOutput(h PassHandle, resID uint64, expected ResourceState) error {
	node, err := g.declTarget(h, "DeclareOutput")
	if err != nil {
		return err
	}
	if expected&WriteStates == 0 {
		return fmt.Errorf("output state %v of pass %q is not writable: %w",
			expected, node.name, ErrProtocolViolation)
	}
	if node.queue == QueueCompute && expected&InvalidComputeStates != 0 {
		return fmt.Errorf("output state %v of pass %q: %w", expected, node.name, ErrUnsupportedTransition)
	}

	pos := findResource(g.resources, resID)
	if pos == -1 {
		return fmt.Errorf("output resource %d of pass %q not registered: %w",
			resID, node.name, ErrGraphInvalid)
	}

	res := &g.resources[pos]
	if int(res.numProducers) >= MaxProducers {
		return fmt.Errorf("resource %d has more than %d producers: %w",
			resID, MaxProducers, ErrCapacityExceeded)
	}
	res.producers[res.numProducers] = h
	res.numProducers++

	node.outputs = append(node.outputs, dependency{resID: resID, state: expected})
	return nil
}

// declTarget validates the phase and handle shared by both declarations.
func (g *Graph) declTarget(h PassHandle, op string) (*passNode, error) {
	if !g.inFrame || g.inPreRegister {
		return nil, fmt.Errorf("%s outside declaration phase: %w", op, ErrProtocolViolation)
	}
	if !h.IsValid() || int(h) >= len(g.nodes) {
		return nil, fmt.Errorf("%s: invalid pass handle %d: %w", op, h, ErrProtocolViolation)
	}
	return &g.nodes[h], nil
}

// Build freezes the declared graph and compiles it: edges are resolved,
// passes sorted into batched execution order, barriers planned, passes
// fused into aggregate nodes, and one task per aggregate emitted into ts
// (which the caller finalizes and enqueues).
//
// On error the frame is abandoned; the driver may skip it and call
// BeginFrame again.
func (g *Graph) Build(ts *taskpool.TaskSet) error {
	if !g.inFrame || g.inPreRegister {
		return fmt.Errorf("Build outside declaration phase: %w", ErrProtocolViolation)
	}
	g.inFrame = false

	if len(g.nodes) == 0 {
		return fmt.Errorf("no passes registered: %w", ErrGraphInvalid)
	}

	adj, err := g.resolveEdges()
	if err != nil {
		return err
	}
	if err := g.sortNodes(adj); err != nil {
		return err
	}
	g.planBarriers()
	g.joinNodes()
	g.mergeSmallNodes()
	g.buildTaskGraph(ts)

	g.built = true
	slogger().Debug("framegraph: frame built",
		"passes", len(g.nodes),
		"aggregates", len(g.aggregates),
		"batches", int(g.aggregates[len(g.aggregates)-1].batch)+1)
	return nil
}

// Reset drops all display-surface-dependent resource records, compacting
// the table in place. Call on resize, outside an open frame.
func (g *Graph) Reset() error {
	if g.inFrame {
		return fmt.Errorf("Reset during an open frame: %w", ErrProtocolViolation)
	}

	kept := g.resources[:0]
	for i := range g.resources {
		if !g.resources[i].surfaceDependent {
			kept = append(kept, g.resources[i])
		}
	}
	g.resources = kept
	g.prevFrameCount = len(kept)
	return nil
}

// RemoveResource deletes one tracked record, preserving sort order.
func (g *Graph) RemoveResource(id uint64) error {
	return g.RemoveResources([]uint64{id})
}

// RemoveResources deletes several tracked records, preserving sort order.
// Unknown identifiers are ignored.
func (g *Graph) RemoveResources(ids []uint64) error {
	if g.inFrame {
		return fmt.Errorf("RemoveResources during an open frame: %w", ErrProtocolViolation)
	}

	for _, id := range ids {
		pos := findResource(g.resources, id)
		if pos == -1 {
			continue
		}
		copy(g.resources[pos:], g.resources[pos+1:])
		g.resources = g.resources[:len(g.resources)-1]
	}
	g.prevFrameCount = len(g.resources)
	return nil
}

// SetFrameWaitObject installs the notification signaled when the frame's
// terminal aggregate node completes. Install before enqueuing the frame's
// tasks; the object is consumed by the notification.
func (g *Graph) SetFrameWaitObject(w *taskpool.WaitObject) {
	g.frameWait = w
}

// CompletionFence returns the completion fence value of the aggregate node
// containing the given pass. Zero means the aggregate has not executed yet.
// For merged runs this is the run's shared fence, back-filled to every
// member on submission.
func (g *Graph) CompletionFence(h PassHandle) (uint64, error) {
	if !g.built {
		return 0, fmt.Errorf("CompletionFence before Build: %w", ErrProtocolViolation)
	}
	if !h.IsValid() || int(h) >= len(g.nodes) {
		return 0, fmt.Errorf("CompletionFence: invalid pass handle %d: %w", h, ErrProtocolViolation)
	}

	sorted := g.mapping[h]
	agg := g.nodes[sorted].aggIndex
	return g.aggregates[agg].fence.Load(), nil
}

// FrameFence returns the terminal aggregate node's completion fence value,
// or zero if the frame has not finished executing.
func (g *Graph) FrameFence() (uint64, error) {
	if !g.built {
		return 0, fmt.Errorf("FrameFence before Build: %w", ErrProtocolViolation)
	}
	return g.aggregates[len(g.aggregates)-1].fence.Load(), nil
}
