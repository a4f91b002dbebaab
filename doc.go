// Package framegraph schedules one frame of GPU work as a dependency graph.
//
// Passes declare the resources they read and write; the graph derives
// producer→consumer edges from those declarations, orders passes with a
// topological sort, assigns each one a batch (its longest-path depth, so
// passes in the same batch are mutually independent), plans the resource
// state transitions each pass needs, fuses same-batch same-queue passes
// into aggregate submission units, and emits one task per aggregate into a
// taskpool.TaskSet for concurrent execution.
//
// The graph is rebuilt every frame and bounded by fixed capacities
// (MaxPasses, MaxResources, MaxProducers); it is a frame scheduler, not a
// general build system. Resource records can persist across frames;
// records tied to the display surface are dropped by Reset on resize.
//
// # Frame lifecycle
//
//	g := framegraph.New(provider)
//
//	// Every frame:
//	g.BeginFrame()
//	g.RegisterResource(idGBuffer, tex, framegraph.StateCommon, true)
//	h, _ := g.RegisterPass("GBuffer", framegraph.QueueDirect, record, false)
//	g.EndRegistration()
//	g.DeclareOutput(h, idGBuffer, framegraph.StateRenderTarget)
//	...
//	ts := taskpool.NewTaskSet()
//	g.Build(ts)
//	ts.Finalize()
//	pool.EnqueueSet(ts)
//	for !pool.TryFlush() {
//	}
//
// Graph construction is strictly single-threaded: all calls between
// BeginFrame and Build must come from one goroutine. Execution is
// concurrent; the only cross-thread handoff is each aggregate's completion
// fence, written once with release ordering and read with acquire ordering.
//
// The GPU itself is consumed through the narrow CommandStream and
// StreamProvider interfaces; package wgpustream implements them over
// gogpu/wgpu.
package framegraph
