package framegraph

import (
	"testing"

	"github.com/gogpu/framegraph/taskpool"
)

// =============================================================================
// Edge Resolution
// =============================================================================

func TestResolveEdgesDeduplicates(t *testing.T) {
	g := New(newFakeProvider())
	if err := g.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterResource(resGBuffer, nil, StateCommon, false); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterResource(resShadow, nil, StateCommon, false); err != nil {
		t.Fatal(err)
	}
	producer, err := g.RegisterPass("producer", QueueDirect, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	consumer, err := g.RegisterPass("consumer", QueueDirect, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.EndRegistration(); err != nil {
		t.Fatal(err)
	}

	// Two resources from the same producer collapse to one edge.
	if err := g.DeclareOutput(producer, resGBuffer, StateUnorderedAccess); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareOutput(producer, resShadow, StateUnorderedAccess); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareInput(consumer, resGBuffer, StateNonPixelShaderResource); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareInput(consumer, resShadow, StateNonPixelShaderResource); err != nil {
		t.Fatal(err)
	}

	adj, err := g.resolveEdges()
	if err != nil {
		t.Fatal(err)
	}
	if got := len(adj[producer]); got != 1 {
		t.Errorf("len(adj[producer]) = %d, want 1", got)
	}
	if got := g.nodes[consumer].indegree; got != 1 {
		t.Errorf("indegree(consumer) = %d, want 1", got)
	}
}

func TestResolveEdgesPingPong(t *testing.T) {
	g := New(newFakeProvider())
	if err := g.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterResource(resHDR, nil, StateNonPixelShaderResource, false); err != nil {
		t.Fatal(err)
	}
	blur, err := g.RegisterPass("blur", QueueCompute, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.EndRegistration(); err != nil {
		t.Fatal(err)
	}

	if err := g.DeclareInput(blur, resHDR, StateNonPixelShaderResource); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareOutput(blur, resHDR, StateUnorderedAccess); err != nil {
		t.Fatal(err)
	}

	adj, err := g.resolveEdges()
	if err != nil {
		t.Fatal(err)
	}
	if got := len(adj[blur]); got != 0 {
		t.Errorf("len(adj[blur]) = %d, want 0: self-producer must not self-edge", got)
	}
	if got := g.nodes[blur].indegree; got != 0 {
		t.Errorf("indegree(blur) = %d, want 0", got)
	}
	if got := g.nodes[blur].outputMask; got != 1 {
		t.Errorf("outputMask = %#x, want 0x1", got)
	}
}

func TestResolveEdgesUnregisteredInput(t *testing.T) {
	g := New(newFakeProvider())
	if err := g.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	p, err := g.RegisterPass("p", QueueDirect, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.EndRegistration(); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareInput(p, 999, StateCopySource); err != nil {
		t.Fatal(err)
	}

	if _, err := g.resolveEdges(); err == nil {
		t.Error("resolveEdges() = nil, want error for unregistered input")
	}
}

// =============================================================================
// Topological Sort
// =============================================================================

func TestSortNodesBatchesAndMapping(t *testing.T) {
	g := New(newFakeProvider())
	if err := g.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterResource(resGBuffer, nil, StateCommon, false); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterResource(resShadow, nil, StateCommon, false); err != nil {
		t.Fatal(err)
	}

	// Registered in reverse dependency order: late reads what mid writes,
	// mid reads what early writes.
	late, err := g.RegisterPass("late", QueueDirect, mark("late"), false)
	if err != nil {
		t.Fatal(err)
	}
	mid, err := g.RegisterPass("mid", QueueDirect, mark("mid"), false)
	if err != nil {
		t.Fatal(err)
	}
	early, err := g.RegisterPass("early", QueueDirect, mark("early"), false)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.EndRegistration(); err != nil {
		t.Fatal(err)
	}

	if err := g.DeclareOutput(early, resGBuffer, StateUnorderedAccess); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareInput(mid, resGBuffer, StateNonPixelShaderResource); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareOutput(mid, resShadow, StateUnorderedAccess); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareInput(late, resShadow, StateNonPixelShaderResource); err != nil {
		t.Fatal(err)
	}

	if err := g.Build(taskpool.NewTaskSet()); err != nil {
		t.Fatal(err)
	}

	wantOrder := []string{"early", "mid", "late"}
	for i, want := range wantOrder {
		if got := g.nodes[i].name; got != want {
			t.Errorf("nodes[%d].name = %q, want %q", i, got, want)
		}
		if got := g.nodes[i].batch; got != int32(i) {
			t.Errorf("nodes[%d].batch = %d, want %d", i, got, i)
		}
	}

	// Pre-sort handles translate through the mapping.
	if got := g.mapping[early]; got != 0 {
		t.Errorf("mapping[early] = %d, want 0", got)
	}
	if got := g.mapping[late]; got != 2 {
		t.Errorf("mapping[late] = %d, want 2", got)
	}
}

func TestSortIsStableWithinBatch(t *testing.T) {
	g := New(newFakeProvider())
	ts := taskpool.NewTaskSet()
	buildDeferredFrame(t, g, ts)

	// GBuffer and Shadow share batch 0; registration order is preserved.
	if got, want := g.nodes[0].name, "GBuffer"; got != want {
		t.Errorf("nodes[0].name = %q, want %q", got, want)
	}
	if got, want := g.nodes[1].name, "Shadow"; got != want {
		t.Errorf("nodes[1].name = %q, want %q", got, want)
	}

	// Batches never decrease along execution order.
	for i := 1; i < len(g.nodes); i++ {
		if g.nodes[i].batch < g.nodes[i-1].batch {
			t.Errorf("batch order violated at %d: %d after %d",
				i, g.nodes[i].batch, g.nodes[i-1].batch)
		}
	}
}

func TestMultipleProducersSequence(t *testing.T) {
	g := New(newFakeProvider())
	if err := g.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterResource(resHDR, nil, StateCommon, false); err != nil {
		t.Fatal(err)
	}

	// Accumulation chain: base writes, add reads the previous contents
	// and writes in place, resolve reads the result.
	base, err := g.RegisterPass("base", QueueDirect, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	add, err := g.RegisterPass("add", QueueDirect, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	resolve, err := g.RegisterPass("resolve", QueueDirect, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.EndRegistration(); err != nil {
		t.Fatal(err)
	}

	if err := g.DeclareOutput(base, resHDR, StateUnorderedAccess); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareInput(add, resHDR, StateNonPixelShaderResource); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareOutput(add, resHDR, StateUnorderedAccess); err != nil {
		t.Fatal(err)
	}
	if err := g.DeclareInput(resolve, resHDR, StateNonPixelShaderResource); err != nil {
		t.Fatal(err)
	}

	if err := g.Build(taskpool.NewTaskSet()); err != nil {
		t.Fatal(err)
	}

	// resolve depends on both producers; add depends on base only.
	if got := g.nodes[g.mapping[base]].batch; got != 0 {
		t.Errorf("batch(base) = %d, want 0", got)
	}
	if got := g.nodes[g.mapping[add]].batch; got != 1 {
		t.Errorf("batch(add) = %d, want 1", got)
	}
	if got := g.nodes[g.mapping[resolve]].batch; got != 2 {
		t.Errorf("batch(resolve) = %d, want 2", got)
	}
}
