// Command fgdemo builds a deferred-rendering frame graph against a
// simulated GPU, executes it through the task pool, and dumps the compiled
// schedule as YAML.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/taskpool"
)

func main() {
	var (
		frames  = flag.Int("frames", 3, "number of frames to execute")
		workers = flag.Int("workers", 4, "worker goroutines in the task pool")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		framegraph.SetLogger(logger)
		taskpool.SetLogger(logger)
	}

	provider := newSimProvider()
	graph := framegraph.New(provider, framegraph.WithPresentResource(resBackbuffer))
	pool := taskpool.New(*workers)
	defer pool.Shutdown()
	defer graph.Shutdown()

	for frame := range *frames {
		ts := taskpool.NewTaskSet()
		if err := buildFrame(graph, ts); err != nil {
			log.Fatalf("frame %d: %v", frame, err)
		}

		if frame == 0 {
			snap, err := graph.Snapshot()
			if err != nil {
				log.Fatal(err)
			}
			out, err := snap.YAML()
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(out)
		}

		wait := taskpool.NewWaitObject()
		graph.SetFrameWaitObject(wait)

		ts.Finalize()
		pool.EnqueueSet(ts)
		for !pool.TryFlush() {
		}
		wait.Wait()

		fence, err := graph.FrameFence()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("frame %d done, direct-queue fence %d\n", frame, fence)
	}

	fmt.Printf("executed %d submissions across %d frames\n", provider.submissions.Load(), *frames)
}

// Resource identifiers of the demo frame. Everything above the dummy range.
const (
	resDepth uint64 = 100 + iota
	resGBufferColor
	resGBufferNormal
	resShadowMask
	resAO
	resHDR
	resBackbuffer
)

// buildFrame registers the demo's deferred pipeline: geometry fills the
// G-Buffer, shadow and ambient occlusion run on the compute queue, lighting
// composites into HDR, and post writes the backbuffer.
func buildFrame(g *framegraph.Graph, ts *taskpool.TaskSet) error {
	if err := g.BeginFrame(); err != nil {
		return err
	}

	resources := []struct {
		id      uint64
		state   framegraph.ResourceState
		surface bool
	}{
		{resDepth, framegraph.StateCommon, false},
		{resGBufferColor, framegraph.StateCommon, false},
		{resGBufferNormal, framegraph.StateCommon, false},
		{resShadowMask, framegraph.StateCommon, false},
		{resAO, framegraph.StateCommon, false},
		{resHDR, framegraph.StateCommon, false},
		{resBackbuffer, framegraph.StateCommon, true},
	}
	for _, r := range resources {
		if err := g.RegisterResource(r.id, nil, r.state, r.surface); err != nil {
			return err
		}
	}

	geometry, err := g.RegisterPass("Geometry", framegraph.QueueDirect, record("Geometry"), false)
	if err != nil {
		return err
	}
	shadow, err := g.RegisterPass("Shadow", framegraph.QueueCompute, record("Shadow"), false)
	if err != nil {
		return err
	}
	ao, err := g.RegisterPass("AO", framegraph.QueueCompute, record("AO"), false)
	if err != nil {
		return err
	}
	lighting, err := g.RegisterPass("Lighting", framegraph.QueueDirect, record("Lighting"), false)
	if err != nil {
		return err
	}
	post, err := g.RegisterPass("Post", framegraph.QueueDirect, record("Post"), false)
	if err != nil {
		return err
	}
	if err := g.EndRegistration(); err != nil {
		return err
	}

	decls := []struct {
		declare func(framegraph.PassHandle, uint64, framegraph.ResourceState) error
		pass    framegraph.PassHandle
		res     uint64
		state   framegraph.ResourceState
	}{
		{g.DeclareOutput, geometry, resDepth, framegraph.StateDepthWrite},
		{g.DeclareOutput, geometry, resGBufferColor, framegraph.StateRenderTarget},
		{g.DeclareOutput, geometry, resGBufferNormal, framegraph.StateRenderTarget},
		{g.DeclareInput, shadow, resDepth, framegraph.StateNonPixelShaderResource},
		{g.DeclareOutput, shadow, resShadowMask, framegraph.StateUnorderedAccess},
		{g.DeclareInput, ao, resDepth, framegraph.StateNonPixelShaderResource},
		{g.DeclareOutput, ao, resAO, framegraph.StateUnorderedAccess},
		{g.DeclareInput, lighting, resGBufferColor, framegraph.StateAllShaderResource},
		{g.DeclareInput, lighting, resGBufferNormal, framegraph.StateAllShaderResource},
		{g.DeclareInput, lighting, resShadowMask, framegraph.StateNonPixelShaderResource},
		{g.DeclareInput, lighting, resAO, framegraph.StateNonPixelShaderResource},
		{g.DeclareOutput, lighting, resHDR, framegraph.StateRenderTarget},
		{g.DeclareInput, post, resHDR, framegraph.StatePixelShaderResource},
		{g.DeclareOutput, post, resBackbuffer, framegraph.StateRenderTarget},
	}
	for _, d := range decls {
		if err := d.declare(d.pass, d.res, d.state); err != nil {
			return err
		}
	}

	return g.Build(ts)
}

func record(name string) framegraph.RecordFunc {
	return func(cs framegraph.CommandStream) {
		if s, ok := cs.(*simStream); ok {
			s.passes = append(s.passes, name)
		}
	}
}

// simProvider is an in-memory StreamProvider standing in for a GPU: fence
// counters per queue, no real submission.
type simProvider struct {
	mu          sync.Mutex
	fences      [framegraph.NumQueues]uint64
	submissions atomic.Int64
}

func newSimProvider() *simProvider {
	return &simProvider{}
}

type simStream struct {
	queue    framegraph.Queue
	label    string
	barriers int
	passes   []string
}

func (s *simStream) SetLabel(label string) { s.label = label }

func (s *simStream) Transition(barriers []framegraph.Barrier) {
	s.barriers += len(barriers)
}

func (p *simProvider) Stream(q framegraph.Queue) framegraph.CommandStream {
	return &simStream{queue: q}
}

func (p *simProvider) Execute(cs framegraph.CommandStream) uint64 {
	s := cs.(*simStream)
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fences[s.queue]++
	p.submissions.Add(1)
	return p.fences[s.queue]
}

func (p *simProvider) WaitForDirectQueue(v uint64)  {}
func (p *simProvider) WaitForComputeQueue(v uint64) {}
