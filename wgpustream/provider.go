package wgpustream

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
)

// DefaultWaitTimeout bounds how long a fence wait may block.
const DefaultWaitTimeout = 5 * time.Second

// pendingBuffer is a submitted command buffer awaiting completion.
type pendingBuffer struct {
	buf   hal.CommandBuffer
	value uint64
}

// queueState tracks one HAL queue: its fence, the submission counter, and
// the in-flight command buffers.
type queueState struct {
	queue hal.Queue
	fence hal.Fence

	mu        sync.Mutex
	lastValue uint64
	pending   []pendingBuffer
}

// Provider implements framegraph.StreamProvider over a HAL device.
type Provider struct {
	device  hal.Device
	queues  [framegraph.NumQueues]*queueState
	timeout time.Duration
}

// Option configures a Provider.
type Option func(*Provider)

// WithWaitTimeout overrides the fence wait timeout.
func WithWaitTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// New creates a provider over the given device and queues. compute may be
// nil, in which case compute-queue submissions go to the direct queue
// (still tracked by their own fence).
func New(device hal.Device, direct, compute hal.Queue, opts ...Option) (*Provider, error) {
	p := &Provider{device: device, timeout: DefaultWaitTimeout}
	for _, opt := range opts {
		opt(p)
	}

	if compute == nil {
		compute = direct
	}
	halQueues := [framegraph.NumQueues]hal.Queue{direct, compute}

	for q := range p.queues {
		fence, err := device.CreateFence()
		if err != nil {
			for _, qs := range p.queues[:q] {
				device.DestroyFence(qs.fence)
			}
			return nil, fmt.Errorf("create fence for %v queue: %w", framegraph.Queue(q), err)
		}
		p.queues[q] = &queueState{queue: halQueues[q], fence: fence}
	}

	return p, nil
}

// Stream returns a fresh command stream for the given queue. The encoder is
// created lazily so SetLabel can name it first.
func (p *Provider) Stream(q framegraph.Queue) framegraph.CommandStream {
	return &Stream{provider: p, queue: q}
}

// Execute ends the stream's encoding and submits it, returning the queue's
// next fence value. Submission failures are logged; the returned value is
// still handed out so dependent waits time out instead of deadlocking.
func (p *Provider) Execute(cs framegraph.CommandStream) uint64 {
	s := cs.(*Stream)
	qs := p.queues[s.queue]

	qs.mu.Lock()
	defer qs.mu.Unlock()
	qs.lastValue++
	value := qs.lastValue

	if err := s.ensure(); err != nil {
		slogger().Error("wgpustream: create encoder", "label", s.label, "err", err)
		return value
	}
	buf, err := s.encoder.EndEncoding()
	if err != nil {
		slogger().Error("wgpustream: end encoding", "label", s.label, "err", err)
		return value
	}

	if err := qs.queue.Submit([]hal.CommandBuffer{buf}, qs.fence, value); err != nil {
		slogger().Error("wgpustream: submit", "label", s.label, "err", err)
		p.device.FreeCommandBuffer(buf)
		return value
	}

	qs.pending = append(qs.pending, pendingBuffer{buf: buf, value: value})
	return value
}

// WaitForDirectQueue blocks until the direct queue reaches fence value v.
func (p *Provider) WaitForDirectQueue(v uint64) {
	p.wait(framegraph.QueueDirect, v)
}

// WaitForComputeQueue blocks until the compute queue reaches fence value v.
func (p *Provider) WaitForComputeQueue(v uint64) {
	p.wait(framegraph.QueueCompute, v)
}

func (p *Provider) wait(q framegraph.Queue, v uint64) {
	if v == 0 {
		return
	}

	qs := p.queues[q]
	ok, err := p.device.Wait(qs.fence, v, p.timeout)
	if err != nil || !ok {
		slogger().Warn("wgpustream: fence wait", "queue", q.String(), "value", v,
			"ok", ok, "err", err)
		return
	}
	qs.reclaim(p.device, v)
}

// reclaim frees command buffers whose fence value has been reached.
func (qs *queueState) reclaim(device hal.Device, reached uint64) {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	kept := qs.pending[:0]
	for _, pb := range qs.pending {
		if pb.value <= reached {
			device.FreeCommandBuffer(pb.buf)
		} else {
			kept = append(kept, pb)
		}
	}
	qs.pending = kept
}

// Flush waits for both queues to drain and frees all retained buffers.
func (p *Provider) Flush() {
	for q, qs := range p.queues {
		qs.mu.Lock()
		last := qs.lastValue
		qs.mu.Unlock()
		p.wait(framegraph.Queue(q), last)
	}
}

// Close drains both queues and destroys the fences. The provider must not
// be used afterwards.
func (p *Provider) Close() {
	p.Flush()
	for _, qs := range p.queues {
		qs.mu.Lock()
		for _, pb := range qs.pending {
			p.device.FreeCommandBuffer(pb.buf)
		}
		qs.pending = nil
		qs.mu.Unlock()
		p.device.DestroyFence(qs.fence)
	}
}

// Stream is one recording surface backed by a HAL command encoder. Not safe
// for concurrent use; the executing task owns it exclusively.
type Stream struct {
	provider *Provider
	queue    framegraph.Queue
	label    string
	encoder  hal.CommandEncoder
}

// SetLabel names the stream. Effective only before the first recorded
// command, since the encoder is created on first use.
func (s *Stream) SetLabel(label string) {
	s.label = label
}

// Encoder exposes the underlying HAL encoder for pass callbacks that
// record real GPU work. Creates the encoder on first call.
func (s *Stream) Encoder() (hal.CommandEncoder, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s.encoder, nil
}

// Transition records the planned state transitions as HAL texture
// barriers. Entries without a hal.Texture backing carry no HAL meaning and
// are skipped.
func (s *Stream) Transition(barriers []framegraph.Barrier) {
	halBarriers := make([]hal.TextureBarrier, 0, len(barriers))
	for _, b := range barriers {
		tex, ok := b.Backing.(hal.Texture)
		if !ok {
			continue
		}
		halBarriers = append(halBarriers, hal.TextureBarrier{
			Texture: tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: textureUsage(b.Before),
				NewUsage: textureUsage(b.After),
			},
		})
	}
	if len(halBarriers) == 0 {
		return
	}

	if err := s.ensure(); err != nil {
		slogger().Error("wgpustream: create encoder", "label", s.label, "err", err)
		return
	}
	s.encoder.TransitionTextures(halBarriers)
}

func (s *Stream) ensure() error {
	if s.encoder != nil {
		return nil
	}
	enc, err := s.provider.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: s.label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(s.label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	s.encoder = enc
	return nil
}
