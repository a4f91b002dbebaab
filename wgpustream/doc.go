// Package wgpustream implements framegraph.StreamProvider over the
// gogpu/wgpu HAL.
//
// A Provider wraps an injected hal.Device and one or two hal.Queues. Each
// framegraph queue gets its own fence with a monotonically increasing
// submission counter; Execute submits a finished encoder against that
// fence and returns the counter value. Cross-queue waits are CPU-side
// fence waits, since the HAL exposes no GPU-side queue wait.
//
// Command buffers are retained after submission and freed once a wait
// observes their fence value, or at Close.
package wgpustream
