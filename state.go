package framegraph

import "strings"

// ResourceState is a bitmask describing the synchronization state of a
// tracked resource.
//
// Read states are compatible with each other: a resource may legally be in
// a union of several read bits at once (StateGenericRead and
// StateAllShaderResource are such unions). Write states are mutually
// exclusive — a resource in StateRenderTarget holds exactly that bit.
//
// State satisfaction is a superset test, not equality: the tracked state
// satisfies a required state when every required bit is present (see
// ResourceState.Satisfies). The barrier planner emits a transition whenever
// the test fails.
type ResourceState uint32

const (
	// StateCommon is the queue-agnostic idle state. The display surface is
	// handed to the presenter in this state (see StatePresent).
	StateCommon ResourceState = 1 << iota

	// StateVertexAndConstantBuffer marks vertex/constant buffer reads.
	StateVertexAndConstantBuffer

	// StateIndexBuffer marks index buffer reads.
	StateIndexBuffer

	// StateRenderTarget marks color attachment writes. Write state.
	StateRenderTarget

	// StateUnorderedAccess marks unordered (storage) access. Write state.
	StateUnorderedAccess

	// StateDepthWrite marks depth attachment writes. Write state.
	StateDepthWrite

	// StateDepthRead marks read-only depth access.
	StateDepthRead

	// StateNonPixelShaderResource marks shader reads outside the pixel
	// stage (compute, vertex).
	StateNonPixelShaderResource

	// StatePixelShaderResource marks pixel-stage shader reads.
	StatePixelShaderResource

	// StateCopyDest marks copy destination writes. Write state.
	StateCopyDest

	// StateCopySource marks copy source reads.
	StateCopySource

	// StateAccelerationStructure marks ray-tracing acceleration structure
	// access.
	StateAccelerationStructure
)

// StatePresent is the state the display surface must reach before
// presentation. It aliases StateCommon.
const StatePresent = StateCommon

// Read-compatible unions. These values are supersets of several read bits
// and may be declared where any of their members is acceptable.
const (
	// StateAllShaderResource is shader-readable from any stage.
	StateAllShaderResource = StateNonPixelShaderResource | StatePixelShaderResource

	// StateGenericRead is the union of every buffer-read state.
	StateGenericRead = StateVertexAndConstantBuffer | StateIndexBuffer |
		StateAllShaderResource | StateCopySource
)

// Validation masks used at declaration time.
const (
	// ReadStates is the set of states an input may request.
	ReadStates = StateGenericRead | StateDepthRead |
		StateAccelerationStructure | StateCommon

	// WriteStates is the set of states an output may request.
	WriteStates = StateRenderTarget | StateUnorderedAccess |
		StateDepthWrite | StateCopyDest | StateCommon

	// InvalidComputeStates are states an async-compute queue cannot
	// transition into or out of natively; transitions touching them are
	// routed through the direct queue.
	InvalidComputeStates = StateRenderTarget | StateDepthWrite |
		StateDepthRead | StatePixelShaderResource | StateIndexBuffer
)

// Satisfies reports whether s already covers every bit of required.
func (s ResourceState) Satisfies(required ResourceState) bool {
	return s&required == required
}

// stateNames maps individual state bits to their display names.
var stateNames = []struct {
	bit  ResourceState
	name string
}{
	{StateCommon, "Common"},
	{StateVertexAndConstantBuffer, "VertexAndConstantBuffer"},
	{StateIndexBuffer, "IndexBuffer"},
	{StateRenderTarget, "RenderTarget"},
	{StateUnorderedAccess, "UnorderedAccess"},
	{StateDepthWrite, "DepthWrite"},
	{StateDepthRead, "DepthRead"},
	{StateNonPixelShaderResource, "NonPixelShaderResource"},
	{StatePixelShaderResource, "PixelShaderResource"},
	{StateCopyDest, "CopyDest"},
	{StateCopySource, "CopySource"},
	{StateAccelerationStructure, "AccelerationStructure"},
}

// String returns the set bits joined with "|", or "None" for the zero value.
func (s ResourceState) String() string {
	if s == 0 {
		return "None"
	}

	var b strings.Builder
	for _, entry := range stateNames {
		if s&entry.bit != 0 {
			if b.Len() > 0 {
				b.WriteByte('|')
			}
			b.WriteString(entry.name)
		}
	}
	return b.String()
}
