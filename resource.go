package framegraph

import "sort"

// Capacity limits of the per-frame tables. The graph is rebuilt every frame,
// so all storage is fixed-capacity and handle-addressed; overflowing any of
// these is ErrCapacityExceeded.
const (
	// MaxPasses is the maximum number of passes registered per frame.
	MaxPasses = 32

	// MaxResources is the maximum number of tracked resources.
	MaxResources = 64

	// MaxProducers bounds how many passes may write one resource in a
	// single frame.
	MaxProducers = 6

	// NumDummyResources reserves the identifier range [0, NumDummyResources)
	// for dummy resources: pure ordering handles exempt from all barrier
	// logic. Real resources must use identifiers at or above this value.
	NumDummyResources = 8
)

// DummyResourceID returns the identifier of the i-th dummy resource.
// Dummy resources carry dependencies between passes that need ordering but
// no state transition; they must still be registered (with a nil backing).
func DummyResourceID(i int) uint64 {
	return uint64(i)
}

// isDummyID reports whether id falls in the reserved dummy range.
func isDummyID(id uint64) bool {
	return id < NumDummyResources
}

// resourceMeta is one tracked resource record.
type resourceMeta struct {
	// id is the stable 64-bit identifier. Records are kept sorted by id
	// once registration closes, enabling binary-search lookup.
	id uint64

	// backing is the opaque backing object, handed through to barriers.
	backing any

	// state is the currently tracked synchronization state.
	state ResourceState

	// surfaceDependent records are dropped by Reset (resize); others
	// persist across frames.
	surfaceDependent bool

	// producers lists the passes writing this resource this frame, as
	// pre-sort handles. Reset every frame.
	producers    [MaxProducers]PassHandle
	numProducers int32
}

// resetProducers clears the per-frame producer list.
func (m *resourceMeta) resetProducers() {
	m.numProducers = 0
	for i := range m.producers {
		m.producers[i] = InvalidPassHandle
	}
}

// findResource returns the index of id in the sorted resource table, or -1.
// Valid only while the table is sorted: between EndRegistration and the
// next BeginFrame for the full table, and over the carried-over prefix
// during pre-registration.
func findResource(resources []resourceMeta, id uint64) int {
	i := sort.Search(len(resources), func(i int) bool {
		return resources[i].id >= id
	})
	if i < len(resources) && resources[i].id == id {
		return i
	}
	return -1
}

// sortResources orders the table by identifier.
func sortResources(resources []resourceMeta) {
	sort.Slice(resources, func(a, b int) bool {
		return resources[a].id < resources[b].id
	})
}
