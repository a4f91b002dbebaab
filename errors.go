package framegraph

import "errors"

// Errors reported by graph construction. All of them indicate programmer or
// configuration mistakes detected synchronously at the violating call; none
// are retried. They are returned (wrapped with detail) rather than panicked
// so a frame driver can skip the frame or surface a diagnostic instead of
// terminating.
var (
	// ErrProtocolViolation is returned when an API is invoked outside its
	// valid frame phase (for example DeclareInput before EndRegistration).
	ErrProtocolViolation = errors.New("framegraph: call outside its valid phase")

	// ErrCapacityExceeded is returned when a fixed-capacity table
	// (passes, resources, or per-resource producers) overflows.
	ErrCapacityExceeded = errors.New("framegraph: fixed-capacity table overflow")

	// ErrGraphInvalid is returned when the declared dependencies do not
	// form a DAG, or reference resources that were never registered.
	ErrGraphInvalid = errors.New("framegraph: graph is not a valid DAG")

	// ErrDuplicateResource is returned by EndRegistration when two live
	// records share an identifier.
	ErrDuplicateResource = errors.New("framegraph: duplicate resource id")

	// ErrUnsupportedTransition is returned when a declared state is not
	// executable on the pass's queue affinity.
	ErrUnsupportedTransition = errors.New("framegraph: transition not supported on queue")
)
