package docserve

import "time"

// State is a coordinator state.
//
// A run moves Building → Serving, and in watch mode loops through
// Stopping → Building → Serving on every change. Failed is terminal.
type State string

const (
	// StateBuilding means the documentation is being generated.
	StateBuilding State = "building"

	// StateServing means an HTTP server is running.
	StateServing State = "serving"

	// StateStopping means the server is draining before a rebuild.
	StateStopping State = "stopping"

	// StateFailed means a fatal error ended the run.
	StateFailed State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// StateChange describes one coordinator transition.
//
// StateChange values are passed to callbacks registered with
// [WithStateCallback].
type StateChange struct {
	// State is the state being entered.
	State State

	// Cycle identifies the build cycle. A new cycle starts with the initial
	// build and with every change event.
	Cycle string

	// Addr is the listen address, set when entering [StateServing].
	Addr string

	// Stale is true when serving the previous build because the rebuild of
	// this cycle failed.
	Stale bool

	// Err is the rebuild error when Stale is true, or the fatal error when
	// entering [StateFailed].
	Err error

	// At is when the transition happened.
	At time.Time
}
