// Package state defines the states of the gateway session cycle.
package state

import (
	"sync/atomic"
)

// State captures the phase of the session cycle: Reset, Assign, Poll, or
// CycleWait. The cycle repeats forever; there is no terminal state.
type State uint32

const (
	// Reset is the state in which the roster generations are rotated: the
	// current generation is snapshotted into the previous one, and the
	// current and new generations are cleared.
	Reset State = iota

	// Assign is the admission phase, in which the gateway broadcasts join
	// invitations and enrolls the nodes that answer.
	Assign

	// Poll is the data-collection phase, in which the gateway polls each
	// enrolled node in turn for telemetry.
	Poll

	// CycleWait is the state in which the gateway sleeps until the next
	// fixed-period cycle boundary.
	CycleWait
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case Reset:
		return "Reset"
	case Assign:
		return "Assign"
	case Poll:
		return "Poll"
	case CycleWait:
		return "CycleWait"
	default:
		return "Unknown"
	}
}

// Manager wraps a State with atomic get and set methods, so the HTTP service
// can read the state while the session goroutine drives it.
type Manager struct {
	state State
}

// GetState returns the current state.
func (m *Manager) GetState() State {
	stateAddr := (*uint32)(&m.state)
	return State(atomic.LoadUint32(stateAddr))
}

// SetState sets the state.
func (m *Manager) SetState(s State) {
	stateAddr := (*uint32)(&m.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}
