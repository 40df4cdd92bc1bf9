// Package plugin holds the value types describing a loaded plugin's
// declarative load descriptor, lifecycle state, and resource accounting.
package plugin

import "fmt"

// Phase enumerates the plugin lifecycle states. Unloaded is terminal: no
// further transition is valid from it.
type Phase uint8

const (
	PhaseLoaded Phase = iota
	PhaseInitialized
	PhaseRunning
	PhasePaused
	PhaseFailed
	PhaseUnloaded
)

func (p Phase) String() string {
	switch p {
	case PhaseLoaded:
		return "Loaded"
	case PhaseInitialized:
		return "Initialized"
	case PhaseRunning:
		return "Running"
	case PhasePaused:
		return "Paused"
	case PhaseFailed:
		return "Failed"
	case PhaseUnloaded:
		return "Unloaded"
	default:
		return "Unknown"
	}
}

// State carries the current Phase plus, for PhaseFailed, the error that
// caused it.
type State struct {
	Phase Phase
	Err   error
}

func Loaded() State       { return State{Phase: PhaseLoaded} }
func Initialized() State  { return State{Phase: PhaseInitialized} }
func Running() State      { return State{Phase: PhaseRunning} }
func Paused() State       { return State{Phase: PhasePaused} }
func Unloaded() State     { return State{Phase: PhaseUnloaded} }
func Failed(err error) State { return State{Phase: PhaseFailed, Err: err} }

func (s State) String() string {
	if s.Phase == PhaseFailed {
		return fmt.Sprintf("Failed(%v)", s.Err)
	}
	return s.Phase.String()
}

// validTransitions enumerates the lifecycle edges callers may take. unload
// is always legal except from Unloaded itself (it is idempotent there, see
// the plugin manager, not this table).
var validTransitions = map[Phase]map[Phase]bool{
	PhaseLoaded:       {PhaseInitialized: true, PhaseFailed: true, PhaseUnloaded: true},
	PhaseInitialized:  {PhaseRunning: true, PhaseFailed: true, PhaseUnloaded: true},
	PhaseRunning:      {PhaseRunning: true, PhasePaused: true, PhaseFailed: true, PhaseUnloaded: true, PhaseLoaded: true},
	PhasePaused:       {PhaseRunning: true, PhaseFailed: true, PhaseUnloaded: true},
	PhaseFailed:       {PhaseUnloaded: true, PhaseLoaded: true},
	PhaseUnloaded:     {},
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s State) CanTransition(next Phase) bool {
	return validTransitions[s.Phase][next]
}
