// Package state defines the state machine of a threaded module's worker.
package state

import "fmt"

// WorkerState represents the state of a threaded module's worker.
type WorkerState int

const (
	// Idle means the mailbox is empty and no handler is executing.
	Idle WorkerState = iota
	// Running means one handler is currently executing.
	Running
	// Draining means a stop was requested while the mailbox still holds
	// pending deliveries; they are processed before the worker exits.
	Draining
	// Stopped is the terminal state. No handler executes once Stopped.
	Stopped
)

// String returns the string representation of the state.
func (s WorkerState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Draining:
		return "Draining"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// validTransitions defines the allowed state transitions.
var validTransitions = map[WorkerState][]WorkerState{
	Idle:     {Running, Stopped},
	Running:  {Idle, Running, Draining, Stopped},
	Draining: {Running, Stopped},
	Stopped:  {},
}

// CanTransitionTo checks if moving from the current state to target is valid.
func (s WorkerState) CanTransitionTo(target WorkerState) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are allowed.
func (s WorkerState) IsTerminal() bool {
	return s == Stopped
}
