package dyncachectrl

import "fmt"

// StateKind is the arbitration state of the controller.
type StateKind int

// The arbitration states.
const (
	// StateIdle is the state before the first request. It routes like the
	// direct path.
	StateIdle StateKind = iota

	// StateActive forwards requests to the current path.
	StateActive

	// StateFlushPending holds every request until the cache being left
	// reports that its flush completed.
	StateFlushPending
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateFlushPending:
		return "flush-pending"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// ControllerState is the state of the controller together with the path it
// routes to. While a flush is pending, Path is the path that becomes active
// once the flush completes.
type ControllerState struct {
	Kind StateKind
	Path PathID
}

func (s ControllerState) String() string {
	if s.Kind == StateIdle {
		return s.Kind.String()
	}

	return fmt.Sprintf("%s(%s)", s.Kind, s.Path)
}
