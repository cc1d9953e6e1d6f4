package timeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for event state and scheduling.
var (
	// ErrAlreadyTerminal indicates a state transition on an event that has
	// already been executed, skipped or failed.
	ErrAlreadyTerminal = errors.New("event is already in a terminal state")

	// ErrUnknownDependency indicates depends_on references an event that is
	// not on the same timeline.
	ErrUnknownDependency = errors.New("dependency not found on timeline")

	// ErrDependencyCycle indicates events that transitively depend on themselves.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrInvalidDelay indicates negative or inverted delay bounds.
	ErrInvalidDelay = errors.New("invalid event delay")
)

// TransitionError reports a rejected status change.
type TransitionError struct {
	// EventID is the event whose status was not changed.
	EventID string
	// From is the event's current status.
	From Status
	// To is the requested status.
	To Status
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %s: cannot transition %s -> %s", e.EventID, e.From, e.To)
}

// Unwrap returns ErrAlreadyTerminal for errors.Is support.
func (e *TransitionError) Unwrap() error {
	return ErrAlreadyTerminal
}

// DependencyError wraps scheduling failures caused by depends_on links.
type DependencyError struct {
	// EventID is the event being scheduled.
	EventID string
	// DependsOn is the referenced event ID.
	DependsOn string
	// Err is ErrUnknownDependency or ErrDependencyCycle.
	Err error
}

// Error implements the error interface.
func (e *DependencyError) Error() string {
	return fmt.Sprintf("event %s depends on %s: %v", e.EventID, e.DependsOn, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DependencyError) Unwrap() error {
	return e.Err
}
