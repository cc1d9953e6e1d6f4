package coordinator

import (
	"errors"
	"fmt"
)

// Sentinel errors for entity management.
var (
	// ErrNilContext indicates ExecuteCoordinated was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrEntityExists indicates CreateLinkedEntity with a core id already in use.
	ErrEntityExists = errors.New("linked entity already exists")

	// ErrUnknownEntity indicates an entity that this coordinator did not create.
	ErrUnknownEntity = errors.New("unknown linked entity")

	// ErrInvalidEntity indicates an empty core id or product name.
	ErrInvalidEntity = errors.New("invalid linked entity")

	// ErrNoTargetTimeline marks a fired trigger whose target product has no
	// timeline on the entity. The spawned event is not created.
	ErrNoTargetTimeline = errors.New("no timeline for trigger target product")

	// ErrNilEngine indicates RegisterEngine with a nil engine.
	ErrNilEngine = errors.New("engine cannot be nil")
)

// NoEngineReason is stored on events skipped because their product has no engine.
const NoEngineReason = "No engine registered for product"

// EngineError wraps a failed engine call with event context.
type EngineError struct {
	Product string
	EventID string
	Err     error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: event %s: %v", e.Product, e.EventID, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// PanicError captures a panicking engine call.
type PanicError struct {
	Product string
	EventID string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("engine %s panicked on event %s: %v", e.Product, e.EventID, e.Value)
}

// CancellationError reports an advance stopped by its context. Events not
// yet processed stay pending and are picked up by the next advance.
type CancellationError struct {
	CoreID string
	// Remaining is the number of due events left unprocessed.
	Remaining int
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("advance of %s cancelled with %d events remaining: %v", e.CoreID, e.Remaining, e.Cause)
}

func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// SnapshotError wraps a snapshot store failure during Restore.
type SnapshotError struct {
	CoreID  string
	Product string
	// Op is "list", "load" or "decode".
	Op  string
	Err error
}

func (e *SnapshotError) Error() string {
	if e.Product == "" {
		return fmt.Sprintf("snapshot %s for %s: %v", e.Op, e.CoreID, e.Err)
	}
	return fmt.Sprintf("snapshot %s for %s/%s: %v", e.Op, e.CoreID, e.Product, e.Err)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}
