package trigger

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/healthsim/pkg/healthsim/registry"
)

var (
	// ErrFrozen is returned by registration after Freeze.
	ErrFrozen = registry.ErrFrozen

	// ErrInvalidTrigger indicates a trigger with an empty product or event
	// type, or an invalid delay.
	ErrInvalidTrigger = errors.New("invalid trigger")

	// ErrInvalidKey indicates a key string not of the form "product/event_type".
	ErrInvalidKey = errors.New("invalid trigger key")

	// ErrHandlerPanic marks a handler that panicked instead of returning.
	ErrHandlerPanic = errors.New("trigger handler panicked")

	// ErrConditionPanic marks a condition that panicked while evaluating.
	ErrConditionPanic = errors.New("trigger condition panicked")
)

// HandlerError wraps a failure of the target handler for one record.
type HandlerError struct {
	Product   string
	EventType string
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler for %s/%s: %v", e.Product, e.EventType, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
