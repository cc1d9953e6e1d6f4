package period

import "errors"

// Sentinel errors for interval construction and operations.
var (
	// ErrInvalidPeriod indicates a Period whose end is before its start.
	ErrInvalidPeriod = errors.New("period end date is before start date")

	// ErrInvalidOperation indicates an operation that needs a bounded
	// period was called on an open-ended one.
	ErrInvalidOperation = errors.New("operation requires a bounded period")

	// ErrInvalidTimePeriod indicates a TimePeriod whose end is not strictly
	// after its start.
	ErrInvalidTimePeriod = errors.New("time period end must be after start")

	// ErrNotOverlapping indicates a TimePeriod merge between disjoint periods.
	ErrNotOverlapping = errors.New("cannot merge non-overlapping time periods")
)
