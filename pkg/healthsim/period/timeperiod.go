package period

import (
	"fmt"
	"time"
)

// TimePeriod is a datetime-precision interval with an optional end.
// A bounded TimePeriod always has end strictly after start.
type TimePeriod struct {
	start   time.Time
	end     time.Time
	bounded bool
}

// NewTimePeriod creates a bounded time period.
// Returns ErrInvalidTimePeriod unless end is strictly after start.
func NewTimePeriod(start, end time.Time) (TimePeriod, error) {
	if !end.After(start) {
		return TimePeriod{}, fmt.Errorf("%w: start=%s end=%s",
			ErrInvalidTimePeriod, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimePeriod{start: start, end: end, bounded: true}, nil
}

// NewOpenTimePeriod creates a time period with no end.
func NewOpenTimePeriod(start time.Time) TimePeriod {
	return TimePeriod{start: start}
}

// Start returns the start instant.
func (tp TimePeriod) Start() time.Time { return tp.start }

// End returns the end instant and whether one exists.
func (tp TimePeriod) End() (time.Time, bool) { return tp.end, tp.bounded }

// IsOpen reports whether the period has no end.
func (tp TimePeriod) IsOpen() bool { return !tp.bounded }

// Duration returns end - start. The second value is false when open-ended.
func (tp TimePeriod) Duration() (time.Duration, bool) {
	if !tp.bounded {
		return 0, false
	}
	return tp.end.Sub(tp.start), true
}

// DurationHours returns the duration in fractional hours.
func (tp TimePeriod) DurationHours() (float64, bool) {
	d, ok := tp.Duration()
	return d.Hours(), ok
}

// DurationDays returns the duration in fractional days.
func (tp TimePeriod) DurationDays() (float64, bool) {
	d, ok := tp.Duration()
	return d.Hours() / 24, ok
}

// Contains reports whether t falls within [start, end].
func (tp TimePeriod) Contains(t time.Time) bool {
	if t.Before(tp.start) {
		return false
	}
	return !tp.bounded || !t.After(tp.end)
}

// Overlaps reports whether the two periods share at least one instant.
func (tp TimePeriod) Overlaps(other TimePeriod) bool {
	if tp.bounded && other.start.After(tp.end) {
		return false
	}
	if other.bounded && tp.start.After(other.end) {
		return false
	}
	return true
}

// Merge returns the union of two overlapping periods.
// Returns ErrNotOverlapping when the periods are disjoint.
func (tp TimePeriod) Merge(other TimePeriod) (TimePeriod, error) {
	if !tp.Overlaps(other) {
		return TimePeriod{}, ErrNotOverlapping
	}
	merged := TimePeriod{start: tp.start}
	if other.start.Before(merged.start) {
		merged.start = other.start
	}
	if tp.bounded && other.bounded {
		merged.bounded = true
		merged.end = tp.end
		if other.end.After(merged.end) {
			merged.end = other.end
		}
	}
	return merged, nil
}

// String formats the period in RFC 3339.
func (tp TimePeriod) String() string {
	if !tp.bounded {
		return tp.start.Format(time.RFC3339) + "/.."
	}
	return tp.start.Format(time.RFC3339) + "/" + tp.end.Format(time.RFC3339)
}
