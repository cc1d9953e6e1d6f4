package period

import (
	"fmt"
	"iter"
	"time"
)

const dateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
// All Period arithmetic happens on values normalised this way.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Period is an immutable date range. An open-ended period has no end date
// and extends indefinitely into the future.
type Period struct {
	start   time.Time
	end     time.Time
	bounded bool
	label   string
}

// New creates a bounded period covering start through end inclusive.
// Returns ErrInvalidPeriod if end is before start.
func New(start, end time.Time, label string) (Period, error) {
	s, e := Day(start), Day(end)
	if e.Before(s) {
		return Period{}, fmt.Errorf("%w: %s < %s", ErrInvalidPeriod, e.Format(dateLayout), s.Format(dateLayout))
	}
	return Period{start: s, end: e, bounded: true, label: label}, nil
}

// MustNew is like New but panics on invalid input.
func MustNew(start, end time.Time, label string) Period {
	p, err := New(start, end, label)
	if err != nil {
		panic(err)
	}
	return p
}

// NewOpen creates an open-ended period starting at start.
func NewOpen(start time.Time, label string) Period {
	return Period{start: Day(start), label: label}
}

// Start returns the first day of the period.
func (p Period) Start() time.Time { return p.start }

// End returns the last day of the period and whether one exists.
func (p Period) End() (time.Time, bool) { return p.end, p.bounded }

// Label returns the free-form label.
func (p Period) Label() string { return p.label }

// IsOpen reports whether the period has no end date.
func (p Period) IsOpen() bool { return !p.bounded }

// WithLabel returns a copy of p carrying a different label.
func (p Period) WithLabel(label string) Period {
	p.label = label
	return p
}

// Contains reports whether d falls within the period.
func (p Period) Contains(d time.Time) bool {
	d = Day(d)
	if d.Before(p.start) {
		return false
	}
	return !p.bounded || !d.After(p.end)
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.startsOnOrBeforeEndOf(other) && other.startsOnOrBeforeEndOf(p)
}

func (p Period) startsOnOrBeforeEndOf(other Period) bool {
	if !other.bounded {
		return true
	}
	return !p.start.After(other.end)
}

// AdjacentTo reports whether one period ends exactly the day before the
// other starts. Open-ended periods are never adjacent to anything.
func (p Period) AdjacentTo(other Period) bool {
	if !p.bounded || !other.bounded {
		return false
	}
	return p.end.AddDate(0, 0, 1).Equal(other.start) ||
		other.end.AddDate(0, 0, 1).Equal(p.start)
}

// MergeWith returns a period spanning both p and other. The result is
// open-ended if either input is. The receiver's label is kept.
func (p Period) MergeWith(other Period) Period {
	merged := Period{start: p.start, label: p.label}
	if other.start.Before(merged.start) {
		merged.start = other.start
	}
	if p.bounded && other.bounded {
		merged.bounded = true
		merged.end = p.end
		if other.end.After(merged.end) {
			merged.end = other.end
		}
	}
	return merged
}

// DurationDays returns the inclusive number of days in the period.
// The second value is false for open-ended periods.
func (p Period) DurationDays() (int, bool) {
	if !p.bounded {
		return 0, false
	}
	return daysBetween(p.start, p.end) + 1, true
}

// IterDates returns a restartable sequence over every date in the period.
// Returns ErrInvalidOperation for open-ended periods.
func (p Period) IterDates() (iter.Seq[time.Time], error) {
	if !p.bounded {
		return nil, fmt.Errorf("iterate dates: %w", ErrInvalidOperation)
	}
	start, end := p.start, p.end
	return func(yield func(time.Time) bool) {
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}, nil
}

// Equal reports whether both periods cover the same days with the same label.
func (p Period) Equal(other Period) bool {
	return p.start.Equal(other.start) &&
		p.bounded == other.bounded &&
		(!p.bounded || p.end.Equal(other.end)) &&
		p.label == other.label
}

// String formats the period as "start..end" ("start.." when open).
func (p Period) String() string {
	end := ""
	if p.bounded {
		end = p.end.Format(dateLayout)
	}
	if p.label != "" {
		return fmt.Sprintf("%s..%s (%s)", p.start.Format(dateLayout), end, p.label)
	}
	return fmt.Sprintf("%s..%s", p.start.Format(dateLayout), end)
}

// daysBetween counts calendar days from a to b. Both must be Day values.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
