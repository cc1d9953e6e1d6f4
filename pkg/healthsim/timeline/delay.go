package timeline

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// RandomSource samples uniform integers. *rand.Rand from math/rand/v2
// satisfies it. Implementations need not be safe for concurrent use; each
// linked entity owns its own source.
type RandomSource interface {
	// IntN returns a uniform integer in [0, n). n must be positive.
	IntN(n int) int
}

// NewRand returns a deterministic PCG-backed source for seed.
// Two sources created from the same seed yield identical sequences.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// EventDelay describes a bounded random offset in days and hours.
// The zero value is no delay.
type EventDelay struct {
	MinDays  int `json:"min_days,omitempty" yaml:"min_days,omitempty"`
	MaxDays  int `json:"max_days,omitempty" yaml:"max_days,omitempty"`
	MinHours int `json:"min_hours,omitempty" yaml:"min_hours,omitempty"`
	MaxHours int `json:"max_hours,omitempty" yaml:"max_hours,omitempty"`
}

// Days returns a delay of min to max whole days.
func Days(minDays, maxDays int) EventDelay {
	return EventDelay{MinDays: minDays, MaxDays: maxDays}
}

// Hours returns a delay of min to max whole hours.
func Hours(minHours, maxHours int) EventDelay {
	return EventDelay{MinHours: minHours, MaxHours: maxHours}
}

// Fixed returns a delay of exactly days days.
func Fixed(days int) EventDelay {
	return EventDelay{MinDays: days, MaxDays: days}
}

// Validate rejects negative bounds and min > max.
func (d EventDelay) Validate() error {
	if d.MinDays < 0 || d.MaxDays < 0 || d.MinHours < 0 || d.MaxHours < 0 {
		return fmt.Errorf("%w: negative bound in %+v", ErrInvalidDelay, d)
	}
	if d.MinDays > d.MaxDays {
		return fmt.Errorf("%w: min_days %d > max_days %d", ErrInvalidDelay, d.MinDays, d.MaxDays)
	}
	if d.MinHours > d.MaxHours {
		return fmt.Errorf("%w: min_hours %d > max_hours %d", ErrInvalidDelay, d.MinHours, d.MaxHours)
	}
	return nil
}

// IsZero reports whether the delay is always zero.
func (d EventDelay) IsZero() bool {
	return d.MaxDays == 0 && d.MaxHours == 0
}

// Calculate returns days + hours sampled uniformly from the inclusive bounds.
// A unit whose min equals max is not sampled, so degenerate delays never
// consume randomness.
func (d EventDelay) Calculate(rng RandomSource) time.Duration {
	days := sample(rng, d.MinDays, d.MaxDays)
	hours := sample(rng, d.MinHours, d.MaxHours)
	return time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour
}

func sample(rng RandomSource, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}
