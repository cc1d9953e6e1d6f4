package period

import (
	"slices"
	"time"
)

// GapLabel is the label carried by periods synthesised by FindGaps.
const GapLabel = "gap"

// Collection is a mutable sequence of periods kept sorted by start date.
// It is not safe for concurrent use.
type Collection struct {
	periods []Period
}

// NewCollection creates a collection holding the given periods.
func NewCollection(periods ...Period) *Collection {
	c := &Collection{}
	for _, p := range periods {
		c.Add(p)
	}
	return c
}

// Add inserts p, keeping the collection sorted by start date.
// Periods with equal start dates keep insertion order.
func (c *Collection) Add(p Period) {
	i, _ := slices.BinarySearchFunc(c.periods, p, func(existing, target Period) int {
		if existing.start.After(target.start) {
			return 1
		}
		return -1
	})
	c.periods = slices.Insert(c.periods, i, p)
}

// Len returns the number of periods.
func (c *Collection) Len() int { return len(c.periods) }

// Periods returns a copy of the sorted periods.
func (c *Collection) Periods() []Period {
	return slices.Clone(c.periods)
}

// FindGaps returns the uncovered day ranges between consecutive periods.
// Contiguous or overlapping periods produce no gap.
func (c *Collection) FindGaps() []Period {
	if len(c.periods) < 2 {
		return nil
	}

	var gaps []Period
	reach := c.periods[0]
	for _, next := range c.periods[1:] {
		if reach.IsOpen() {
			break
		}
		dayAfter := reach.end.AddDate(0, 0, 1)
		if dayAfter.Before(next.start) {
			gaps = append(gaps, Period{
				start:   dayAfter,
				end:     next.start.AddDate(0, 0, -1),
				bounded: true,
				label:   GapLabel,
			})
		}
		if next.IsOpen() || next.end.After(reach.end) {
			reach = next
		}
	}
	return gaps
}

// FindOverlaps returns every pair of periods that share at least one day.
func (c *Collection) FindOverlaps() [][2]Period {
	var pairs [][2]Period
	for i := range c.periods {
		for j := i + 1; j < len(c.periods); j++ {
			if c.periods[i].Overlaps(c.periods[j]) {
				pairs = append(pairs, [2]Period{c.periods[i], c.periods[j]})
			}
		}
	}
	return pairs
}

// Consolidate returns the minimal set of non-overlapping, non-adjacent
// periods covering the same days. The collection itself is unchanged.
func (c *Collection) Consolidate() []Period {
	if len(c.periods) == 0 {
		return nil
	}

	merged := []Period{c.periods[0]}
	for _, p := range c.periods[1:] {
		last := &merged[len(merged)-1]
		if last.Overlaps(p) || last.AdjacentTo(p) {
			*last = last.MergeWith(p)
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// TotalDays returns the number of distinct days covered. The second value
// is false when any period is open-ended.
func (c *Collection) TotalDays() (int, bool) {
	total := 0
	for _, p := range c.Consolidate() {
		days, ok := p.DurationDays()
		if !ok {
			return 0, false
		}
		total += days
	}
	return total, true
}

// ContainsDate reports whether any period contains d.
func (c *Collection) ContainsDate(d time.Time) bool {
	_, ok := c.PeriodAt(d)
	return ok
}

// PeriodAt returns the first period containing d.
func (c *Collection) PeriodAt(d time.Time) (Period, bool) {
	for _, p := range c.periods {
		if p.Contains(d) {
			return p, true
		}
	}
	return Period{}, false
}
