// Package period provides date and datetime interval algebra.
//
// Period is a day-precision range with an optional end (an absent end means
// the range is open into the future). Collection keeps periods sorted by
// start date and answers coverage questions: gaps, overlaps and the
// consolidated minimal cover.
//
//	c := period.NewCollection()
//	c.Add(period.MustNew(jan1, jan31, "enrollment"))
//	c.Add(period.MustNew(mar1, mar31, "enrollment"))
//	gaps := c.FindGaps() // February, labelled "gap"
//
// TimePeriod is the datetime-precision sibling. Unlike Period it requires
// end > start and refuses to merge periods that do not overlap.
package period
