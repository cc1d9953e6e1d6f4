// Package timeline schedules dated, delayed and dependent events for one
// entity in one product.
//
// A Timeline starts at a date and holds TimelineEvents. Each event carries
// an EventDelay and optionally the ID of an event it depends on.
// ScheduleEvents turns those into concrete dates using a caller-supplied
// RandomSource, so the same seed always produces the same timeline:
//
//	tl := timeline.New(timeline.Date(2024, 1, 1), timeline.WithEntity("pt-1", "patient"))
//	visit := tl.CreateEvent("encounter")
//	dx := tl.CreateEvent("diagnosis",
//	    timeline.WithDependsOn(visit.ID),
//	    timeline.WithDelay(timeline.Days(0, 2)),
//	    timeline.WithParam("icd10", "E11.9"))
//	if err := tl.ScheduleEvents(timeline.NewRand(42)); err != nil { ... }
//
//	for e := range tl.PendingEvents(cutoff) {
//	    // execute e, then e.MarkExecuted / MarkFailed / MarkSkipped
//	}
//
// Event status moves once from pending to executed, skipped or failed.
package timeline
