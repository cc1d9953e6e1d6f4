// Package cohort advances every linked entity of a coordinator on a bounded
// pool of goroutines.
//
// Entities share nothing mutable except the coordinator's frozen trigger
// registry and engine map, so they can be advanced in parallel. To keep a
// run reproducible regardless of worker count, each entity draws from its
// own random source seeded by DeriveSeed:
//
//	coord, _ := coordinator.New(cohort.Seeded(42))
//	// ... register engines, create entities, add timelines ...
//
//	runner := cohort.NewRunner(coord, cohort.WithWorkers(8))
//	_ = runner.Schedule()
//	report, err := runner.Advance(ctx, cutoff)
package cohort
