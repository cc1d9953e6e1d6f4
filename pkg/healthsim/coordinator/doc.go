// Package coordinator advances linked entities across product timelines.
//
// A LinkedEntity groups one core identity with its per-product identifiers
// (patient id, member id, pharmacy member id, trial subject id) and one
// Timeline per product. The Coordinator owns the entities, one Engine per
// product and a shared trigger.Registry.
//
// # Setup
//
//	coord, err := coordinator.New(
//		coordinator.WithLogger(slog.Default()),
//		coordinator.WithEngineTimeout(5*time.Second),
//	)
//	_ = coord.RegisterEngine("patientsim", clinical)
//	_ = coord.RegisterEngine("membersim", claims)
//
//	person, _ := coord.CreateLinkedEntity("core-1", map[string]string{
//		"patientsim": "PAT-1",
//		"membersim":  "MEM-1",
//	})
//	_ = coord.AddTimeline(person, "patientsim", clinicalTimeline)
//	_ = coord.AddTimeline(person, "membersim", timeline.New(start))
//
// # Advancing
//
// ExecuteCoordinated runs every event due by the cutoff. Executed events
// fire triggers, and spawned events land on the sibling timeline of the
// target product at the source date plus the trigger delay:
//
//	results, err := coord.ExecuteCoordinated(ctx, person, cutoff)
//	results.Count(timeline.StatusFailed)
//
// Engine errors, failed outcomes, panics and timeouts mark the event failed;
// events of products without an engine are skipped. None of these abort the
// advance.
//
// # Concurrency
//
// The first advance freezes the engine map and trigger registry. Distinct
// entities may then be advanced from many goroutines; advances of the same
// entity are serialised. Each entity draws trigger delays from its own
// random source, so results do not depend on goroutine scheduling.
package coordinator
