/*
Package healthsim is the temporal scheduling and cross-product coordination
core of the healthcare synthetic-data products.

One person appears in several products at once: a patient in patientsim, a
member in membersim, a pharmacy member in rxmembersim and a trial subject in
trialsim. Each product keeps its own timeline of events. The packages below
keep those timelines consistent: a clinical diagnosis produces a claim, a
medication order produces a claim and a pharmacy fill, and so on.

# Packages

  - period: calendar-day periods, gap and overlap analysis, consolidation
  - timeline: events, delays, dependency-aware scheduling
  - trigger: cross-product trigger rules and the registry that fires them
  - coordinator: linked entities and the coordinated advance
  - cohort: many entities advanced in parallel, deterministic seeding
  - snapshot: timeline persistence in memory or SQLite
  - config: cohort files and typed configuration access
  - observability: slog helpers, OpenTelemetry metrics and tracing

# Quick Start

	coord, _ := coordinator.New()
	_ = coord.RegisterEngine("patientsim", clinicalEngine)
	_ = coord.RegisterEngine("membersim", claimsEngine)

	person, _ := coord.CreateLinkedEntity("person-001", map[string]string{
	    "patientsim": "PAT-001",
	    "membersim":  "MEM-001",
	})

	start := timeline.Date(2024, time.January, 1)
	ehr := timeline.New(start)
	ehr.CreateEvent("diagnosis", timeline.WithDelay(timeline.Days(0, 30)))
	_ = coord.AddTimeline(person, "patientsim", ehr)
	_ = coord.AddTimeline(person, "membersim", timeline.New(start))
	_ = person.ScheduleTimelines()

	results, err := coord.ExecuteCoordinated(ctx, person, start.AddDate(0, 3, 0))

The diagnosis executes, and the default triggers place a claim on the
membersim timeline one to fourteen days later. The claim runs on the next
advance that reaches its date.
*/
package healthsim
