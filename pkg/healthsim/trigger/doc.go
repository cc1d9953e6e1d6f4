// Package trigger wires events in one product's timeline to events in
// another's.
//
// A RegisteredTrigger says "when <source product>/<event type> executes,
// spawn <target product>/<event type>". Triggers are grouped by source Key;
// several triggers may share a key (fan-out) and fire in registration order.
//
//	reg := trigger.NewRegistry()
//	_ = reg.Register("patientsim", "diagnosis", "membersim", "claim",
//		trigger.WithDelay(timeline.Days(1, 14)),
//		trigger.WithParameterMap(map[string]string{"icd10": "diagnosis_code"}),
//	)
//
//	recs := reg.Fire(ctx, trigger.Key{Product: "patientsim", EventType: "diagnosis"},
//		map[string]any{"icd10": "E11.9"}, nil)
//	// recs[0].Parameters["diagnosis_code"] == "E11.9"
//
// Conditions gate a trigger on the firing context. Any type with an
// Evaluate method works; Expr builds one from a string expression so rules
// loaded from YAML can carry conditions:
//
//	cond := trigger.MustExpr("icd10 startswith E11 and severity >= 2")
//
// Each target product may have one Handler. Handler errors and panics are
// recovered, logged and attached to the returned record; Fire never fails.
//
// Registration is expected to finish before the first Fire from concurrent
// goroutines. Freeze makes that explicit: afterwards every Register call
// returns ErrFrozen.
package trigger
