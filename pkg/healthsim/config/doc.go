/*
Package config loads healthsim run configuration.

Two layers are provided. Config wraps a map[string]any decoded from YAML or
JSON and extracts typed values with defaults, so loosely structured blocks
such as engine settings can be read without type assertions:

	cfg := config.New(map[string]any{
	    "engine_timeout": "5s",
	    "workers":        4,
	    "cutoff":         "2024-06-30",
	    "engine": map[string]any{"outputs": map[string]any{"icd10": "E11.9"}},
	})

	timeout := cfg.Duration("engine_timeout", time.Second) // 5s
	cutoff := cfg.Date("cutoff", time.Time{})              // 2024-06-30 UTC
	outputs := cfg.Map("engine.outputs")                   // {"icd10": "E11.9"}

Keys containing dots are resolved through nested maps. An exact key match
wins over a dotted path.

CohortFile is the typed form of a cohort definition, loaded with LoadCohort
and checked by Validate:

	seed: 42
	settings:
	  workers: 4
	  cutoff: 2024-06-30
	engines:
	  patientsim:
	    outputs: {icd10: E11.9}
	entities:
	  - core_id: person-001
	    product_ids: {patientsim: PAT-1, membersim: MEM-1}
	    start: 2024-01-01
	    timelines:
	      patientsim:
	        - type: diagnosis
	          delay: {min_days: 0, max_days: 30}
	      membersim: []

All accessors return the default when the key is missing or the value has
the wrong type. They never panic.
*/
package config
