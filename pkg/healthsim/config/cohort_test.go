package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/healthsim/pkg/healthsim/config"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
	"github.com/randalmurphal/healthsim/pkg/healthsim/trigger"
)

const cohortYAML = `
seed: 42
settings:
  workers: 2
  cutoff: 2024-06-30
  engine_timeout: 3s
engines:
  patientsim:
    outputs: {icd10: E11.9, rxnorm: "860975"}
  membersim:
    outputs: {paid: true}
    skip: [eligibility_check]
triggers:
  - source: patientsim/lab_result
    target: trialsim/screening
    delay: {min_days: 0, max_days: 7}
    parameter_map: {loinc: lab_code}
    condition: "value > 7"
    priority: high
  - source: patientsim/discharge
    target: membersim/claim
    name: "Discharge claim ${drg:-pending}"
    delay: {days: 2}
entities:
  - core_id: person-001
    product_ids: {patientsim: PAT-1, membersim: MEM-1}
    start: 2024-01-01
    timelines:
      patientsim:
        - id: dx
          type: diagnosis
          at: 2024-01-05
          payload: {icd10: E11.9}
        - type: medication_order
          depends_on: dx
          delay: {min_days: 1, max_days: 7}
          tags: [chronic]
      membersim: []
`

func TestParseCohort(t *testing.T) {
	cf, err := config.ParseCohort([]byte(cohortYAML))
	require.NoError(t, err)

	assert.Equal(t, uint64(42), cf.Seed)
	assert.Equal(t, 2, cf.Config().Int("workers", 0))
	assert.Equal(t, timeline.Date(2024, time.June, 30), cf.Config().Date("cutoff", time.Time{}))
	assert.Equal(t, 3*time.Second, cf.Config().Duration("engine_timeout", 0))

	assert.Equal(t, "860975", cf.Engines["patientsim"].Outputs["rxnorm"])
	assert.Equal(t, []string{"eligibility_check"}, cf.Engines["membersim"].Skip)

	require.Len(t, cf.Entities, 1)
	ent := cf.Entities[0]
	assert.Equal(t, timeline.Date(2024, time.January, 1), ent.Start.Time)
	assert.Equal(t, "MEM-1", ent.ProductIDs["membersim"])
	require.Len(t, ent.Timelines["patientsim"], 2)
	assert.Empty(t, ent.Timelines["membersim"])
	assert.Equal(t, timeline.Date(2024, time.January, 5), ent.Timelines["patientsim"][0].At.Time)
}

func TestTriggerSpec(t *testing.T) {
	cf, err := config.ParseCohort([]byte(cohortYAML))
	require.NoError(t, err)

	lab, err := cf.Triggers[0].Trigger()
	require.NoError(t, err)
	assert.Equal(t, trigger.Key{Product: "patientsim", EventType: "lab_result"}, lab.Source)
	assert.Equal(t, trigger.Key{Product: "trialsim", EventType: "screening"}, lab.Target)
	assert.Equal(t, timeline.Days(0, 7), lab.Delay)
	assert.Equal(t, trigger.PriorityHigh, lab.Priority)
	require.NotNil(t, lab.Condition)
	assert.True(t, lab.Condition.Evaluate(map[string]any{"value": 8}))
	assert.False(t, lab.Condition.Evaluate(map[string]any{"value": 6}))

	discharge, err := cf.Triggers[1].Trigger()
	require.NoError(t, err)
	assert.Equal(t, timeline.Fixed(2), discharge.Delay)
	assert.Equal(t, trigger.PriorityNormal, discharge.Priority)
	assert.Nil(t, discharge.Condition)
	require.NotNil(t, discharge.Name)
	assert.Equal(t, "Discharge claim 470", discharge.Name.Render(map[string]any{"drg": 470}))
	assert.Nil(t, lab.Name)
}

func TestBuildTimeline(t *testing.T) {
	cf, err := config.ParseCohort([]byte(cohortYAML))
	require.NoError(t, err)

	tl := cf.Entities[0].BuildTimeline("patientsim")
	assert.Equal(t, "person-001", tl.EntityID)
	require.Equal(t, 2, tl.Len())

	dx, ok := tl.Event("dx")
	require.True(t, ok)
	assert.True(t, dx.Fixed)
	assert.Equal(t, "E11.9", dx.Payload["icd10"])

	require.NoError(t, tl.ScheduleEvents(timeline.NewRand(1)))
	rx := tl.EventsByType("medication_order")[0]
	assert.Equal(t, "dx", rx.DependsOn)
	assert.True(t, rx.HasTag("chronic"))
	at, ok := rx.Scheduled()
	require.True(t, ok)
	assert.False(t, at.Before(timeline.Date(2024, time.January, 6)))
	assert.False(t, at.After(timeline.Date(2024, time.January, 12)))

	assert.Equal(t, 0, cf.Entities[0].BuildTimeline("membersim").Len())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no entities", "seed: 1\n", "no entities"},
		{"missing core id", "entities:\n  - start: 2024-01-01\n", "core_id is required"},
		{"duplicate core id", `
entities:
  - {core_id: a, start: 2024-01-01}
  - {core_id: a, start: 2024-01-01}
`, `duplicate core_id "a"`},
		{"missing start", "entities:\n  - core_id: a\n", "start is required"},
		{"event without type", `
entities:
  - core_id: a
    start: 2024-01-01
    timelines:
      patientsim: [{id: x}]
`, "type is required"},
		{"dangling dependency", `
entities:
  - core_id: a
    start: 2024-01-01
    timelines:
      patientsim: [{type: rx, depends_on: dx}]
`, `depends_on "dx"`},
		{"inverted delay", `
entities:
  - core_id: a
    start: 2024-01-01
    timelines:
      patientsim: [{type: rx, delay: {min_days: 5, max_days: 1}}]
`, "min_days 5 > max_days 1"},
		{"bad trigger key", `
triggers: [{source: patientsim, target: membersim/claim}]
entities: [{core_id: a, start: 2024-01-01}]
`, "triggers[0]: source"},
		{"bad condition", `
triggers: [{source: patientsim/dx, target: membersim/claim, condition: "a >"}]
entities: [{core_id: a, start: 2024-01-01}]
`, "triggers[0]: condition"},
		{"bad name template", `
triggers: [{source: patientsim/dx, target: membersim/claim, name: "Claim ${code"}]
entities: [{core_id: a, start: 2024-01-01}]
`, "triggers[0]: name"},
		{"negative workers", `
settings: {workers: -1}
entities: [{core_id: a, start: 2024-01-01}]
`, "workers"},
		{"bad cutoff", `
settings: {cutoff: someday}
entities: [{core_id: a, start: 2024-01-01}]
`, "cutoff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.ParseCohort([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalidCohort)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	t.Run("all problems reported", func(t *testing.T) {
		_, err := config.ParseCohort([]byte("settings: {workers: -1}\n"))
		require.Error(t, err)
		assert.ErrorContains(t, err, "workers")
		assert.ErrorContains(t, err, "no entities")
	})

	t.Run("bad date fails decoding", func(t *testing.T) {
		_, err := config.ParseCohort([]byte("entities: [{core_id: a, start: 01/02/2024}]\n"))
		assert.ErrorContains(t, err, "want YYYY-MM-DD")
	})
}

func TestLoadCohort(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "cohort.yaml")
		require.NoError(t, os.WriteFile(path, []byte(cohortYAML), 0o600))
		cf, err := config.LoadCohort(path)
		require.NoError(t, err)
		assert.Len(t, cf.Triggers, 2)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "cohort.json")
		body := `{
  "seed": 7,
  "settings": {"workers": 3},
  "engines": {"patientsim": {"outputs": {"count": 2}}},
  "entities": [{
    "core_id": "p1",
    "start": "2024-01-01",
    "timelines": {"patientsim": [{"type": "diagnosis", "payload": {"severity": 3}}]}
  }]
}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		cf, err := config.LoadCohort(path)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), cf.Seed)
		assert.Equal(t, 3, cf.Config().Int("workers", 0))
		assert.Equal(t, int64(2), cf.Engines["patientsim"].Outputs["count"])
		assert.Equal(t, int64(3), cf.Entities[0].Timelines["patientsim"][0].Payload["severity"])
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("seed: 1\n"), 0o600))
		_, err := config.LoadCohort(path)
		assert.ErrorIs(t, err, config.ErrInvalidCohort)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := config.LoadCohort(filepath.Join(dir, "cohort.txt"))
		assert.ErrorContains(t, err, "unsupported")
	})
}
