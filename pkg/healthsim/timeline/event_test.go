package timeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent_Defaults(t *testing.T) {
	tl := New(Date(2024, 1, 1))
	e := tl.CreateEvent("diagnosis")

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "diagnosis", e.EventType)
	assert.Equal(t, "diagnosis", e.Name)
	assert.Equal(t, StatusPending, e.Status)
	assert.NotNil(t, e.Payload)
	assert.Nil(t, e.ScheduledAt)

	other := tl.CreateEvent("diagnosis")
	assert.NotEqual(t, e.ID, other.ID)
}

func TestCreateEvent_Options(t *testing.T) {
	tl := New(Date(2024, 1, 1))
	at := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	e := tl.CreateEvent("lab_order",
		WithEventID("evt-1"),
		WithName("HbA1c"),
		WithPayload(map[string]any{"loinc": "4548-4"}),
		WithParam("priority", "routine"),
		WithTags("lab", "lab", "diabetes"),
		WithScheduledAt(at),
	)

	assert.Equal(t, "evt-1", e.ID)
	assert.Equal(t, "HbA1c", e.Name)
	assert.Equal(t, map[string]any{"loinc": "4548-4", "priority": "routine"}, e.Payload)
	assert.Equal(t, []string{"lab", "diabetes"}, e.Tags)
	assert.True(t, e.Fixed)
	got, ok := e.Scheduled()
	require.True(t, ok)
	assert.Equal(t, at, got)
}

func TestStateMachine(t *testing.T) {
	tests := []struct {
		name   string
		apply  func(*TimelineEvent) error
		status Status
		result map[string]any
		errMsg string
	}{
		{
			name:   "executed",
			apply:  func(e *TimelineEvent) error { return e.MarkExecuted(map[string]any{"claim_id": "C1"}) },
			status: StatusExecuted,
			result: map[string]any{"claim_id": "C1"},
		},
		{
			name:   "failed",
			apply:  func(e *TimelineEvent) error { return e.MarkFailed("engine exploded") },
			status: StatusFailed,
			errMsg: "engine exploded",
		},
		{
			name:   "skipped with reason",
			apply:  func(e *TimelineEvent) error { return e.MarkSkipped("not eligible") },
			status: StatusSkipped,
			errMsg: "not eligible",
		},
		{
			name:   "skipped without reason",
			apply:  func(e *TimelineEvent) error { return e.MarkSkipped("") },
			status: StatusSkipped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Date(2024, 1, 1)).CreateEvent("x")
			require.NoError(t, tt.apply(e))
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.result, e.Result)
			assert.Equal(t, tt.errMsg, e.Error)
			assert.True(t, e.IsTerminal())
		})
	}
}

func TestStateMachine_TerminalIsFinal(t *testing.T) {
	e := New(Date(2024, 1, 1)).CreateEvent("x")
	require.NoError(t, e.MarkExecuted(map[string]any{"ok": true}))

	err := e.MarkFailed("late failure")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StatusExecuted, te.From)
	assert.Equal(t, StatusFailed, te.To)

	assert.ErrorIs(t, e.MarkSkipped(""), ErrAlreadyTerminal)
	assert.ErrorIs(t, e.MarkExecuted(nil), ErrAlreadyTerminal)

	assert.Equal(t, StatusExecuted, e.Status)
	assert.Empty(t, e.Error)
	assert.Equal(t, map[string]any{"ok": true}, e.Result)
}

func TestBefore_PartialOrder(t *testing.T) {
	tl := New(Date(2024, 1, 1))
	early := tl.CreateEvent("a", WithScheduledAt(Date(2024, 1, 2)))
	late := tl.CreateEvent("b", WithScheduledAt(time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)))
	unscheduled := tl.CreateEvent("c")

	assert.True(t, early.Before(late), "midnight date orders before a datetime on the same day")
	assert.False(t, late.Before(early))
	assert.False(t, unscheduled.Before(early))
	assert.False(t, early.Before(unscheduled))
	assert.False(t, unscheduled.Before(unscheduled))
}

func TestIsDue(t *testing.T) {
	e := New(Date(2024, 1, 1)).CreateEvent("x", WithScheduledAt(Date(2024, 1, 10)))
	assert.False(t, e.IsDue(Date(2024, 1, 9)))
	assert.True(t, e.IsDue(Date(2024, 1, 10)))

	require.NoError(t, e.MarkSkipped(""))
	assert.False(t, e.IsDue(Date(2024, 2, 1)))
}

func TestParamsIsCopy(t *testing.T) {
	e := New(Date(2024, 1, 1)).CreateEvent("x", WithParam("k", "v"))
	p := e.Params()
	p["k"] = "changed"
	assert.Equal(t, "v", e.Payload["k"])
}
