package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/healthsim/pkg/healthsim/registry"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
	"github.com/randalmurphal/healthsim/pkg/healthsim/trigger"
)

var jan1 = timeline.Date(2024, time.January, 1)

// staticEngine returns the same outputs for every event and counts calls.
type staticEngine struct {
	mu      sync.Mutex
	outputs map[string]any
	calls   []string
}

func (s *staticEngine) ExecuteEvent(_ context.Context, _ map[string]any, ev *timeline.TimelineEvent, _ map[string]any) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ev.EventType)
	return Executed(s.outputs), nil
}

func newCoordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}

func TestNew_DefaultTriggers(t *testing.T) {
	c := newCoordinator(t)
	assert.Equal(t, 4, c.Triggers().Len())

	claims := c.Triggers().Triggers(trigger.Key{Product: "patientsim", EventType: "medication_order"})
	require.Len(t, claims, 2)
	assert.Equal(t, "membersim", claims[0].Target.Product)
	assert.Equal(t, timeline.Days(0, 3), claims[0].Delay)
	assert.Equal(t, "rxmembersim", claims[1].Target.Product)
	assert.Equal(t, map[string]string{"rxnorm": "drug_code"}, claims[1].ParameterMap)

	t.Run("without defaults", func(t *testing.T) {
		c := newCoordinator(t, WithoutDefaultTriggers())
		assert.Equal(t, 0, c.Triggers().Len())
	})

	t.Run("shared registry", func(t *testing.T) {
		reg := trigger.NewRegistry()
		require.NoError(t, reg.Register("trialsim", "visit", "membersim", "claim"))
		c := newCoordinator(t, WithTriggerRegistry(reg))
		assert.Same(t, reg, c.Triggers())
		assert.Equal(t, 5, reg.Len())
	})

	t.Run("frozen registry fails construction", func(t *testing.T) {
		reg := trigger.NewRegistry()
		reg.Freeze()
		_, err := New(WithTriggerRegistry(reg))
		assert.ErrorIs(t, err, trigger.ErrFrozen)
	})
}

func TestCreateLinkedEntity(t *testing.T) {
	c := newCoordinator(t)

	e, err := c.CreateLinkedEntity("core-1", map[string]string{"patientsim": "PAT-1"})
	require.NoError(t, err)
	assert.Equal(t, "core-1", e.CoreID)

	got, ok := c.Entity("core-1")
	require.True(t, ok)
	assert.Same(t, e, got)

	_, err = c.CreateLinkedEntity("core-1", nil)
	assert.ErrorIs(t, err, ErrEntityExists)

	_, err = c.CreateLinkedEntity("", nil)
	assert.ErrorIs(t, err, ErrInvalidEntity)

	_, err = c.CreateLinkedEntity("core-0", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"core-0", "core-1"}, c.EntityIDs())

	e.SetProductID("membersim", "MEM-1")
	id, ok := e.ProductID("membersim")
	assert.True(t, ok)
	assert.Equal(t, "MEM-1", id)
	assert.Len(t, e.ProductIDs(), 2)
}

func TestAddTimeline_LinksBothWays(t *testing.T) {
	c := newCoordinator(t)
	e, err := c.CreateLinkedEntity("core-1", nil)
	require.NoError(t, err)

	clinical := timeline.New(jan1)
	claims := timeline.New(jan1)
	pharmacy := timeline.New(jan1)
	require.NoError(t, c.AddTimeline(e, "patientsim", clinical))
	require.NoError(t, c.AddTimeline(e, "membersim", claims))
	require.NoError(t, c.AddTimeline(e, "rxmembersim", pharmacy))

	assert.Equal(t, []string{"membersim", "rxmembersim"}, clinical.LinkedTimelines())
	assert.Equal(t, []string{"patientsim", "rxmembersim"}, claims.LinkedTimelines())
	assert.Equal(t, []string{"membersim", "patientsim"}, pharmacy.LinkedTimelines())
	assert.Equal(t, []string{"membersim", "patientsim", "rxmembersim"}, e.Products())

	tl, ok := e.Timeline("membersim")
	require.True(t, ok)
	assert.Same(t, claims, tl)

	t.Run("foreign entity rejected", func(t *testing.T) {
		other := newCoordinator(t)
		stranger, err := other.CreateLinkedEntity("core-1", nil)
		require.NoError(t, err)
		assert.ErrorIs(t, c.AddTimeline(stranger, "patientsim", timeline.New(jan1)), ErrUnknownEntity)
		assert.ErrorIs(t, c.AddTimeline(nil, "patientsim", timeline.New(jan1)), ErrUnknownEntity)
	})

	t.Run("nil timeline rejected", func(t *testing.T) {
		assert.ErrorIs(t, c.AddTimeline(e, "trialsim", nil), ErrInvalidEntity)
	})
}

func TestProductEntity(t *testing.T) {
	c := newCoordinator(t)
	e, err := c.CreateLinkedEntity("core-1", map[string]string{
		"patientsim":  "PAT-1",
		"membersim":   "MEM-1",
		"rxmembersim": "RX-1",
		"trialsim":    "SUBJ-1",
		"dentalsim":   "DEN-1",
	})
	require.NoError(t, err)

	tests := []struct {
		product string
		want    map[string]any
	}{
		{"patientsim", map[string]any{"core_id": "core-1", "patient_id": "PAT-1"}},
		{"membersim", map[string]any{"core_id": "core-1", "member_id": "MEM-1"}},
		{"rxmembersim", map[string]any{"core_id": "core-1", "rx_member_id": "RX-1"}},
		{"trialsim", map[string]any{"core_id": "core-1", "subject_id": "SUBJ-1"}},
		{"dentalsim", map[string]any{"core_id": "core-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ProductEntity(e, tt.product))
		})
	}

	t.Run("known product without id", func(t *testing.T) {
		bare, err := c.CreateLinkedEntity("core-2", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"core_id": "core-2"}, c.ProductEntity(bare, "patientsim"))
	})
}

func TestRegisterEngine(t *testing.T) {
	c := newCoordinator(t)
	require.NoError(t, c.RegisterEngine("patientsim", &staticEngine{}))
	require.NoError(t, c.RegisterEngine("membersim", &staticEngine{}))
	assert.Equal(t, []string{"membersim", "patientsim"}, c.Engines())

	assert.ErrorIs(t, c.RegisterEngine("trialsim", nil), ErrNilEngine)
	assert.ErrorIs(t, c.RegisterEngine("", &staticEngine{}), ErrInvalidEntity)

	e, err := c.CreateLinkedEntity("core-1", nil)
	require.NoError(t, err)
	_, err = c.ExecuteCoordinated(context.Background(), e, jan1)
	require.NoError(t, err)

	assert.ErrorIs(t, c.RegisterEngine("trialsim", &staticEngine{}), registry.ErrFrozen)
	assert.ErrorIs(t, c.Triggers().Register("a", "b", "c", "d"), trigger.ErrFrozen)
}

func TestErrorTypes(t *testing.T) {
	cause := errors.New("boom")

	ee := &EngineError{Product: "membersim", EventID: "evt-1", Err: cause}
	assert.ErrorIs(t, ee, cause)
	assert.Contains(t, ee.Error(), "membersim")

	pe := &PanicError{Product: "membersim", EventID: "evt-1", Value: "bad"}
	assert.Contains(t, pe.Error(), "panicked")

	ce := &CancellationError{CoreID: "core-1", Remaining: 2, Cause: context.Canceled}
	assert.ErrorIs(t, ce, context.Canceled)
	assert.Contains(t, ce.Error(), "2 events remaining")

	se := &SnapshotError{CoreID: "core-1", Product: "patientsim", Op: "load", Err: cause}
	assert.ErrorIs(t, se, cause)
	assert.Contains(t, se.Error(), "core-1/patientsim")
	assert.NotContains(t, (&SnapshotError{CoreID: "core-1", Op: "list", Err: cause}).Error(), "/")
}
