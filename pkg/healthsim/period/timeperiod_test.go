package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h int) time.Time {
	return time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC)
}

func TestNewTimePeriod_Validation(t *testing.T) {
	_, err := NewTimePeriod(at(10), at(10))
	assert.ErrorIs(t, err, ErrInvalidTimePeriod, "end equal to start is rejected")

	_, err = NewTimePeriod(at(10), at(9))
	assert.ErrorIs(t, err, ErrInvalidTimePeriod)

	tp, err := NewTimePeriod(at(8), at(20))
	require.NoError(t, err)

	dur, ok := tp.Duration()
	assert.True(t, ok)
	assert.Equal(t, 12*time.Hour, dur)

	hours, ok := tp.DurationHours()
	assert.True(t, ok)
	assert.InDelta(t, 12.0, hours, 1e-9)

	days, ok := tp.DurationDays()
	assert.True(t, ok)
	assert.InDelta(t, 0.5, days, 1e-9)
}

func TestTimePeriod_OpenEnded(t *testing.T) {
	tp := NewOpenTimePeriod(at(8))
	assert.True(t, tp.IsOpen())

	_, ok := tp.Duration()
	assert.False(t, ok)
	_, ok = tp.DurationHours()
	assert.False(t, ok)
	_, ok = tp.DurationDays()
	assert.False(t, ok)

	assert.True(t, tp.Contains(at(8).AddDate(5, 0, 0)))
	assert.False(t, tp.Contains(at(7)))
}

func TestTimePeriod_ContainsOverlaps(t *testing.T) {
	morning, _ := NewTimePeriod(at(6), at(12))
	noon, _ := NewTimePeriod(at(12), at(14))
	evening, _ := NewTimePeriod(at(18), at(22))

	assert.True(t, morning.Contains(at(6)))
	assert.True(t, morning.Contains(at(12)))
	assert.False(t, morning.Contains(at(13)))

	assert.True(t, morning.Overlaps(noon))
	assert.False(t, morning.Overlaps(evening))
	assert.True(t, NewOpenTimePeriod(at(20)).Overlaps(evening))
}

func TestTimePeriod_Merge(t *testing.T) {
	a, _ := NewTimePeriod(at(6), at(12))
	b, _ := NewTimePeriod(at(10), at(16))

	m, err := a.Merge(b)
	require.NoError(t, err)
	assert.Equal(t, at(6), m.Start())
	end, ok := m.End()
	require.True(t, ok)
	assert.Equal(t, at(16), end)

	m, err = a.Merge(NewOpenTimePeriod(at(11)))
	require.NoError(t, err)
	assert.True(t, m.IsOpen())
}

func TestTimePeriod_MergeDisjoint(t *testing.T) {
	a, _ := NewTimePeriod(at(6), at(8))
	b, _ := NewTimePeriod(at(9), at(10))

	_, err := a.Merge(b)
	assert.ErrorIs(t, err, ErrNotOverlapping)
}
