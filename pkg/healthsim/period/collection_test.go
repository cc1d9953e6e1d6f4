package period

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_AddKeepsSorted(t *testing.T) {
	c := NewCollection()
	c.Add(MustNew(d(2024, 5, 1), d(2024, 5, 31), "may"))
	c.Add(MustNew(d(2024, 1, 1), d(2024, 1, 31), "jan"))
	c.Add(MustNew(d(2024, 3, 1), d(2024, 3, 31), "mar"))
	c.Add(MustNew(d(2024, 3, 1), d(2024, 3, 15), "mar-2"))

	var labels []string
	for _, p := range c.Periods() {
		labels = append(labels, p.Label())
	}
	assert.Equal(t, []string{"jan", "mar", "mar-2", "may"}, labels)
	assert.Equal(t, 4, c.Len())
}

func TestCollection_FindGaps(t *testing.T) {
	c := NewCollection(
		MustNew(d(2024, 1, 1), d(2024, 1, 31), ""),
		MustNew(d(2024, 2, 1), d(2024, 2, 15), ""), // contiguous
		MustNew(d(2024, 2, 10), d(2024, 2, 20), ""), // overlapping
		MustNew(d(2024, 3, 1), d(2024, 3, 31), ""),
	)

	gaps := c.FindGaps()
	require.Len(t, gaps, 1)
	assert.Equal(t, d(2024, 2, 21), gaps[0].Start())
	end, ok := gaps[0].End()
	require.True(t, ok)
	assert.Equal(t, d(2024, 2, 29), end)
	assert.Equal(t, GapLabel, gaps[0].Label())
}

func TestCollection_FindGaps_LongPeriodCoversLater(t *testing.T) {
	c := NewCollection(
		MustNew(d(2024, 1, 1), d(2024, 12, 31), "annual"),
		MustNew(d(2024, 2, 1), d(2024, 2, 10), ""),
		MustNew(d(2024, 6, 1), d(2024, 6, 10), ""),
	)
	assert.Empty(t, c.FindGaps())
}

func TestCollection_FindGaps_OpenEnded(t *testing.T) {
	c := NewCollection(
		NewOpen(d(2024, 1, 1), ""),
		MustNew(d(2025, 1, 1), d(2025, 1, 31), ""),
	)
	assert.Empty(t, c.FindGaps())

	assert.Empty(t, NewCollection().FindGaps())
}

func TestCollection_FindOverlaps(t *testing.T) {
	a := MustNew(d(2024, 1, 1), d(2024, 6, 30), "a")
	b := MustNew(d(2024, 2, 1), d(2024, 2, 28), "b")
	c := MustNew(d(2024, 6, 1), d(2024, 7, 31), "c")
	e := MustNew(d(2024, 9, 1), d(2024, 9, 30), "e")

	pairs := NewCollection(e, c, b, a).FindOverlaps()
	require.Len(t, pairs, 2)
	assert.Equal(t, "a", pairs[0][0].Label())
	assert.Equal(t, "b", pairs[0][1].Label())
	assert.Equal(t, "a", pairs[1][0].Label())
	assert.Equal(t, "c", pairs[1][1].Label())
}

func TestCollection_Consolidate(t *testing.T) {
	c := NewCollection(
		MustNew(d(2024, 1, 1), d(2024, 1, 31), ""),
		MustNew(d(2024, 2, 1), d(2024, 2, 15), ""),
		MustNew(d(2024, 2, 10), d(2024, 3, 5), ""),
		MustNew(d(2024, 4, 1), d(2024, 4, 30), ""),
		MustNew(d(2024, 4, 10), d(2024, 4, 12), ""),
	)

	merged := c.Consolidate()
	require.Len(t, merged, 2)
	assert.Equal(t, d(2024, 1, 1), merged[0].Start())
	end, _ := merged[0].End()
	assert.Equal(t, d(2024, 3, 5), end)
	assert.Equal(t, d(2024, 4, 1), merged[1].Start())
	end, _ = merged[1].End()
	assert.Equal(t, d(2024, 4, 30), end)

	// Source collection is untouched.
	assert.Equal(t, 5, c.Len())
}

func TestCollection_ConsolidateIdempotent(t *testing.T) {
	c := NewCollection(
		MustNew(d(2024, 1, 1), d(2024, 1, 10), ""),
		MustNew(d(2024, 1, 5), d(2024, 1, 20), ""),
		MustNew(d(2024, 1, 21), d(2024, 1, 25), ""),
		MustNew(d(2024, 3, 1), d(2024, 3, 2), ""),
		NewOpen(d(2024, 6, 1), ""),
		MustNew(d(2024, 7, 1), d(2024, 7, 2), ""),
	)

	once := c.Consolidate()
	twice := NewCollection(once...).Consolidate()

	require.Len(t, twice, len(once))
	for i := range once {
		assert.True(t, once[i].Equal(twice[i]), "%s != %s", once[i], twice[i])
	}
	require.Len(t, once, 3)
	assert.True(t, once[2].IsOpen())
}

func TestCollection_ConsolidateEmpty(t *testing.T) {
	assert.Empty(t, NewCollection().Consolidate())
}

func TestCollection_TotalDays(t *testing.T) {
	c := NewCollection(
		MustNew(d(2024, 1, 1), d(2024, 1, 10), ""),
		MustNew(d(2024, 1, 5), d(2024, 1, 15), ""),
		MustNew(d(2024, 2, 1), d(2024, 2, 1), ""),
	)
	days, ok := c.TotalDays()
	assert.True(t, ok)
	assert.Equal(t, 16, days)

	c.Add(NewOpen(d(2025, 1, 1), ""))
	_, ok = c.TotalDays()
	assert.False(t, ok)
}

func TestCollection_PeriodAt(t *testing.T) {
	c := NewCollection(
		MustNew(d(2024, 1, 1), d(2024, 1, 31), "jan"),
		MustNew(d(2024, 3, 1), d(2024, 3, 31), "mar"),
	)

	p, ok := c.PeriodAt(d(2024, 3, 15))
	require.True(t, ok)
	assert.Equal(t, "mar", p.Label())

	_, ok = c.PeriodAt(d(2024, 2, 15))
	assert.False(t, ok)
	assert.True(t, c.ContainsDate(d(2024, 1, 31)))
	assert.False(t, c.ContainsDate(d(2024, 2, 1)))
}
