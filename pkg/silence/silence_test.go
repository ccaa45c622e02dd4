package silence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLongest(t *testing.T) {
	intervals := []Interval{
		{0, 10},
		{20, 50},
		{60, 65},
		{70, 120},
		{130, 150},
	}
	assert.Equal(t, []Interval{{20, 50}, {70, 120}}, Longest(intervals, 2, 0))
	assert.Equal(t, []Interval{{20, 50}, {70, 120}, {130, 150}}, Longest(intervals, 10, 20))
	assert.Empty(t, Longest(intervals, 10, 1000))
	assert.Empty(t, Longest(nil, 10, 0))
}

func TestFilter(t *testing.T) {
	assert.Equal(t, []Interval{{20, 50}}, Filter([]Interval{{0, 10}, {20, 50}}, 11))
}

func TestMidpoint(t *testing.T) {
	intervals := []Interval{
		{100, 200},
		{400, 500},
		{900, 1000},
	}

	mid, ok := Midpoint(intervals, 0, 1000, 420)
	assert.True(t, ok)
	assert.Equal(t, 450, mid)

	mid, ok = Midpoint(intervals, 0, 1000, 0)
	assert.True(t, ok)
	assert.Equal(t, 150, mid)

	// clipped to the allowed range
	mid, ok = Midpoint(intervals, 450, 600, 0)
	assert.True(t, ok)
	assert.Equal(t, 475, mid)

	_, ok = Midpoint(intervals, 600, 800, 700)
	assert.False(t, ok)
}

func TestInterval(t *testing.T) {
	i := Interval{Start: 10, End: 30}
	assert.Equal(t, 20, i.Len())
	assert.Equal(t, 20, i.Midpoint())
	assert.Equal(t, "[10, 30)", i.String())
}
