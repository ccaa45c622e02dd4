package correlator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounds(t *testing.T) {
	start, end := Bounds(nil, 100)
	assert.Equal(t, 0, start)
	assert.Equal(t, 100, end)

	start, end = Bounds(&SearchWindow{Start: -10, End: 1000}, 100)
	assert.Equal(t, 0, start)
	assert.Equal(t, 100, end)

	start, end = Bounds(&SearchWindow{Start: 20, End: 30}, 100)
	assert.Equal(t, 20, start)
	assert.Equal(t, 30, end)
}

func TestCheckOffset(t *testing.T) {
	assert.Equal(t, Alignment{Offset: 25, Quality: 1}, CheckOffset(5, 10, 20, 40, 1.5))
	assert.Equal(t, NoMatch, CheckOffset(-1, 10, 20, 40, 0.9))
	assert.Equal(t, NoMatch, CheckOffset(11, 10, 20, 40, 0.9))
	assert.Equal(t, Alignment{Offset: 30, Quality: 0}, CheckOffset(10, 10, 20, 40, -0.3))
	assert.False(t, NoMatch.Found())
}

func TestStandardize(t *testing.T) {
	_, ok := Standardize(make([]float64, 100), DefaultStdEpsilon)
	assert.False(t, ok)
	_, ok = Standardize(nil, DefaultStdEpsilon)
	assert.False(t, ok)

	rng := rand.New(rand.NewSource(1))
	x := make([]float64, 1000)
	for i := range x {
		x[i] = rng.NormFloat64()*0.1 + 3
	}
	y, ok := Standardize(x, DefaultStdEpsilon)
	require.True(t, ok)
	var sum, sumSq float64
	for _, v := range y {
		sum += v
		sumSq += v * v
	}
	assert.InDelta(t, 0, sum/float64(len(y)), 1e-9)
	assert.InDelta(t, 1, sumSq/float64(len(y)), 1e-9)
}

func TestRMSDecibels(t *testing.T) {
	assert.Equal(t, -100.0, RMSDecibels(make([]float64, 10), -100))
	assert.Equal(t, -100.0, RMSDecibels(nil, -100))

	x := make([]float64, 10)
	for i := range x {
		x[i] = 0.1
	}
	assert.InDelta(t, -20, RMSDecibels(x, -100), 1e-9)
}

func TestNextPowerOfTwo(t *testing.T) {
	assert.Equal(t, 1, NextPowerOfTwo(0))
	assert.Equal(t, 1, NextPowerOfTwo(1))
	assert.Equal(t, 1024, NextPowerOfTwo(1000))
	assert.Equal(t, 1024, NextPowerOfTwo(1024))
}

func TestPearson(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := make([]float64, 500)
	for i := range a {
		a[i] = rng.NormFloat64()
	}
	b := make([]float64, len(a))
	for i := range b {
		b[i] = -2*a[i] + 1
	}

	r, ok := Pearson(a, a, DefaultStdEpsilon)
	require.True(t, ok)
	assert.InDelta(t, 1, r, 1e-9)

	r, ok = Pearson(a, b, DefaultStdEpsilon)
	require.True(t, ok)
	assert.InDelta(t, -1, r, 1e-9)

	_, ok = Pearson(a, make([]float64, len(a)), DefaultStdEpsilon)
	assert.False(t, ok)
	_, ok = Pearson(a, a[:10], DefaultStdEpsilon)
	assert.False(t, ok)
}
