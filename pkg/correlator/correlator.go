// Package correlator defines how two mono windows are aligned against
// each other.
//
// A Correlator finds the offset at which a short "needle" window fits best
// into a longer "haystack" window and scores how confident that fit is.
package correlator

import (
	"fmt"
	"math"
)

// DefaultStdEpsilon is the standard deviation below which a window is
// treated as silent. It equals one LSB of a 16-bit track.
const DefaultStdEpsilon = 1.0 / 32768

// Alignment is the result of a single correlation.
type Alignment struct {
	// Offset is the position of the needle's first sample in the haystack
	// coordinate space (the unrestricted one, even if a SearchWindow was used).
	Offset int

	// Quality is the normalized correlation score: 1 is a perfect match,
	// 0 is no discernible correlation.
	Quality float64
}

// NoMatch is returned when the correlation could not be performed
// or produced an unusable result.
var NoMatch = Alignment{Offset: -1, Quality: 0}

func (a Alignment) Found() bool {
	return a.Offset >= 0
}

func (a Alignment) String() string {
	if !a.Found() {
		return "no match"
	}
	return fmt.Sprintf("%d (quality %.3f)", a.Offset, a.Quality)
}

// SearchWindow restricts the part of the haystack that is searched:
// [Start, End).
type SearchWindow struct {
	Start int
	End   int
}

func (w SearchWindow) Len() int {
	return w.End - w.Start
}

// Correlator aligns needle against haystack.
//
// Implementations must be pure: no state is kept between calls, so
// a single instance may be used concurrently.
type Correlator interface {
	Correlate(needle, haystack []float64, window *SearchWindow) Alignment
}

// Bounds clamps the search window to the haystack and returns
// the resulting [start, end). A nil window means the whole haystack.
func Bounds(window *SearchWindow, haystackLen int) (int, int) {
	if window == nil {
		return 0, haystackLen
	}
	return max(0, window.Start), min(haystackLen, window.End)
}

// CheckOffset converts a lag found inside the [start, end) slice of the
// haystack into an Alignment, rejecting lags for which the needle does not
// fit completely inside the searched range.
func CheckOffset(lag, needleLen, start, end int, quality float64) Alignment {
	offset := start + lag
	if offset < start || offset+needleLen > end {
		return NoMatch
	}
	return Alignment{
		Offset:  offset,
		Quality: ClipQuality(quality),
	}
}

func ClipQuality(q float64) float64 {
	switch {
	case math.IsNaN(q), q < 0:
		return 0
	case q > 1:
		return 1
	default:
		return q
	}
}

// NextPowerOfTwo returns the smallest power of two that is >= n.
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
