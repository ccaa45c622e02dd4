package gccphat

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// whitenFloor is the magnitude (relative to the strongest bin) below which
// a bin of the cross spectrum is dropped instead of being whitened: -60dB.
const whitenFloor = 1e-3

// CrossCorrelate returns the lag of comp against ref (comp(t) = ref(t - lag))
// and a [0, 1] confidence, given the spectra fref and fcomp of equal length.
//
// A positive sampleRate enables the [minFreq, maxFreq] band limit (zero
// frequencies mean no limit). Circular indices within maxNegativeLag of the
// end of the spectrum are reported as negative lags.
func CrossCorrelate(
	fref, fcomp []complex128,
	sampleRate float64,
	minFreq, maxFreq float64,
	maxNegativeLag int,
) (float64, float64, error) {
	if sampleRate < 0 {
		return 0, 0, fmt.Errorf("sampleRate must not be negative: got %v", sampleRate)
	}
	if len(fref) != len(fcomp) {
		return 0, 0, fmt.Errorf("fref and fcomp must have same length: %d != %d", len(fref), len(fcomp))
	}
	n := len(fref)
	if n == 0 {
		return 0, 0, fmt.Errorf("empty input")
	}

	lo, hi := bandBins(n, sampleRate, minFreq, maxFreq)
	spectrum, active := whiten(fref, fcomp, lo, hi)
	if active == 0 {
		return 0, 0, fmt.Errorf("no frequency bin has enough energy")
	}

	correlation := fft.IFFT(spectrum)
	peakIdx := 0
	for i := range correlation {
		if real(correlation[i]) > real(correlation[peakIdx]) {
			peakIdx = i
		}
	}
	peak := real(correlation[peakIdx])

	lag := float64(peakIdx)
	if peakIdx >= n-maxNegativeLag {
		lag -= float64(n)
	}
	if peakIdx > 0 && peakIdx < n-1 {
		lag += vertexOffset(real(correlation[peakIdx-1]), peak, real(correlation[peakIdx+1]))
	}

	// every active bin has unit magnitude and IFFT divides by n,
	// so a perfect match peaks at active/n
	confidence := peak * float64(n) / float64(active)
	return lag, math.Max(0, math.Min(1, confidence)), nil
}

// bandBins converts the frequency limits into the range of spectrum bins
// [lo, hi] (counted from DC, mirrored bins share the index).
func bandBins(n int, sampleRate, minFreq, maxFreq float64) (int, int) {
	lo, hi := 0, n/2
	if sampleRate <= 0 {
		return lo, hi
	}
	if minFreq > 0 {
		lo = int(minFreq * float64(n) / sampleRate)
	}
	if maxFreq > 0 && maxFreq < sampleRate/2 {
		hi = int(maxFreq * float64(n) / sampleRate)
	}
	return lo, hi
}

// whiten returns the phase-only cross spectrum of comp against ref,
// restricted to the band and with weak bins zeroed, and the amount of
// bins that were kept.
func whiten(fref, fcomp []complex128, lo, hi int) ([]complex128, int) {
	n := len(fref)
	cross := make([]complex128, n)
	var strongest float64
	for i := range cross {
		cross[i] = fcomp[i] * cmplx.Conj(fref[i])
		strongest = math.Max(strongest, cmplx.Abs(cross[i]))
	}
	floor := strongest * whitenFloor

	active := 0
	for i, v := range cross {
		bin := i
		if i > n/2 {
			bin = n - i
		}
		mag := cmplx.Abs(v)
		if bin < lo || bin > hi || mag <= floor || mag <= 1e-12 {
			cross[i] = 0
			continue
		}
		cross[i] = v / complex(mag, 0)
		active++
	}
	return cross, active
}

// vertexOffset returns where the parabola through (-1, left), (0, center)
// and (1, right) reaches its extremum.
func vertexOffset(left, center, right float64) float64 {
	curvature := left - 2*center + right
	if math.Abs(curvature) <= 1e-12 {
		return 0
	}
	return (left - right) / (2 * curvature)
}
