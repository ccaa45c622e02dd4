// Package fft implements a normalized cross-correlator on top of
// a radix-2 FFT.
//
// Both windows are standardized (zero mean, unit variance). The FFT locates
// the lag, and the time-domain dot product at that lag divided by the needle
// length is the Pearson-like score where 1 means a perfect match.
package fft

import (
	"fmt"

	"github.com/brettbuddin/fourier"
	"github.com/xaionaro-go/driftsync/pkg/correlator"
	"gonum.org/v1/gonum/floats"
)

type Correlator struct {
	// StdEpsilon is the standard deviation below which a window is
	// considered silent (and thus not correlated at all).
	StdEpsilon float64
}

var _ correlator.Correlator = (*Correlator)(nil)

func New() *Correlator {
	return &Correlator{
		StdEpsilon: correlator.DefaultStdEpsilon,
	}
}

func (c *Correlator) Correlate(
	needle []float64,
	haystack []float64,
	window *correlator.SearchWindow,
) correlator.Alignment {
	n := len(needle)
	if n == 0 || n > len(haystack) {
		return correlator.NoMatch
	}
	start, end := correlator.Bounds(window, len(haystack))
	if end-start < n {
		return correlator.NoMatch
	}

	epsilon := c.StdEpsilon
	if epsilon <= 0 {
		epsilon = correlator.DefaultStdEpsilon
	}
	a, ok := correlator.Standardize(needle, epsilon)
	if !ok {
		return correlator.NoMatch
	}
	b, ok := correlator.Standardize(haystack[start:end], epsilon)
	if !ok {
		return correlator.NoMatch
	}

	corr, err := CrossCorrelation(a, b)
	if err != nil {
		return correlator.NoMatch
	}

	peakIdx := 0
	for i, v := range corr {
		if v > corr[peakIdx] {
			peakIdx = i
		}
	}

	lag := peakIdx - (n - 1)
	if lag < 0 || lag+n > len(b) {
		return correlator.NoMatch
	}
	// the spectral peak only picks the lag, the score is recomputed exactly
	quality := floats.Dot(a, b[lag:lag+n]) / float64(n)
	return correlator.CheckOffset(lag, n, start, end, quality)
}

// CrossCorrelation returns the full (linear) cross-correlation of a and b:
//
//	out[k] = Σ a[i]·b[i+k-(len(a)-1)],  k ∈ [0, len(a)+len(b)-1)
//
// so index len(a)-1 corresponds to lag zero.
func CrossCorrelation(a, b []float64) ([]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, fmt.Errorf("empty input: %d, %d", len(a), len(b))
	}
	outLen := len(a) + len(b) - 1
	size := correlator.NextPowerOfTwo(outLen)

	// correlation with a is convolution with reversed a
	fa := make([]complex128, size)
	for i, v := range a {
		fa[len(a)-1-i] = complex(v, 0)
	}
	fb := make([]complex128, size)
	for i, v := range b {
		fb[i] = complex(v, 0)
	}

	if err := fourier.Forward(fa); err != nil {
		return nil, fmt.Errorf("unable to transform the needle: %w", err)
	}
	if err := fourier.Forward(fb); err != nil {
		return nil, fmt.Errorf("unable to transform the haystack: %w", err)
	}

	// inverse(X) = conj(forward(conj(X)))/N; only the real part is needed,
	// and it is not affected by the outer conjugation.
	for i := range fa {
		p := fa[i] * fb[i]
		fa[i] = complex(real(p), -imag(p))
	}
	if err := fourier.Forward(fa); err != nil {
		return nil, fmt.Errorf("unable to transform the product back: %w", err)
	}

	out := make([]float64, outLen)
	scale := 1 / float64(size)
	for i := range out {
		out[i] = real(fa[i]) * scale
	}
	return out, nil
}
