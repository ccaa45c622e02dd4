// Package gccphat implements a correlator using Generalized
// Cross-Correlation with Phase Transform (GCC-PHAT).
//
// The algorithm calculates the time delay between two signals by
// looking at their cross-correlation in the frequency domain. By
// normalizing the magnitude (the Phase Transform), it becomes
// robust against variations in volume, equalization and reverberation,
// focusing only on the phase information that indicates the delay.
// This makes it a good fit for dubs that were re-mixed.
package gccphat

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/correlator"
)

const (
	DefaultMinFreq = 100
	DefaultMaxFreq = 12000
)

type Correlator struct {
	// SampleRate is used to convert MinFreq/MaxFreq to FFT bins;
	// zero disables band limiting.
	SampleRate audio.SampleRate
	MinFreq    float64
	MaxFreq    float64
	StdEpsilon float64
}

var _ correlator.Correlator = (*Correlator)(nil)

// New returns a correlator with reasonable defaults: 100Hz to 12000Hz
// captures most informative audio while filtering out low-frequency rumble
// and high-frequency digital noise.
func New(sampleRate audio.SampleRate) *Correlator {
	return &Correlator{
		SampleRate: sampleRate,
		MinFreq:    DefaultMinFreq,
		MaxFreq:    DefaultMaxFreq,
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

	// The FFT size is the next power of two of (n1 + n2 - 1)
	// to avoid circular convolution artifacts.
	size := correlator.NextPowerOfTwo(len(a) + len(b) - 1)
	fref := make([]complex128, size)
	fcomp := make([]complex128, size)
	for i, v := range a {
		fref[i] = complex(v, 0)
	}
	for i, v := range b {
		fcomp[i] = complex(v, 0)
	}

	lag, confidence, err := CrossCorrelate(
		fft.FFT(fref),
		fft.FFT(fcomp),
		float64(c.SampleRate),
		c.MinFreq,
		c.MaxFreq,
		n-1,
	)
	if err != nil {
		return correlator.NoMatch
	}

	return correlator.CheckOffset(int(math.Round(lag)), n, start, end, confidence)
}
