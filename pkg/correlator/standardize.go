package correlator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Standardize returns a mean-centered unit-variance copy of x.
//
// ok is false if the (population) standard deviation of x is below epsilon,
// since a near-silent window cannot be reliably correlated.
func Standardize(x []float64, epsilon float64) (_ []float64, ok bool) {
	if len(x) == 0 {
		return nil, false
	}
	mean, variance := stat.PopMeanVariance(x, nil)
	std := math.Sqrt(variance)
	if !(std >= epsilon) || std == 0 {
		return nil, false
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - mean) / std
	}
	return out, true
}

// RMSDecibels returns the RMS level of x in dBFS, floored at floorDB.
func RMSDecibels(x []float64, floorDB float64) float64 {
	if len(x) == 0 {
		return floorDB
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(x)))
	if rms < 1e-10 {
		return floorDB
	}
	return math.Max(floorDB, 20*math.Log10(rms))
}

// Pearson returns the correlation coefficient of two equally long windows.
// ok is false if either window is (near) silent.
func Pearson(a, b []float64, epsilon float64) (_ float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	if _, variance := stat.PopMeanVariance(a, nil); math.Sqrt(variance) < epsilon {
		return 0, false
	}
	if _, variance := stat.PopMeanVariance(b, nil); math.Sqrt(variance) < epsilon {
		return 0, false
	}
	return stat.Correlation(a, b, nil), true
}
