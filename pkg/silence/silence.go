// Package silence defines how silent stretches of a track are located.
package silence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xaionaro-go/driftsync/pkg/audio"
)

const (
	DefaultThresholdDB = -40
	DefaultMinDuration = 500 * time.Millisecond
	DefaultMergeGap    = 200 * time.Millisecond
	DefaultWindow      = 50 * time.Millisecond
)

// Interval is a silent range [Start, End) in samples.
type Interval struct {
	Start int
	End   int
}

func (i Interval) Len() int {
	return i.End - i.Start
}

func (i Interval) Midpoint() int {
	return i.Start + i.Len()/2
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d, %d)", i.Start, i.End)
}

type Params struct {
	// ThresholdDB is the level (dBFS) below which a window is silent.
	ThresholdDB float64

	// MinDuration is the minimal length of a reported interval.
	MinDuration time.Duration

	// MergeGap is the maximal gap between two intervals that still get merged.
	MergeGap time.Duration

	// Window is the length of the RMS envelope window; windows overlap by 50%.
	Window time.Duration
}

func DefaultParams() Params {
	return Params{
		ThresholdDB: DefaultThresholdDB,
		MinDuration: DefaultMinDuration,
		MergeGap:    DefaultMergeGap,
		Window:      DefaultWindow,
	}
}

// Detector finds silent intervals in a mono track.
//
// The returned intervals are sorted, non-overlapping and each satisfies
// Start < End.
type Detector interface {
	FindSilence(
		ctx context.Context,
		samples []float64,
		sampleRate audio.SampleRate,
		params Params,
	) []Interval
}

// Longest returns up to count longest intervals that are at least
// minLen samples long, in chronological order.
func Longest(intervals []Interval, count int, minLen int) []Interval {
	var filtered []Interval
	for _, i := range intervals {
		if i.Len() >= minLen {
			filtered = append(filtered, i)
		}
	}
	sort.SliceStable(filtered, func(a, b int) bool {
		return filtered[a].Len() > filtered[b].Len()
	})
	if count >= 0 && len(filtered) > count {
		filtered = filtered[:count]
	}
	sort.Slice(filtered, func(a, b int) bool {
		return filtered[a].Start < filtered[b].Start
	})
	return filtered
}

// Filter returns the intervals that are at least minLen samples long.
func Filter(intervals []Interval, minLen int) []Interval {
	var out []Interval
	for _, i := range intervals {
		if i.Len() >= minLen {
			out = append(out, i)
		}
	}
	return out
}

// Midpoint returns the midpoint of the interval (clipped to [lo, hi)) that
// is the closest to near. ok is false if no interval overlaps [lo, hi).
func Midpoint(intervals []Interval, lo, hi, near int) (_ int, ok bool) {
	best := 0
	bestDist := -1
	for _, i := range intervals {
		start, end := max(i.Start, lo), min(i.End, hi)
		if start >= end {
			continue
		}
		mid := start + (end-start)/2
		dist := mid - near
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = mid, dist
		}
	}
	return best, bestDist >= 0
}
