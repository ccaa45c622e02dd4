// Package energy implements a silence detector based on the RMS envelope
// of the signal.
package energy

import (
	"context"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/silence"
	"gonum.org/v1/gonum/floats"
)

const (
	// FloorDB is the level reported for windows with (almost) zero energy.
	FloorDB = -100

	minRMS = 1e-10
)

type Detector struct{}

var _ silence.Detector = (*Detector)(nil)

func New() *Detector {
	return &Detector{}
}

// Envelope returns the dBFS level of each window of the given length,
// advancing by hop samples. The trailing windows may be shorter.
func Envelope(samples []float64, window, hop int) []float64 {
	if window < 1 {
		window = 1
	}
	if hop < 1 {
		hop = 1
	}
	var out []float64
	for start := 0; start < len(samples); start += hop {
		w := samples[start:min(start+window, len(samples))]
		rms := math.Sqrt(floats.Dot(w, w) / float64(len(w)))
		if rms < minRMS {
			out = append(out, FloorDB)
			continue
		}
		out = append(out, 20*math.Log10(rms))
	}
	return out
}

// FindSilence marks the envelope windows below the threshold as silent,
// converts runs of silent windows to sample intervals, drops the intervals
// shorter than MinDuration and merges those separated by less than MergeGap.
func (d *Detector) FindSilence(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
	params silence.Params,
) []silence.Interval {
	if len(samples) == 0 || sampleRate == 0 {
		return nil
	}
	if params.Window <= 0 {
		params.Window = silence.DefaultWindow
	}

	window := max(1, sampleRate.Samples(params.Window))
	hop := max(1, window/2)
	minLen := sampleRate.Samples(params.MinDuration)
	mergeGap := sampleRate.Samples(params.MergeGap)

	envelope := Envelope(samples, window, hop)

	var intervals []silence.Interval
	runStart := -1
	flush := func(lastIdx int) {
		i := silence.Interval{
			Start: runStart * hop,
			End:   min(lastIdx*hop+window, len(samples)),
		}
		if i.Len() >= minLen && i.Len() > 0 {
			intervals = append(intervals, i)
		}
		runStart = -1
	}
	for idx, db := range envelope {
		if db < params.ThresholdDB {
			if runStart < 0 {
				runStart = idx
			}
			continue
		}
		if runStart >= 0 {
			flush(idx - 1)
		}
	}
	if runStart >= 0 {
		flush(len(envelope) - 1)
	}

	merged := merge(intervals, mergeGap)
	logger.Tracef(ctx, "found %d silence intervals (%d before merging) in %d samples", len(merged), len(intervals), len(samples))
	return merged
}

func merge(intervals []silence.Interval, gap int) []silence.Interval {
	if len(intervals) == 0 {
		return nil
	}
	out := []silence.Interval{intervals[0]}
	for _, next := range intervals[1:] {
		cur := &out[len(out)-1]
		if next.Start-cur.End < gap {
			cur.End = max(cur.End, next.End)
			continue
		}
		out = append(out, next)
	}
	return out
}
