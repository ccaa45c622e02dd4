package drifttracker

import (
	"context"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/driftsync/pkg/segmenter"
)

type point struct {
	probe segmenter.Region
	delay int
}

func (r *run) median(
	ctx context.Context,
	initialDelay int,
) ([]Segment, error) {
	segments := newSegmentBuilder(len(r.source))
	first := 0
	if at, head, ok := r.leadIn(ctx, initialDelay); ok && segments.cut(at, head) {
		logger.Debugf(ctx, "lead-in cut at %.3fs: %d -> %d", r.rate.Seconds(at), head, initialDelay)
		first = r.probeAfter(-1, at)
	}

	var raw []point
	last := initialDelay
	for idx := first; idx < len(r.probes); idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.probes[idx]
		m := r.measure(p, last, r.limits.searchMargin)
		if !m.found || m.quiet {
			continue
		}

		valid := false
		if abs(m.delay-last) > r.limits.jumpThreshold {
			if idx+1 < len(r.probes) {
				valid = r.verifyAt(r.probes[idx+1], m.delay)
			}
			logger.Tracef(ctx, "jump at %d: %d -> %d, verified: %v", p.ProbeStart, last, m.delay, valid)
		} else {
			valid = m.quality > r.Config.AcceptQuality
		}
		if !valid {
			continue
		}
		raw = append(raw, point{probe: p, delay: m.delay})
		last = m.delay
	}
	logger.Debugf(ctx, "collected %d raw points out of %d probes", len(raw), len(r.probes))

	if len(raw) == 0 {
		return segments.finish(initialDelay), nil
	}

	delays := make([]float64, len(raw))
	for idx, p := range raw {
		delays[idx] = float64(p.delay)
	}
	filtered := MedianFilter(delays, r.Config.MedianWindow)

	threshold := float64(r.limits.changeThreshold)
	current := filtered[0]
	if settled := roundDelay(current); abs(settled-initialDelay) >= r.limits.jumpThreshold {
		// the seed may still explain the beginning of the timeline
		k := 0
		for k < len(raw)-1 && math.Abs(float64(raw[k].delay)-current) > threshold {
			k++
		}
		at, ok := r.splitPrefix(segments.start, raw[k].probe.ProbeEnd(), initialDelay, settled)
		if ok && segments.cut(at, initialDelay) {
			logger.Debugf(ctx, "delay %d holds until %.3fs, cut: %d -> %d", initialDelay, r.rate.Seconds(at), initialDelay, settled)
		}
	}
	for k := 1; k < len(filtered); k++ {
		d := filtered[k]
		if math.Abs(d-current) <= threshold {
			continue
		}
		stable := true
		if k+r.Config.LookAhead < len(filtered) {
			for j := 1; j <= r.Config.LookAhead; j++ {
				if math.Abs(filtered[k+j]-d) > threshold {
					stable = false
					break
				}
			}
		}
		if !stable {
			continue
		}

		oldDelay, newDelay := roundDelay(current), roundDelay(d)
		at := r.chooseCut(raw[k-1].probe.ProbeStart, raw[k].probe.ProbeEnd(), raw[k].probe.ProbeStart, oldDelay, newDelay)
		if segments.cut(at, oldDelay) {
			logger.Debugf(ctx, "cut at %.3fs: %d -> %d", r.rate.Seconds(at), oldDelay, newDelay)
		}
		current = d
	}
	return segments.finish(roundDelay(current)), nil
}

// verifyAt checks that the probe correlates with the reference at exactly
// the given delay.
func (r *run) verifyAt(p segmenter.Region, delay int) bool {
	return r.matchesAt(p.ProbeStart, p.ProbeEnd(), delay)
}

// MedianFilter replaces every value by the median of the window of the
// given size centered on it (the window is truncated at the edges).
func MedianFilter(values []float64, window int) []float64 {
	half := max(window, 1) / 2
	out := make([]float64, len(values))
	for k := range values {
		start := max(0, k-half)
		end := min(len(values), k+half+1)
		out[k] = median(values[start:end])
	}
	return out
}

func roundDelay(d float64) int {
	return int(math.Round(d))
}
