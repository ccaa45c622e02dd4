package drifttracker

import (
	"context"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/correlator"
)

// ProgressiveOptions configures ProgressiveProbe.
type ProgressiveOptions struct {
	// Windows are the probe lengths to try, shortest first.
	Windows []time.Duration

	SearchMargin time.Duration

	// The probing stops early once a window not longer than GoodWindow
	// reaches GoodQuality, or any window reaches ExcellentQuality.
	GoodQuality      float64
	GoodWindow       time.Duration
	ExcellentQuality float64

	// MinProbe is the shortest usable probe (shorter ones are skipped).
	MinProbe time.Duration
}

func DefaultProgressiveOptions() ProgressiveOptions {
	return ProgressiveOptions{
		Windows: []time.Duration{
			3 * time.Second,
			5 * time.Second,
			10 * time.Second,
			20 * time.Second,
			40 * time.Second,
		},
		SearchMargin:     time.Second,
		GoodQuality:      0.5,
		GoodWindow:       10 * time.Second,
		ExcellentQuality: 0.7,
		MinProbe:         500 * time.Millisecond,
	}
}

type ProgressiveResult struct {
	// Delay is the reference position minus the source position, in samples.
	Delay   int
	Quality float64
	Window  time.Duration
}

func (r ProgressiveResult) Found() bool {
	return r.Window > 0
}

// ProgressiveProbe measures the delay at source position pos by correlating
// increasingly long probes until one is convincing, and returns the best
// measurement. expectedDelay centers the search in the reference.
func ProgressiveProbe(
	ctx context.Context,
	corr correlator.Correlator,
	source []float64,
	reference []float64,
	sampleRate audio.SampleRate,
	pos int,
	expectedDelay int,
	opts ProgressiveOptions,
) ProgressiveResult {
	var best ProgressiveResult
	if pos < 0 || pos >= len(source) {
		return best
	}
	margin := sampleRate.Samples(opts.SearchMargin)
	minProbe := sampleRate.Samples(opts.MinProbe)
	for _, window := range opts.Windows {
		end := min(pos+sampleRate.Samples(window), len(source))
		if end-pos < minProbe {
			continue
		}
		expected := pos + expectedDelay
		res := corr.Correlate(source[pos:end], reference, &correlator.SearchWindow{
			Start: expected - margin,
			End:   expected + (end - pos) + margin,
		})
		logger.Tracef(ctx, "progressive probe at %d with window %v: %s", pos, window, res)
		if !res.Found() {
			continue
		}
		if res.Quality > best.Quality || !best.Found() {
			best = ProgressiveResult{
				Delay:   res.Offset - pos,
				Quality: res.Quality,
				Window:  window,
			}
		}
		if res.Quality >= opts.GoodQuality && window <= opts.GoodWindow {
			break
		}
		if res.Quality >= opts.ExcellentQuality {
			break
		}
	}
	return best
}
