package segmenter

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/silence"
)

const (
	DefaultMinSilence = 500 * time.Millisecond
	DefaultMaxProbe   = 40 * time.Second
)

// SilenceBoundary splits the timeline at every silence that is at least
// MinSilence long. A region begins at a silence and lasts until the next
// one; its probe is the sound that follows the silence.
type SilenceBoundary struct {
	Detector   silence.Detector
	Params     silence.Params
	MinSilence time.Duration
	MaxProbe   time.Duration
}

var _ Policy = (*SilenceBoundary)(nil)

func (p *SilenceBoundary) String() string {
	return fmt.Sprintf("%s(min_silence=%v)", PolicyNameSilenceBoundary, p.MinSilence)
}

func (p *SilenceBoundary) Split(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
) ([]Region, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate is mandatory")
	}
	intervals := p.Detector.FindSilence(ctx, samples, sampleRate, p.Params)
	splits := silence.Filter(intervals, sampleRate.Samples(p.MinSilence))
	logger.Debugf(ctx, "%d of %d silences are long enough to split at", len(splits), len(intervals))
	return fromSilences(len(samples), splits, sampleRate.Samples(p.MaxProbe)), nil
}

// fromSilences turns the sorted split silences into a partition of [0, n).
func fromSilences(n int, splits []silence.Interval, maxProbe int) []Region {
	if n == 0 {
		return nil
	}
	if maxProbe <= 0 {
		maxProbe = n
	}

	var regions []Region
	add := func(start, end, soundStart int) {
		if end <= start {
			return
		}
		soundStart = min(max(soundStart, start), end)
		regions = append(regions, Region{
			Start:       start,
			End:         end,
			ProbeStart:  soundStart,
			ProbeLength: min(end-soundStart, maxProbe),
		})
	}

	prevStart, prevSoundStart := 0, 0
	for _, s := range splits {
		if s.Start <= prevStart {
			// a silence at the very beginning only moves the first probe
			prevSoundStart = max(prevSoundStart, s.End)
			continue
		}
		add(prevStart, s.Start, prevSoundStart)
		prevStart, prevSoundStart = s.Start, s.End
	}
	add(prevStart, n, prevSoundStart)
	return regions
}
