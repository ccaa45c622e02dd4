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
	DefaultCount              = 10
	DefaultTopSilenceDuration = time.Second
)

// TopSilences is SilenceBoundary restricted to the Count longest silences.
// It produces few but long regions, which suits tracks that drift rarely.
type TopSilences struct {
	Detector   silence.Detector
	Params     silence.Params
	Count      int
	MinSilence time.Duration
	MaxProbe   time.Duration
}

var _ Policy = (*TopSilences)(nil)

func (p *TopSilences) String() string {
	return fmt.Sprintf("%s(count=%d, min_silence=%v)", PolicyNameTopSilences, p.Count, p.MinSilence)
}

func (p *TopSilences) Split(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
) ([]Region, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate is mandatory")
	}
	if p.Count < 0 {
		return nil, fmt.Errorf("count must not be negative: %d", p.Count)
	}
	minSilence := p.MinSilence
	if minSilence <= 0 {
		minSilence = DefaultTopSilenceDuration
	}

	intervals := p.Detector.FindSilence(ctx, samples, sampleRate, p.Params)
	splits := silence.Longest(intervals, p.Count, sampleRate.Samples(minSilence))
	for idx, s := range splits {
		logger.Debugf(ctx, "silence %d: %.2fs - %.2fs", idx+1, sampleRate.Seconds(s.Start), sampleRate.Seconds(s.End))
	}
	return fromSilences(len(samples), splits, sampleRate.Samples(p.MaxProbe)), nil
}
