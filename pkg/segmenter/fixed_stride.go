package segmenter

import (
	"context"
	"fmt"
	"time"

	"github.com/xaionaro-go/driftsync/pkg/audio"
)

const (
	DefaultWindow = 10 * time.Second
	DefaultStep   = time.Second
)

// FixedStride advances by Step and correlates Window-long probes, so
// consecutive probes overlap while regions do not.
type FixedStride struct {
	Window time.Duration
	Step   time.Duration
}

var _ Policy = (*FixedStride)(nil)

func (p *FixedStride) String() string {
	return fmt.Sprintf("%s(window=%v, step=%v)", PolicyNameFixedStride, p.Window, p.Step)
}

func (p *FixedStride) Split(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
) ([]Region, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate is mandatory")
	}
	window := sampleRate.Samples(p.Window)
	step := sampleRate.Samples(p.Step)
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive: %v", p.Window)
	}
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive: %v", p.Step)
	}

	n := len(samples)
	regions := make([]Region, 0, n/step+1)
	for start := 0; start < n; start += step {
		regions = append(regions, Region{
			Start:       start,
			End:         min(start+step, n),
			ProbeStart:  start,
			ProbeLength: min(window, n-start),
		})
	}
	return regions, nil
}
