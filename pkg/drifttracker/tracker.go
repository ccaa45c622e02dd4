// Package drifttracker estimates how the delay between a source track and
// a reference track changes over time.
//
// The tracker walks the regions produced by a segmenter policy, correlates
// each region's probe against the reference around the position predicted
// by the current delay, and turns the measurements into a list of segments
// with a constant delay each. Small corrections are absorbed, large jumps
// are only accepted after they are confirmed by later probes.
package drifttracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/correlator"
	"github.com/xaionaro-go/driftsync/pkg/segmenter"
	"github.com/xaionaro-go/driftsync/pkg/silence"
	"github.com/xaionaro-go/observability"
)

var ErrEmptyInput = errors.New("empty input")

type Tracker struct {
	Config     Config
	Correlator correlator.Correlator
	Segmenter  segmenter.Policy

	// SilenceDetector is optional. If set, cuts are moved to the midpoint
	// of the closest silence, where they are inaudible.
	SilenceDetector silence.Detector
	SilenceParams   silence.Params
}

func New(
	cfg Config,
	corr correlator.Correlator,
	policy segmenter.Policy,
) *Tracker {
	return &Tracker{
		Config:        cfg,
		Correlator:    corr,
		Segmenter:     policy,
		SilenceParams: silence.DefaultParams(),
	}
}

// Track returns the segments partitioning [0, len(source)).
//
// Both tracks are expected to be mono at sampleRate.
func (t *Tracker) Track(
	ctx context.Context,
	source []float64,
	reference []float64,
	sampleRate audio.SampleRate,
) ([]Segment, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("the source track: %w", ErrEmptyInput)
	}
	if len(reference) == 0 {
		return nil, fmt.Errorf("the reference track: %w", ErrEmptyInput)
	}
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate is mandatory")
	}
	if t.Correlator == nil {
		return nil, fmt.Errorf("correlator is mandatory")
	}
	if t.Segmenter == nil {
		return nil, fmt.Errorf("segmenter is mandatory")
	}
	if err := t.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	regions, err := t.Segmenter.Split(ctx, source, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("unable to split the source track using %s: %w", t.Segmenter, err)
	}

	r := &run{
		Tracker:   t,
		source:    source,
		reference: reference,
		rate:      sampleRate,
		limits:    t.Config.limits(sampleRate),
	}
	for _, region := range regions {
		if region.ProbeLength >= r.limits.minProbe && region.ProbeEnd() <= len(source) {
			r.probes = append(r.probes, region)
		}
	}
	logger.Debugf(ctx, "%s produced %d regions, %d of them are probed", t.Segmenter, len(regions), len(r.probes))

	if t.SilenceDetector != nil {
		r.silences = t.SilenceDetector.FindSilence(ctx, source, sampleRate, t.SilenceParams)
	}

	initialDelay := r.initialDelay(ctx)
	logger.Debugf(ctx, "initial delay: %d samples (%.3fs)", initialDelay, sampleRate.Seconds(initialDelay))

	var segments []Segment
	switch t.Config.Mode {
	case ModeIncremental:
		segments, err = r.incremental(ctx, initialDelay)
	case ModeMedian:
		segments, err = r.median(ctx, initialDelay)
	default:
		err = fmt.Errorf("unknown mode '%s'", t.Config.Mode)
	}
	if err != nil {
		return nil, err
	}

	if err := CheckPartition(segments, len(source)); err != nil {
		return nil, fmt.Errorf("internal error: %w", err)
	}
	for _, s := range segments {
		logger.Debugf(ctx, "segment %.2fs - %.2fs: delay %.3fs", sampleRate.Seconds(s.Start), sampleRate.Seconds(s.End), sampleRate.Seconds(s.Delay))
	}
	return segments, nil
}

// run is the state shared by a single Track call.
type run struct {
	*Tracker
	source    []float64
	reference []float64
	rate      audio.SampleRate
	limits    limits
	probes    []segmenter.Region
	silences  []silence.Interval
}

type measurement struct {
	found   bool
	quiet   bool
	delay   int
	quality float64
}

func (m measurement) acceptable(minQuality float64) bool {
	return m.found && !m.quiet && m.quality >= minQuality
}

// measure correlates the probe against the reference around the position
// predicted by delay.
func (r *run) measure(p segmenter.Region, delay, margin int) measurement {
	needle := r.source[p.ProbeStart:p.ProbeEnd()]
	expected := p.ProbeStart + delay
	if r.isQuiet(needle, expected) {
		return measurement{quiet: true}
	}
	res := r.Correlator.Correlate(needle, r.reference, &correlator.SearchWindow{
		Start: expected - margin,
		End:   expected + len(needle) + margin,
	})
	if !res.Found() {
		return measurement{}
	}
	return measurement{
		found:   true,
		delay:   res.Offset - p.ProbeStart,
		quality: res.Quality,
	}
}

func (r *run) isQuiet(needle []float64, expected int) bool {
	threshold := r.Config.QuietThresholdDB
	if correlator.RMSDecibels(needle, minDB) >= threshold {
		return false
	}
	start := min(max(expected, 0), len(r.reference))
	end := min(max(expected+len(needle), 0), len(r.reference))
	return correlator.RMSDecibels(r.reference[start:end], minDB) < threshold
}

const minDB = -100

// initialDelay correlates the first probes against a wide part of the
// reference concurrently and returns the median of the confident results.
func (r *run) initialDelay(ctx context.Context) int {
	count := min(r.Config.InitialProbes, len(r.probes))
	if count == 0 {
		return 0
	}
	workers := r.Config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]measurement, count)
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for idx := 0; idx < count; idx++ {
		idx := idx
		wg.Add(1)
		semaphore <- struct{}{}
		observability.Go(ctx, func() {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[idx] = r.measure(r.probes[idx], 0, r.limits.initialSearchMargin)
		})
	}
	wg.Wait()

	var delays []float64
	for idx, m := range results {
		logger.Tracef(ctx, "initial probe %d at %d: %#+v", idx, r.probes[idx].ProbeStart, m)
		if m.acceptable(r.Config.AcceptQuality) {
			delays = append(delays, float64(m.delay))
		}
	}
	if len(delays) == 0 {
		logger.Debugf(ctx, "none of the %d initial probes matched, starting from delay 0", count)
		return 0
	}
	return int(math.Round(median(delays)))
}

// chooseCut picks the position within [lo, hi) at which the delay switches
// from oldDelay to newDelay. The preference is: the closest silence midpoint,
// the refined boundary, the scan position.
func (r *run) chooseCut(lo, hi, scanPos, oldDelay, newDelay int) int {
	lo = max(lo, 0)
	hi = min(hi, len(r.source))
	near := scanPos
	if r.Config.RefineBoundaries && lo < hi {
		near = refineBoundary(r.source, r.reference, lo, hi, oldDelay, newDelay)
	}
	return r.inSilence(lo, hi, near)
}

// inSilence moves pos to the midpoint of the closest silence within [lo, hi),
// if there is one.
func (r *run) inSilence(lo, hi, pos int) int {
	if mid, ok := silence.Midpoint(r.silences, lo, hi, pos); ok {
		return mid
	}
	return pos
}

// splitPrefix checks whether [lo, hi) is explained by oldDelay up to some
// position and by newDelay after it, and returns the cut position.
// Both parts must be at least a probe long and correlate at their delays.
func (r *run) splitPrefix(lo, hi, oldDelay, newDelay int) (int, bool) {
	lo = max(lo, 0)
	hi = min(hi, len(r.source))
	if hi-lo < 2*r.limits.minProbe {
		return 0, false
	}
	b := refineBoundary(r.source, r.reference, lo, hi, oldDelay, newDelay)
	if b-lo < r.limits.minProbe || hi-b < r.limits.minProbe {
		return 0, false
	}
	if !r.matchesAt(lo, b, oldDelay) || !r.matchesAt(b, hi, newDelay) {
		return 0, false
	}
	return r.inSilence(lo, hi, b), true
}

// matchesAt checks that source[start:end) correlates with the reference
// at exactly the given delay.
func (r *run) matchesAt(start, end, delay int) bool {
	refStart := start + delay
	if start < 0 || end > len(r.source) || refStart < 0 || refStart+(end-start) > len(r.reference) {
		return false
	}
	score, ok := correlator.Pearson(
		r.source[start:end],
		r.reference[refStart:refStart+(end-start)],
		correlator.DefaultStdEpsilon,
	)
	return ok && score > r.Config.VerifyQuality
}

// leadIn looks for a different delay at the very beginning of the timeline,
// where a jump inside the first probe would otherwise be averaged into
// the delay of the whole prefix. It correlates ever shorter heads of the
// first probe and returns the cut and the delay before it.
func (r *run) leadIn(ctx context.Context, delay int) (int, int, bool) {
	if len(r.probes) == 0 {
		return 0, 0, false
	}
	first := r.probes[0]
	for length := first.ProbeLength / 2; length >= r.limits.minProbe; length /= 2 {
		head := first
		head.ProbeLength = length
		m := r.measure(head, delay, r.limits.searchMargin)
		if !m.acceptable(r.Config.AcceptQuality) || abs(m.delay-delay) < r.limits.jumpThreshold {
			continue
		}
		at, ok := r.splitPrefix(first.ProbeStart, first.ProbeEnd(), m.delay, delay)
		logger.Debugf(ctx, "the first %.2fs are at delay %d instead of %d; split: %v at %d",
			r.rate.Seconds(length), m.delay, delay, ok, at)
		if !ok {
			return 0, 0, false
		}
		return at, m.delay, true
	}
	return 0, 0, false
}

// refineBoundary returns b within [lo, hi) that maximizes
//
//	Σ_{x∈[lo,b)} source[x]·reference[x+oldDelay] + Σ_{x∈[b,hi)} source[x]·reference[x+newDelay]
//
// that is the position where the new delay starts to explain the source
// better than the old one.
func refineBoundary(source, reference []float64, lo, hi, oldDelay, newDelay int) int {
	product := func(x, delay int) float64 {
		y := x + delay
		if y < 0 || y >= len(reference) {
			return 0
		}
		return source[x] * reference[y]
	}

	var newTotal float64
	for x := lo; x < hi; x++ {
		newTotal += product(x, newDelay)
	}

	best, bestScore := lo, newTotal
	var oldPrefix, newPrefix float64
	for b := lo + 1; b < hi; b++ {
		oldPrefix += product(b-1, oldDelay)
		newPrefix += product(b-1, newDelay)
		if score := oldPrefix + newTotal - newPrefix; score > bestScore {
			best, bestScore = b, score
		}
	}
	return best
}

// median returns the median of values (the mean of the two middle
// values for an even amount).
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
