package drifttracker

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/correlator/implementations/fft"
	"github.com/xaionaro-go/driftsync/pkg/segmenter"
	"github.com/xaionaro-go/driftsync/pkg/silence"
	"github.com/xaionaro-go/driftsync/pkg/silence/implementations/energy"
)

const testRate = audio.SampleRate(8000)

func noise(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

// withGap returns a copy of src with length zero samples inserted at "at".
func withGap(src []float64, at, length int) []float64 {
	out := make([]float64, 0, len(src)+length)
	out = append(out, src[:at]...)
	out = append(out, make([]float64, length)...)
	return append(out, src[at:]...)
}

// withoutRange returns a copy of src with [at, at+length) removed.
func withoutRange(src []float64, at, length int) []float64 {
	out := make([]float64, 0, len(src)-length)
	out = append(out, src[:at]...)
	return append(out, src[at+length:]...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SearchMargin = time.Second
	cfg.InitialSearchMargin = time.Second
	cfg.MinProbe = 100 * time.Millisecond
	cfg.Workers = 2
	return cfg
}

func strideTracker(cfg Config, window, step time.Duration) *Tracker {
	return New(cfg, fft.New(), &segmenter.FixedStride{Window: window, Step: step})
}

func segmentAt(segments []Segment, pos int) Segment {
	for _, s := range segments {
		if s.Start <= pos && pos < s.End {
			return s
		}
	}
	return Segment{Start: -1, End: -1}
}

func assertBoundaryNear(t *testing.T, segments []Segment, pos, tolerance int) {
	t.Helper()
	for _, s := range segments[1:] {
		if abs(s.Start-pos) <= tolerance {
			return
		}
	}
	t.Errorf("no boundary within %d samples of %d: %s", tolerance, pos, spew.Sdump(segments))
}

func TestTracker_Track_Gap(t *testing.T) {
	ctx := context.Background()
	source := noise(1, 100000)
	reference := withGap(source, 40000, 5000)

	for _, mode := range Modes() {
		t.Run(string(mode), func(t *testing.T) {
			cfg := testConfig()
			cfg.Mode = mode
			segments, err := strideTracker(cfg, 250*time.Millisecond, 125*time.Millisecond).Track(ctx, source, reference, testRate)
			require.NoError(t, err)
			require.NoError(t, CheckPartition(segments, len(source)))

			assertBoundaryNear(t, segments, 40000, 300)
			assert.Equal(t, 0, segmentAt(segments, 20000).Delay)
			assert.Equal(t, 5000, segmentAt(segments, 41000).Delay)
			assert.Equal(t, 5000, segmentAt(segments, 99999).Delay)
			assert.Len(t, segments, 2, spew.Sdump(segments))
		})
	}
}

func TestTracker_Track_UniformShift(t *testing.T) {
	ctx := context.Background()
	source := noise(2, 100000)
	reference := withGap(source, 0, 800)

	for _, mode := range Modes() {
		for _, initialProbes := range []int{0, DefaultInitialProbes} {
			cfg := testConfig()
			cfg.Mode = mode
			cfg.InitialProbes = initialProbes
			segments, err := strideTracker(cfg, 250*time.Millisecond, 125*time.Millisecond).Track(ctx, source, reference, testRate)
			require.NoError(t, err)
			require.Len(t, segments, 1, spew.Sdump(segments))
			assert.Equal(t, Segment{Start: 0, End: len(source), Delay: 800}, segments[0])
		}
	}
}

func TestTracker_Track_Trim(t *testing.T) {
	ctx := context.Background()
	source := noise(3, 100000)
	// the reference lacks 4000 samples the source has
	reference := withoutRange(source, 60000, 4000)

	segments, err := strideTracker(testConfig(), 250*time.Millisecond, 125*time.Millisecond).Track(ctx, source, reference, testRate)
	require.NoError(t, err)
	require.NoError(t, CheckPartition(segments, len(source)))
	assert.Equal(t, 0, segmentAt(segments, 30000).Delay)
	assert.Equal(t, -4000, segmentAt(segments, 80000).Delay)
	assertBoundaryNear(t, segments, 60000, 4300)
}

func TestTracker_Track_Transient(t *testing.T) {
	ctx := context.Background()
	source := noise(4, 80000)
	reference := append([]float64(nil), source...)
	// the sound at [50000, 52000) is missing in the reference, but a copy
	// of it appears 6000 samples later
	copy(reference[50000:52000], noise(99, 2000))
	copy(reference[56000:58000], source[50000:52000])

	tracker := strideTracker(testConfig(), 250*time.Millisecond, 250*time.Millisecond)
	segments, err := tracker.Track(ctx, source, reference, testRate)
	require.NoError(t, err)
	require.Len(t, segments, 1, spew.Sdump(segments))
	assert.Equal(t, 0, segments[0].Delay)
}

func TestTracker_Track_HuntExhausted(t *testing.T) {
	ctx := context.Background()
	source := noise(5, 60000)
	for i := 32000; i < len(source); i++ {
		source[i] = 0
	}
	reference := withGap(source, 30000, 4000)

	for _, attempts := range []int{3, DefaultMaxHuntAttempts} {
		cfg := testConfig()
		cfg.MaxHuntAttempts = attempts
		segments, err := strideTracker(cfg, 250*time.Millisecond, 250*time.Millisecond).Track(ctx, source, reference, testRate)
		require.NoError(t, err)
		require.Len(t, segments, 2, spew.Sdump(segments))
		assert.Equal(t, Segment{Start: 0, End: 30000, Delay: 0}, segments[0])
		assert.Equal(t, Segment{Start: 30000, End: 60000, Delay: 4000}, segments[1])
	}
}

func TestTracker_Track_JumpAtTheEnd(t *testing.T) {
	ctx := context.Background()
	source := noise(6, 40000)
	reference := withGap(source, 38500, 4000)

	segments, err := strideTracker(testConfig(), 250*time.Millisecond, 250*time.Millisecond).Track(ctx, source, reference, testRate)
	require.NoError(t, err)
	require.Len(t, segments, 1, spew.Sdump(segments))
	assert.Equal(t, 0, segments[0].Delay)
}

func TestTracker_Track_CutInSilence(t *testing.T) {
	ctx := context.Background()
	source := noise(7, 100000)
	for i := 36000; i < 44000; i++ {
		source[i] = 0
	}
	reference := withGap(source, 40000, 5000)

	tracker := strideTracker(testConfig(), 250*time.Millisecond, 125*time.Millisecond)
	tracker.SilenceDetector = energy.New()
	segments, err := tracker.Track(ctx, source, reference, testRate)
	require.NoError(t, err)
	require.Len(t, segments, 2, spew.Sdump(segments))
	assert.InDelta(t, 40000, segments[1].Start, 300)
	assert.Equal(t, 5000, segments[1].Delay)
}

func TestTracker_Track_Partition(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(8))
	detector := energy.New()
	params := silence.DefaultParams()

	policies := []segmenter.Policy{
		&segmenter.FixedStride{Window: 500 * time.Millisecond, Step: 250 * time.Millisecond},
		&segmenter.SilenceBoundary{Detector: detector, Params: params, MinSilence: 500 * time.Millisecond, MaxProbe: 2 * time.Second},
		&segmenter.TopSilences{Detector: detector, Params: params, Count: 3, MinSilence: 500 * time.Millisecond, MaxProbe: 2 * time.Second},
	}

	for iteration := 0; iteration < 3; iteration++ {
		source := noise(int64(100+iteration), 60000)
		for k := 0; k < 4; k++ {
			at := 5000 + rng.Intn(50000)
			for i := at; i < at+4800 && i < len(source); i++ {
				source[i] = 0
			}
		}
		reference := append([]float64(nil), source...)
		for k := 0; k < 3; k++ {
			at := rng.Intn(len(reference) - 5000)
			if rng.Intn(2) == 0 {
				reference = withGap(reference, at, rng.Intn(6000))
			} else {
				reference = withoutRange(reference, at, rng.Intn(4000))
			}
		}

		for _, policy := range policies {
			for _, mode := range Modes() {
				cfg := testConfig()
				cfg.Mode = mode
				cfg.SmoothOvershoot = iteration%2 == 0
				tracker := New(cfg, fft.New(), policy)
				tracker.SilenceDetector = detector
				segments, err := tracker.Track(ctx, source, reference, testRate)
				require.NoError(t, err, "%s %s", policy, mode)
				assert.NoError(t, CheckPartition(segments, len(source)), "%s %s", policy, mode)
			}
		}
	}
}

func TestTracker_Track_EarlyJumpWithDefaults(t *testing.T) {
	ctx := context.Background()
	for _, c := range []struct {
		name   string
		frames int
		at     int
	}{
		{name: "jump_at_4s", frames: 160000, at: 32000},
		{name: "jump_in_the_middle_of_the_first_window", frames: 100000, at: 40000},
	} {
		source := noise(20, c.frames)
		reference := withGap(source, c.at, 5000)
		for _, mode := range Modes() {
			for _, initialProbes := range []int{0, DefaultInitialProbes} {
				t.Run(fmt.Sprintf("%s/%s/initial_probes_%d", c.name, mode, initialProbes), func(t *testing.T) {
					cfg := DefaultConfig()
					cfg.Mode = mode
					cfg.InitialProbes = initialProbes
					tracker := New(cfg, fft.New(), &segmenter.FixedStride{
						Window: segmenter.DefaultWindow,
						Step:   segmenter.DefaultStep,
					})
					segments, err := tracker.Track(ctx, source, reference, testRate)
					require.NoError(t, err)
					require.Len(t, segments, 2, spew.Sdump(segments))
					assertBoundaryNear(t, segments, c.at, 300)
					assert.Equal(t, 0, segments[0].Delay)
					assert.Equal(t, 5000, segments[1].Delay)
				})
			}
		}
	}
}

func TestTracker_Track_SmoothOvershoot(t *testing.T) {
	ctx := context.Background()
	source := noise(21, 100000)
	// +4000 at 30000, then -3000 at 60000
	reference := withGap(source, 30000, 4000)
	reference = withoutRange(reference, 64000, 3000)

	for _, c := range []struct {
		smooth    bool
		lastDelay int
	}{
		{smooth: false, lastDelay: 1000},
		{smooth: true, lastDelay: 500},
	} {
		cfg := testConfig()
		cfg.SmoothOvershoot = c.smooth
		segments, err := strideTracker(cfg, 250*time.Millisecond, 125*time.Millisecond).Track(ctx, source, reference, testRate)
		require.NoError(t, err)
		require.Len(t, segments, 3, spew.Sdump(segments))
		assert.Equal(t, 0, segmentAt(segments, 20000).Delay)
		assert.Equal(t, 4000, segmentAt(segments, 45000).Delay)
		assert.Equal(t, c.lastDelay, segments[2].Delay, "smooth: %v", c.smooth)
		if !c.smooth {
			assertBoundaryNear(t, segments, 60000, 300)
		}
	}
}

func TestTracker_Track_QuietRegion(t *testing.T) {
	ctx := context.Background()
	source := noise(22, 100000)
	for i := 40000; i < 70000; i++ {
		source[i] *= 0.003
	}
	// the quiet part is shifted by 3000 in the reference, the loud
	// parts are not
	reference := append([]float64(nil), source...)
	other := noise(23, 3000)
	for i := range other {
		reference[40000+i] = other[i] * 0.003
	}
	copy(reference[43000:70000], source[40000:67000])

	cfg := testConfig()
	segments, err := strideTracker(cfg, 250*time.Millisecond, 125*time.Millisecond).Track(ctx, source, reference, testRate)
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Start: 0, End: len(source), Delay: 0}}, segments)

	cfg.QuietThresholdDB = -100
	segments, err = strideTracker(cfg, 250*time.Millisecond, 125*time.Millisecond).Track(ctx, source, reference, testRate)
	require.NoError(t, err)
	require.NoError(t, CheckPartition(segments, len(source)))
	assert.Greater(t, len(segments), 1, spew.Sdump(segments))
	assert.Equal(t, 3000, segmentAt(segments, 55000).Delay)
}

func TestTracker_Track_Errors(t *testing.T) {
	ctx := context.Background()
	tracker := strideTracker(testConfig(), time.Second, time.Second)

	_, err := tracker.Track(ctx, nil, noise(1, 10), testRate)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = tracker.Track(ctx, noise(1, 10), nil, testRate)
	assert.ErrorIs(t, err, ErrEmptyInput)

	tracker.Config.MaxHuntAttempts = 0
	_, err = tracker.Track(ctx, noise(1, 10), noise(1, 10), testRate)
	assert.Error(t, err)

	cancelledCtx, cancel := context.WithCancel(ctx)
	cancel()
	tracker = strideTracker(testConfig(), time.Second, time.Second)
	tracker.Config.InitialProbes = 0
	_, err = tracker.Track(cancelledCtx, noise(1, 80000), noise(1, 80000), testRate)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTracker_Track_SilentInput(t *testing.T) {
	ctx := context.Background()
	segments, err := strideTracker(testConfig(), time.Second, time.Second).Track(ctx, make([]float64, 50000), make([]float64, 50000), testRate)
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Start: 0, End: 50000, Delay: 0}}, segments)
}

func TestRefineBoundary(t *testing.T) {
	source := noise(9, 10000)
	reference := withGap(source, 4321, 700)
	assert.Equal(t, 4321, refineBoundary(source, reference, 3000, 6000, 0, 700))
	assert.Equal(t, 3000, refineBoundary(source, reference, 3000, 3001, 0, 700))
}

func TestSplitPrefix(t *testing.T) {
	source := noise(24, 40000)
	reference := withGap(source, 12000, 3000)
	cfg := testConfig()
	r := &run{
		Tracker:   strideTracker(cfg, time.Second, time.Second),
		source:    source,
		reference: reference,
		rate:      testRate,
		limits:    cfg.limits(testRate),
	}

	at, ok := r.splitPrefix(0, 30000, 0, 3000)
	require.True(t, ok)
	assert.InDelta(t, 12000, at, 50)

	// the seed explains nothing
	_, ok = r.splitPrefix(0, 30000, 7000, 3000)
	assert.False(t, ok)

	// the whole range is at the old delay
	_, ok = r.splitPrefix(0, 11000, 0, 3000)
	assert.False(t, ok)
}

func TestMedianFilter(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, MedianFilter([]float64{0, 0, 100, 0, 0}, 5))
	assert.Equal(t, []float64{1.5, 2, 2.5}, MedianFilter([]float64{1, 2, 3}, 3))
	assert.Equal(t, []float64{1, 2, 3}, MedianFilter([]float64{1, 2, 3}, 1))
	assert.Empty(t, MedianFilter(nil, 5))
}

func TestProgressiveProbe(t *testing.T) {
	ctx := context.Background()
	source := noise(10, 80000)
	reference := withGap(source, 0, 800)

	res := ProgressiveProbe(ctx, fft.New(), source, reference, testRate, 8000, 0, DefaultProgressiveOptions())
	require.True(t, res.Found())
	assert.Equal(t, 800, res.Delay)
	assert.Equal(t, 3*time.Second, res.Window)
	assert.Greater(t, res.Quality, 0.9)

	res = ProgressiveProbe(ctx, fft.New(), make([]float64, 80000), reference, testRate, 8000, 0, DefaultProgressiveOptions())
	assert.False(t, res.Found())

	res = ProgressiveProbe(ctx, fft.New(), source, reference, testRate, -1, 0, DefaultProgressiveOptions())
	assert.False(t, res.Found())
}
