package drifttracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/driftsync/pkg/audio"
)

type Mode string

const (
	// ModeIncremental verifies every candidate jump before accepting it.
	ModeIncremental = Mode("incremental")

	// ModeMedian collects a dense stream of raw delays, median-filters it
	// and cuts where the filtered delay changes for good.
	ModeMedian = Mode("median")
)

func Modes() []Mode {
	return []Mode{ModeIncremental, ModeMedian}
}

func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown tracking mode '%s', expected one of %v", s, Modes())
}

type Config struct {
	Mode Mode

	// SearchMargin is how far around the expected position the reference
	// is searched; it bounds the largest jump that can be detected at once.
	SearchMargin time.Duration

	// JumpThreshold separates small corrections (absorbed silently)
	// from jumps (that need verification and produce a new segment).
	JumpThreshold time.Duration

	// ChangeThreshold is the delay change that makes ModeMedian cut.
	ChangeThreshold time.Duration

	// AcceptQuality is the minimal correlation quality of a measurement.
	AcceptQuality float64

	// VerifyQuality is the minimal quality of a verification re-probe.
	VerifyQuality float64

	// MinProbe is the shortest probe worth correlating.
	MinProbe time.Duration

	// MaxHuntAttempts bounds the amount of re-probes spent verifying one jump.
	MaxHuntAttempts int

	// ResumeDistance is how far after an unverified jump the scan resumes.
	ResumeDistance time.Duration

	// InitialSearchMargin is the search margin of the initial delay scan.
	InitialSearchMargin time.Duration

	// InitialProbes is how many of the first probes are used to estimate
	// the initial delay; zero means starting from delay 0.
	InitialProbes int

	// Workers limits the concurrency of the initial scan; zero means
	// the amount of CPUs.
	Workers int

	// MedianWindow is the amount of points of the ModeMedian filter.
	MedianWindow int

	// LookAhead is the amount of points that must agree with a change
	// before ModeMedian cuts.
	LookAhead int

	// RefineBoundaries enables searching for the sample at which the
	// old delay stops matching better than the new one.
	RefineBoundaries bool

	// SmoothOvershoot averages two consecutive opposite jumps.
	SmoothOvershoot bool

	// QuietThresholdDB makes probes that are quieter than this level in both
	// tracks be skipped. Use -100 (or lower) to disable.
	QuietThresholdDB float64
}

const (
	DefaultSearchMargin        = 4 * time.Second
	DefaultJumpThreshold       = 300 * time.Millisecond
	DefaultChangeThreshold     = 100 * time.Millisecond
	DefaultAcceptQuality       = 0.25
	DefaultVerifyQuality       = 0.2
	DefaultMinProbe            = 500 * time.Millisecond
	DefaultMaxHuntAttempts     = 50
	DefaultResumeDistance      = 5 * time.Second
	DefaultInitialSearchMargin = 10 * time.Second
	DefaultInitialProbes       = 8
	DefaultMedianWindow        = 5
	DefaultLookAhead           = 3
	DefaultQuietThresholdDB    = -35
)

func DefaultConfig() Config {
	return Config{
		Mode:                ModeIncremental,
		SearchMargin:        DefaultSearchMargin,
		JumpThreshold:       DefaultJumpThreshold,
		ChangeThreshold:     DefaultChangeThreshold,
		AcceptQuality:       DefaultAcceptQuality,
		VerifyQuality:       DefaultVerifyQuality,
		MinProbe:            DefaultMinProbe,
		MaxHuntAttempts:     DefaultMaxHuntAttempts,
		ResumeDistance:      DefaultResumeDistance,
		InitialSearchMargin: DefaultInitialSearchMargin,
		InitialProbes:       DefaultInitialProbes,
		MedianWindow:        DefaultMedianWindow,
		LookAhead:           DefaultLookAhead,
		RefineBoundaries:    true,
		QuietThresholdDB:    DefaultQuietThresholdDB,
	}
}

func (cfg Config) Validate() error {
	var mErr *multierror.Error
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if cfg.SearchMargin <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("search margin must be positive: %v", cfg.SearchMargin))
	}
	if cfg.JumpThreshold <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("jump threshold must be positive: %v", cfg.JumpThreshold))
	}
	if cfg.Mode == ModeMedian && cfg.ChangeThreshold <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("change threshold must be positive: %v", cfg.ChangeThreshold))
	}
	if cfg.AcceptQuality < 0 || cfg.AcceptQuality > 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("accept quality must be within [0, 1]: %v", cfg.AcceptQuality))
	}
	if cfg.VerifyQuality < 0 || cfg.VerifyQuality > 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("verify quality must be within [0, 1]: %v", cfg.VerifyQuality))
	}
	if cfg.MinProbe < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("min probe must not be negative: %v", cfg.MinProbe))
	}
	if cfg.MaxHuntAttempts < 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("max hunt attempts must be at least 1: %d", cfg.MaxHuntAttempts))
	}
	if cfg.ResumeDistance < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("resume distance must not be negative: %v", cfg.ResumeDistance))
	}
	if cfg.InitialProbes < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("initial probes must not be negative: %d", cfg.InitialProbes))
	}
	if cfg.InitialProbes > 0 && cfg.InitialSearchMargin <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("initial search margin must be positive: %v", cfg.InitialSearchMargin))
	}
	if cfg.Workers < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("workers must not be negative: %d", cfg.Workers))
	}
	if cfg.MedianWindow < 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("median window must be at least 1: %d", cfg.MedianWindow))
	}
	if cfg.LookAhead < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("look-ahead must not be negative: %d", cfg.LookAhead))
	}
	return mErr.ErrorOrNil()
}

// limits is Config converted to samples at the analysis rate.
type limits struct {
	searchMargin        int
	jumpThreshold       int
	changeThreshold     int
	minProbe            int
	resumeDistance      int
	initialSearchMargin int
}

func (cfg Config) limits(rate audio.SampleRate) limits {
	return limits{
		searchMargin:        rate.Samples(cfg.SearchMargin),
		jumpThreshold:       rate.Samples(cfg.JumpThreshold),
		changeThreshold:     rate.Samples(cfg.ChangeThreshold),
		minProbe:            max(1, rate.Samples(cfg.MinProbe)),
		resumeDistance:      rate.Samples(cfg.ResumeDistance),
		initialSearchMargin: rate.Samples(cfg.InitialSearchMargin),
	}
}
