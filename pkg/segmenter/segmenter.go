// Package segmenter splits a track's timeline into regions at which the
// delay gets re-estimated.
//
// All policies return an ordered gapless partition of [0, len(samples)),
// so downstream consumers do not care which policy was used.
package segmenter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/silence"
)

// Region is a cell of the timeline partition together with the part of it
// that should be correlated.
type Region struct {
	Start int
	End   int

	// ProbeStart and ProbeLength describe the window to correlate.
	// The probe may extend beyond End (fixed-stride windows overlap).
	ProbeStart  int
	ProbeLength int
}

func (r Region) Len() int {
	return r.End - r.Start
}

func (r Region) ProbeEnd() int {
	return r.ProbeStart + r.ProbeLength
}

func (r Region) String() string {
	return fmt.Sprintf("[%d, %d) probe [%d, %d)", r.Start, r.End, r.ProbeStart, r.ProbeEnd())
}

type Policy interface {
	fmt.Stringer

	Split(
		ctx context.Context,
		samples []float64,
		sampleRate audio.SampleRate,
	) ([]Region, error)
}

type PolicyName string

const (
	PolicyNameFixedStride     = PolicyName("fixed-stride")
	PolicyNameSilenceBoundary = PolicyName("silence-boundary")
	PolicyNameTopSilences     = PolicyName("top-silences")
)

func PolicyNames() []PolicyName {
	return []PolicyName{
		PolicyNameFixedStride,
		PolicyNameSilenceBoundary,
		PolicyNameTopSilences,
	}
}

func ParsePolicyName(s string) (PolicyName, error) {
	name := PolicyName(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range PolicyNames() {
		if name == known {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown segmentation policy '%s', expected one of %v", s, PolicyNames())
}

// Options contains the parameters of all the policies; each policy
// uses only the fields relevant to it.
type Options struct {
	Window time.Duration
	Step   time.Duration

	Detector      silence.Detector
	SilenceParams silence.Params
	MinSilence    time.Duration
	MaxProbe      time.Duration

	Count         int
	TopMinSilence time.Duration
}

func DefaultOptions() Options {
	return Options{
		Window:        DefaultWindow,
		Step:          DefaultStep,
		SilenceParams: silence.DefaultParams(),
		MinSilence:    DefaultMinSilence,
		MaxProbe:      DefaultMaxProbe,
		Count:         DefaultCount,
		TopMinSilence: DefaultTopSilenceDuration,
	}
}

// New builds a policy by its name.
func New(name PolicyName, opts Options) (Policy, error) {
	switch name {
	case PolicyNameFixedStride:
		return &FixedStride{
			Window: opts.Window,
			Step:   opts.Step,
		}, nil
	case PolicyNameSilenceBoundary:
		if opts.Detector == nil {
			return nil, fmt.Errorf("policy '%s' requires a silence detector", name)
		}
		return &SilenceBoundary{
			Detector:   opts.Detector,
			Params:     opts.SilenceParams,
			MinSilence: opts.MinSilence,
			MaxProbe:   opts.MaxProbe,
		}, nil
	case PolicyNameTopSilences:
		if opts.Detector == nil {
			return nil, fmt.Errorf("policy '%s' requires a silence detector", name)
		}
		return &TopSilences{
			Detector:   opts.Detector,
			Params:     opts.SilenceParams,
			Count:      opts.Count,
			MinSilence: opts.TopMinSilence,
			MaxProbe:   opts.MaxProbe,
		}, nil
	default:
		return nil, fmt.Errorf("unknown segmentation policy '%s'", name)
	}
}
