// Package pipeline wires the decoding, the drift tracking, the reconstruction
// and the encoding together.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/audio/resampler"
	"github.com/xaionaro-go/driftsync/pkg/config"
	"github.com/xaionaro-go/driftsync/pkg/drifttracker"
	"github.com/xaionaro-go/driftsync/pkg/mediaio"
	"github.com/xaionaro-go/driftsync/pkg/reconstructor"
	"github.com/xaionaro-go/driftsync/pkg/segmenter"
	"github.com/xaionaro-go/driftsync/pkg/silence/implementations/energy"
	"github.com/xaionaro-go/observability"
)

type Pipeline struct {
	Decoder mediaio.Decoder
	Encoder mediaio.Encoder
	Tracker *drifttracker.Tracker

	AnalysisRate   audio.SampleRate
	PadToReference bool
}

// New builds a pipeline out of the configuration.
func New(
	cfg *config.Config,
	decoder mediaio.Decoder,
	encoder mediaio.Encoder,
) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	trackerCfg, err := cfg.TrackerConfig()
	if err != nil {
		return nil, err
	}

	detector := energy.New()
	policyName, err := segmenter.ParsePolicyName(cfg.Segmenter.Policy)
	if err != nil {
		return nil, err
	}
	policy, err := segmenter.New(policyName, cfg.SegmenterOptions(detector))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the segmenter: %w", err)
	}

	tracker := drifttracker.New(trackerCfg, cfg.NewCorrelator(), policy)
	tracker.SilenceParams = cfg.SilenceParams()
	if cfg.Tracker.CutInSilence {
		tracker.SilenceDetector = detector
	}

	return &Pipeline{
		Decoder:        decoder,
		Encoder:        encoder,
		Tracker:        tracker,
		AnalysisRate:   cfg.Analysis.SampleRate,
		PadToReference: cfg.Reconstruct.PadToReference,
	}, nil
}

// Analysis is the outcome of tracking the source against the reference.
type Analysis struct {
	Source          *audio.PCM
	ReferenceFrames int
	ReferenceRate   audio.SampleRate
	Segments        []drifttracker.Segment
	AnalysisRate    audio.SampleRate
}

// Analyze decodes both tracks and finds the segments of the source.
//
// Both tracks are decoded at their native format and brought to the
// analysis rate by the same resampler, so the correlated signals went
// through identical filtering.
func (p *Pipeline) Analyze(
	ctx context.Context,
	sourcePath string,
	referencePath string,
) (*Analysis, error) {
	var (
		wg                      sync.WaitGroup
		source, reference       *audio.PCM
		sourceErr, referenceErr error
	)
	wg.Add(2)
	observability.Go(ctx, func() {
		defer wg.Done()
		source, sourceErr = p.Decoder.Decode(ctx, sourcePath, mediaio.DecodeOptions{})
	})
	observability.Go(ctx, func() {
		defer wg.Done()
		reference, referenceErr = p.Decoder.Decode(ctx, referencePath, mediaio.DecodeOptions{})
	})
	wg.Wait()

	var mErr *multierror.Error
	if sourceErr != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to decode the source track: %w", sourceErr))
	}
	if referenceErr != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to decode the reference track: %w", referenceErr))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return nil, err
	}
	if err := mediaio.CheckDecoded(sourcePath, source); err != nil {
		return nil, err
	}
	if err := mediaio.CheckDecoded(referencePath, reference); err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "source: %s; reference: %s", source, reference)

	sourceAnalysis, err := resampler.ToAnalysis(source, p.AnalysisRate)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare the source track for the analysis: %w", err)
	}
	referenceAnalysis, err := resampler.ToAnalysis(reference, p.AnalysisRate)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare the reference track for the analysis: %w", err)
	}

	segments, err := p.Tracker.Track(ctx, sourceAnalysis, referenceAnalysis, p.AnalysisRate)
	if err != nil {
		return nil, fmt.Errorf("unable to track the drift: %w", err)
	}
	return &Analysis{
		Source:          source,
		ReferenceFrames: reference.Frames(),
		ReferenceRate:   reference.SampleRate,
		Segments:        segments,
		AnalysisRate:    p.AnalysisRate,
	}, nil
}

type Result struct {
	*Analysis
	Output     *audio.PCM
	Placements []reconstructor.Placement

	// EncodeError is not fatal: the analysis is valid even if
	// the output could not be written.
	EncodeError error
}

// Sync analyzes the tracks and writes the source aligned to the reference
// to every output path.
func (p *Pipeline) Sync(
	ctx context.Context,
	sourcePath string,
	referencePath string,
	outputPaths ...string,
) (*Result, error) {
	analysis, err := p.Analyze(ctx, sourcePath, referencePath)
	if err != nil {
		return nil, err
	}

	var opts reconstructor.Options
	if p.PadToReference {
		opts.MinFrames = resampler.OutputFrames(analysis.ReferenceFrames, analysis.ReferenceRate, analysis.Source.SampleRate)
	}
	output, placements, err := reconstructor.Reconstruct(ctx, analysis.Source, analysis.Segments, analysis.AnalysisRate, opts)
	if err != nil {
		return nil, fmt.Errorf("unable to reconstruct the track: %w", err)
	}
	result := &Result{
		Analysis:   analysis,
		Output:     output,
		Placements: placements,
	}

	var mErr *multierror.Error
	for _, path := range outputPaths {
		if p.Encoder == nil {
			mErr = multierror.Append(mErr, fmt.Errorf("no encoder to write '%s'", path))
			continue
		}
		if err := p.Encoder.Encode(ctx, path, output); err != nil {
			logger.Errorf(ctx, "unable to write '%s': %v", path, err)
			mErr = multierror.Append(mErr, fmt.Errorf("unable to write '%s': %w", path, err))
			continue
		}
		logger.Infof(ctx, "written '%s'", path)
	}
	result.EncodeError = mErr.ErrorOrNil()
	return result, nil
}
