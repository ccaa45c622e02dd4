package config

import (
	"github.com/xaionaro-go/driftsync/pkg/correlator"
	"github.com/xaionaro-go/driftsync/pkg/correlator/implementations/fft"
	"github.com/xaionaro-go/driftsync/pkg/correlator/implementations/gccphat"
	"github.com/xaionaro-go/driftsync/pkg/drifttracker"
	"github.com/xaionaro-go/driftsync/pkg/segmenter"
	"github.com/xaionaro-go/driftsync/pkg/silence"
)

func (cfg Config) TrackerConfig() (drifttracker.Config, error) {
	mode, err := drifttracker.ParseMode(cfg.Tracker.Mode)
	if err != nil {
		return drifttracker.Config{}, err
	}
	t := cfg.Tracker
	return drifttracker.Config{
		Mode:                mode,
		SearchMargin:        t.SearchMargin.Duration(),
		JumpThreshold:       t.JumpThreshold.Duration(),
		ChangeThreshold:     t.ChangeThreshold.Duration(),
		AcceptQuality:       t.AcceptQuality,
		VerifyQuality:       t.VerifyQuality,
		MinProbe:            t.MinProbe.Duration(),
		MaxHuntAttempts:     t.MaxHuntAttempts,
		ResumeDistance:      t.ResumeDistance.Duration(),
		InitialSearchMargin: t.InitialSearchMargin.Duration(),
		InitialProbes:       t.InitialProbes,
		Workers:             t.Workers,
		MedianWindow:        t.MedianWindow,
		LookAhead:           t.LookAhead,
		RefineBoundaries:    t.RefineBoundaries,
		SmoothOvershoot:     t.SmoothOvershoot,
		QuietThresholdDB:    t.QuietThresholdDB,
	}, nil
}

func (cfg Config) SilenceParams() silence.Params {
	return silence.Params{
		ThresholdDB: cfg.Silence.ThresholdDB,
		MinDuration: cfg.Silence.MinDuration.Duration(),
		MergeGap:    cfg.Silence.MergeGap.Duration(),
		Window:      cfg.Silence.Window.Duration(),
	}
}

func (cfg Config) SegmenterOptions(detector silence.Detector) segmenter.Options {
	s := cfg.Segmenter
	return segmenter.Options{
		Window:        s.Window.Duration(),
		Step:          s.Step.Duration(),
		Detector:      detector,
		SilenceParams: cfg.SilenceParams(),
		MinSilence:    s.MinSilence.Duration(),
		MaxProbe:      s.MaxProbe.Duration(),
		Count:         s.Count,
		TopMinSilence: s.TopMinSilence.Duration(),
	}
}

// NewCorrelator returns the correlator selected by correlator.kind.
func (cfg Config) NewCorrelator() correlator.Correlator {
	if cfg.Correlator.Kind == CorrelatorKindGCCPHAT {
		c := gccphat.New(cfg.Analysis.SampleRate)
		c.MinFreq = cfg.Correlator.MinFreq
		c.MaxFreq = cfg.Correlator.MaxFreq
		return c
	}
	return fft.New()
}
