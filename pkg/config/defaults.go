package config

import (
	"github.com/xaionaro-go/driftsync/pkg/correlator/implementations/gccphat"
	"github.com/xaionaro-go/driftsync/pkg/drifttracker"
	"github.com/xaionaro-go/driftsync/pkg/mediaio/implementations/ffmpeg"
	"github.com/xaionaro-go/driftsync/pkg/segmenter"
	"github.com/xaionaro-go/driftsync/pkg/silence"
)

const (
	DefaultAnalysisSampleRate = 8000
	DefaultLogLevel           = "info"

	CorrelatorKindFFT     = "fft"
	CorrelatorKindGCCPHAT = "gccphat"
)

func Default() Config {
	tracker := drifttracker.DefaultConfig()
	silenceParams := silence.DefaultParams()
	segmenterOpts := segmenter.DefaultOptions()
	return Config{
		Analysis: Analysis{
			SampleRate: DefaultAnalysisSampleRate,
		},
		Correlator: Correlator{
			Kind:    CorrelatorKindFFT,
			MinFreq: gccphat.DefaultMinFreq,
			MaxFreq: gccphat.DefaultMaxFreq,
		},
		Silence: Silence{
			ThresholdDB: silenceParams.ThresholdDB,
			MinDuration: SecondsOf(silenceParams.MinDuration),
			MergeGap:    SecondsOf(silenceParams.MergeGap),
			Window:      SecondsOf(silenceParams.Window),
		},
		Segmenter: Segmenter{
			Policy:        string(segmenter.PolicyNameFixedStride),
			Window:        SecondsOf(segmenterOpts.Window),
			Step:          SecondsOf(segmenterOpts.Step),
			MinSilence:    SecondsOf(segmenterOpts.MinSilence),
			MaxProbe:      SecondsOf(segmenterOpts.MaxProbe),
			Count:         segmenterOpts.Count,
			TopMinSilence: SecondsOf(segmenterOpts.TopMinSilence),
		},
		Tracker: Tracker{
			Mode:                string(tracker.Mode),
			SearchMargin:        SecondsOf(tracker.SearchMargin),
			JumpThreshold:       SecondsOf(tracker.JumpThreshold),
			ChangeThreshold:     SecondsOf(tracker.ChangeThreshold),
			AcceptQuality:       tracker.AcceptQuality,
			VerifyQuality:       tracker.VerifyQuality,
			MinProbe:            SecondsOf(tracker.MinProbe),
			MaxHuntAttempts:     tracker.MaxHuntAttempts,
			ResumeDistance:      SecondsOf(tracker.ResumeDistance),
			InitialSearchMargin: SecondsOf(tracker.InitialSearchMargin),
			InitialProbes:       tracker.InitialProbes,
			Workers:             tracker.Workers,
			MedianWindow:        tracker.MedianWindow,
			LookAhead:           tracker.LookAhead,
			RefineBoundaries:    tracker.RefineBoundaries,
			SmoothOvershoot:     tracker.SmoothOvershoot,
			QuietThresholdDB:    tracker.QuietThresholdDB,
			CutInSilence:        true,
		},
		Reconstruct: Reconstruct{
			PadToReference: true,
		},
		Media: Media{
			FFmpegPath:  ffmpeg.DefaultFFmpegPath,
			FFprobePath: ffmpeg.DefaultFFprobePath,
		},
		Log: Log{
			Level: DefaultLogLevel,
		},
	}
}
