package config

import (
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/driftsync/pkg/segmenter"
)

// Validate returns all the problems of the configuration at once.
func (cfg Config) Validate() error {
	var mErr *multierror.Error
	if cfg.Analysis.SampleRate == 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("analysis.sample_rate must be positive"))
	}

	switch cfg.Correlator.Kind {
	case CorrelatorKindFFT:
	case CorrelatorKindGCCPHAT:
		if cfg.Correlator.MinFreq < 0 || (cfg.Correlator.MaxFreq > 0 && cfg.Correlator.MaxFreq <= cfg.Correlator.MinFreq) {
			mErr = multierror.Append(mErr, fmt.Errorf("correlator frequency band [%v, %v] is invalid", cfg.Correlator.MinFreq, cfg.Correlator.MaxFreq))
		}
	default:
		mErr = multierror.Append(mErr, fmt.Errorf("unknown correlator.kind '%s', expected '%s' or '%s'", cfg.Correlator.Kind, CorrelatorKindFFT, CorrelatorKindGCCPHAT))
	}

	if cfg.Silence.Window <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("silence.window must be positive: %v", cfg.Silence.Window))
	}
	if cfg.Silence.MinDuration < 0 || cfg.Silence.MergeGap < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("silence durations must not be negative"))
	}

	if _, err := segmenter.ParsePolicyName(cfg.Segmenter.Policy); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if cfg.Segmenter.Window <= 0 || cfg.Segmenter.Step <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("segmenter.window and segmenter.step must be positive: %v, %v", cfg.Segmenter.Window, cfg.Segmenter.Step))
	}
	if cfg.Segmenter.Count < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("segmenter.count must not be negative: %d", cfg.Segmenter.Count))
	}

	if trackerCfg, err := cfg.TrackerConfig(); err != nil {
		mErr = multierror.Append(mErr, err)
	} else if err := trackerCfg.Validate(); err != nil {
		mErr = multierror.Append(mErr, err)
	}

	if _, err := cfg.LogLevel(); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	return mErr.ErrorOrNil()
}

func (cfg Config) LogLevel() (logger.Level, error) {
	var level logger.Level
	if err := level.Set(cfg.Log.Level); err != nil {
		return logger.LevelUndefined, fmt.Errorf("invalid log.level '%s': %w", cfg.Log.Level, err)
	}
	return level, nil
}
