package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/driftsync/pkg/correlator/implementations/fft"
	"github.com/xaionaro-go/driftsync/pkg/correlator/implementations/gccphat"
	"github.com/xaionaro-go/driftsync/pkg/drifttracker"
	"github.com/xaionaro-go/driftsync/pkg/segmenter"
	"github.com/xaionaro-go/driftsync/pkg/silence"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	trackerCfg, err := cfg.TrackerConfig()
	require.NoError(t, err)
	assert.Equal(t, drifttracker.DefaultConfig(), trackerCfg)
	assert.Equal(t, silence.DefaultParams(), cfg.SilenceParams())

	opts := cfg.SegmenterOptions(nil)
	assert.Equal(t, segmenter.DefaultOptions(), opts)

	assert.IsType(t, &fft.Correlator{}, cfg.NewCorrelator())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(dir, "missing.toml"), true)
		require.NoError(t, err)
		assert.Equal(t, Default(), *cfg)

		_, err = Load(filepath.Join(dir, "missing.toml"), false)
		assert.Error(t, err)
	})

	t.Run("partial", func(t *testing.T) {
		path := filepath.Join(dir, "partial.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[correlator]
kind = "gccphat"
min_freq = 200.0
max_freq = 3000.0

[tracker]
mode = "median"
search_margin = 2.5
initial_probes = 0
`), 0o644))

		cfg, err := Load(path, false)
		require.NoError(t, err)
		assert.Equal(t, "median", cfg.Tracker.Mode)
		assert.Equal(t, Default().Tracker.JumpThreshold, cfg.Tracker.JumpThreshold)

		trackerCfg, err := cfg.TrackerConfig()
		require.NoError(t, err)
		assert.Equal(t, drifttracker.ModeMedian, trackerCfg.Mode)
		assert.Equal(t, 2500*time.Millisecond, trackerCfg.SearchMargin)
		assert.Zero(t, trackerCfg.InitialProbes)

		corr, ok := cfg.NewCorrelator().(*gccphat.Correlator)
		require.True(t, ok)
		assert.Equal(t, 200.0, corr.MinFreq)
		assert.Equal(t, 3000.0, corr.MaxFreq)
	})

	t.Run("unknown_key", func(t *testing.T) {
		path := filepath.Join(dir, "typo.toml")
		require.NoError(t, os.WriteFile(path, []byte("[tracker]\nserch_margin = 1.0\n"), 0o644))
		_, err := Load(path, false)
		assert.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[correlator]
kind = "magic"

[segmenter]
policy = "random"

[log]
level = "loud"
`), 0o644))
		_, err := Load(path, false)
		require.Error(t, err)
		var mErr *multierror.Error
		require.ErrorAs(t, err, &mErr)
		assert.Len(t, mErr.Errors, 3)
	})
}

func TestConfig_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Tracker.Mode = string(drifttracker.ModeMedian)
	cfg.Segmenter.Policy = string(segmenter.PolicyNameTopSilences)
	cfg.Silence.ThresholdDB = -45.5

	data, err := cfg.Marshal()
	require.NoError(t, err)

	parsed := Default()
	require.NoError(t, Parse(data, &parsed))
	assert.Equal(t, cfg, parsed)
}

func TestLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, logger.LevelDebug, level)
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, Seconds(1.5).Duration())
	assert.Equal(t, Seconds(0.05), SecondsOf(50*time.Millisecond))
}
