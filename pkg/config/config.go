// Package config contains the TOML configuration of driftsync.
//
// All durations are float seconds, all levels are dBFS.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/xaionaro-go/driftsync/pkg/audio"
)

// Seconds is a duration as it is written in the configuration file.
type Seconds float64

func (s Seconds) Duration() time.Duration {
	return time.Duration(math.Round(float64(s) * float64(time.Second)))
}

func SecondsOf(d time.Duration) Seconds {
	return Seconds(d.Seconds())
}

type Config struct {
	Analysis    Analysis    `toml:"analysis"`
	Correlator  Correlator  `toml:"correlator"`
	Silence     Silence     `toml:"silence"`
	Segmenter   Segmenter   `toml:"segmenter"`
	Tracker     Tracker     `toml:"tracker"`
	Reconstruct Reconstruct `toml:"reconstruct"`
	Media       Media       `toml:"media"`
	Log         Log         `toml:"log"`
}

type Analysis struct {
	// SampleRate is the rate both tracks are downmixed to before
	// the correlation.
	SampleRate audio.SampleRate `toml:"sample_rate"`
}

type Correlator struct {
	// Kind is either "fft" (normalized cross-correlation) or "gccphat".
	Kind    string  `toml:"kind"`
	MinFreq float64 `toml:"min_freq"`
	MaxFreq float64 `toml:"max_freq"`
}

type Silence struct {
	ThresholdDB float64 `toml:"threshold_db"`
	MinDuration Seconds `toml:"min_duration"`
	MergeGap    Seconds `toml:"merge_gap"`
	Window      Seconds `toml:"window"`
}

type Segmenter struct {
	Policy        string  `toml:"policy"`
	Window        Seconds `toml:"window"`
	Step          Seconds `toml:"step"`
	MinSilence    Seconds `toml:"min_silence"`
	MaxProbe      Seconds `toml:"max_probe"`
	Count         int     `toml:"count"`
	TopMinSilence Seconds `toml:"top_min_silence"`
}

type Tracker struct {
	Mode                string  `toml:"mode"`
	SearchMargin        Seconds `toml:"search_margin"`
	JumpThreshold       Seconds `toml:"jump_threshold"`
	ChangeThreshold     Seconds `toml:"change_threshold"`
	AcceptQuality       float64 `toml:"accept_quality"`
	VerifyQuality       float64 `toml:"verify_quality"`
	MinProbe            Seconds `toml:"min_probe"`
	MaxHuntAttempts     int     `toml:"max_hunt_attempts"`
	ResumeDistance      Seconds `toml:"resume_distance"`
	InitialSearchMargin Seconds `toml:"initial_search_margin"`
	InitialProbes       int     `toml:"initial_probes"`
	Workers             int     `toml:"workers"`
	MedianWindow        int     `toml:"median_window"`
	LookAhead           int     `toml:"look_ahead"`
	RefineBoundaries    bool    `toml:"refine_boundaries"`
	SmoothOvershoot     bool    `toml:"smooth_overshoot"`
	QuietThresholdDB    float64 `toml:"quiet_threshold_db"`

	// CutInSilence moves cuts to the middle of the closest silence.
	CutInSilence bool `toml:"cut_in_silence"`
}

type Reconstruct struct {
	// PadToReference makes the output at least as long as the reference.
	PadToReference bool `toml:"pad_to_reference"`
}

type Media struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

type Log struct {
	Level string `toml:"level"`
}

// Load reads the configuration at path on top of Default. A missing file
// is not an error if allowMissing is set.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && allowMissing:
		return &cfg, nil
	default:
		return nil, fmt.Errorf("unable to read the config '%s': %w", path, err)
	}

	if err := Parse(data, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse the config '%s': %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", path, err)
	}
	return &cfg, nil
}

// Parse decodes TOML on top of the values already in cfg. Unknown keys
// are an error, so typos do not silently fall back to defaults.
func Parse(data []byte, cfg *Config) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(cfg)
}

func (cfg Config) Marshal() ([]byte, error) {
	return toml.Marshal(cfg)
}
