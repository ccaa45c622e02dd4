package types

import (
	"time"
)

type SampleRate uint32

// Samples returns how many samples (per channel) cover the given duration.
func (r SampleRate) Samples(d time.Duration) int {
	return int(int64(d) * int64(r) / int64(time.Second))
}

// Duration returns how long the given amount of samples (per channel) lasts.
func (r SampleRate) Duration(samples int) time.Duration {
	if r == 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(r) * float64(time.Second))
}

// Seconds is Duration in float seconds, which is what reports use.
func (r SampleRate) Seconds(samples int) float64 {
	if r == 0 {
		return 0
	}
	return float64(samples) / float64(r)
}

type Channel uint32
