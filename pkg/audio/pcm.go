package audio

import (
	"fmt"
	"time"
)

// PCM is a fully decoded signed 16-bit track with interleaved channels.
//
// Once handed over to an analysis stage a PCM is treated as immutable.
type PCM struct {
	Samples    []int16
	SampleRate SampleRate
	Channels   Channel
}

// NewPCM allocates a zero-filled (silent) track of the given amount of frames.
func NewPCM(
	sampleRate SampleRate,
	channels Channel,
	frames int,
) *PCM {
	if frames < 0 {
		frames = 0
	}
	return &PCM{
		Samples:    make([]int16, frames*int(channels)),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// Frames returns the amount of samples per channel.
func (p *PCM) Frames() int {
	if p == nil || p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / int(p.Channels)
}

func (p *PCM) Duration() time.Duration {
	if p == nil {
		return 0
	}
	return p.SampleRate.Duration(p.Frames())
}

// Frame returns the samples of all channels at the given frame index.
// The returned slice shares memory with the track.
func (p *PCM) Frame(idx int) []int16 {
	ch := int(p.Channels)
	return p.Samples[idx*ch : (idx+1)*ch]
}

// FrameRange returns the interleaved samples of frames [start, end).
// The returned slice shares memory with the track.
func (p *PCM) FrameRange(start, end int) []int16 {
	ch := int(p.Channels)
	return p.Samples[start*ch : end*ch]
}

func (p *PCM) Validate() error {
	if p == nil {
		return fmt.Errorf("the track is nil")
	}
	if p.SampleRate == 0 {
		return fmt.Errorf("sample rate is mandatory")
	}
	if p.Channels == 0 {
		return fmt.Errorf("channels must be greater than 0: got %d", p.Channels)
	}
	if len(p.Samples)%int(p.Channels) != 0 {
		return fmt.Errorf("the amount of samples (%d) is not a multiple of the amount of channels (%d)", len(p.Samples), p.Channels)
	}
	return nil
}

func (p *PCM) String() string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("PCM{%dHz, %dch, %d frames, %v}", p.SampleRate, p.Channels, p.Frames(), p.Duration())
}
