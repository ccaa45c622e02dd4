// Package resampler converts decoded tracks between channel layouts and
// sample rates.
//
// The conversion is intentionally naive: channels are averaged and the
// rate is changed by box-averaging (or repeating) input frames. This is
// good enough to feed a cross-correlator, it is not meant for listening.
package resampler

import (
	"fmt"

	"github.com/xaionaro-go/driftsync/pkg/audio"
)

type Format struct {
	Channels   audio.Channel
	SampleRate audio.SampleRate
}

func (f Format) validate() error {
	if f.Channels == 0 {
		return fmt.Errorf("channels must be greater than 0")
	}
	if f.SampleRate == 0 {
		return fmt.Errorf("sample rate is mandatory")
	}
	return nil
}

// OutputFrames returns how many frames Resample produces from inFrames
// frames when converting between the given rates.
func OutputFrames(inFrames int, inRate, outRate audio.SampleRate) int {
	if inRate == 0 {
		return 0
	}
	return int(int64(inFrames) * int64(outRate) / int64(inRate))
}

// Resample converts interleaved samples from inFormat to outFormat.
//
// Only mono<->N and N->N channel conversions are supported, similar to
// how a downmix/upmix would be done by a naive player.
func Resample(
	in []float64,
	inFormat Format,
	outFormat Format,
) ([]float64, error) {
	if err := inFormat.validate(); err != nil {
		return nil, fmt.Errorf("invalid input format: %w", err)
	}
	if err := outFormat.validate(); err != nil {
		return nil, fmt.Errorf("invalid output format: %w", err)
	}

	inNumAvg := 1
	outNumRepeat := 1
	if inFormat.Channels != outFormat.Channels {
		switch {
		case inFormat.Channels == 1:
			outNumRepeat = int(outFormat.Channels)
		case outFormat.Channels == 1:
			inNumAvg = int(inFormat.Channels)
		default:
			return nil, fmt.Errorf("do not know how to convert %d channels to %d", inFormat.Channels, outFormat.Channels)
		}
	}
	inChannels := int(inFormat.Channels)
	if len(in)%inChannels != 0 {
		return nil, fmt.Errorf("the amount of samples (%d) is not a multiple of %d", len(in), inChannels)
	}
	inFrames := len(in) / inChannels
	outFrames := OutputFrames(inFrames, inFormat.SampleRate, outFormat.SampleRate)

	// planes are processed independently when no channel mixing happens
	planes := inChannels / inNumAvg
	out := make([]float64, outFrames*planes*outNumRepeat)

	inRate := int64(inFormat.SampleRate)
	outRate := int64(outFormat.SampleRate)
	for dstIdx := 0; dstIdx < outFrames; dstIdx++ {
		srcStart := int(int64(dstIdx) * inRate / outRate)
		srcEnd := int(int64(dstIdx+1) * inRate / outRate)
		if srcEnd <= srcStart {
			srcEnd = srcStart + 1
		}
		if srcEnd > inFrames {
			srcEnd = inFrames
		}
		for plane := 0; plane < planes; plane++ {
			var sum float64
			for srcIdx := srcStart; srcIdx < srcEnd; srcIdx++ {
				base := srcIdx*inChannels + plane*inNumAvg
				for ch := 0; ch < inNumAvg; ch++ {
					sum += in[base+ch]
				}
			}
			val := sum / float64((srcEnd-srcStart)*inNumAvg)
			for repeatIdx := 0; repeatIdx < outNumRepeat; repeatIdx++ {
				out[(dstIdx*planes+plane)*outNumRepeat+repeatIdx] = val
			}
		}
	}
	return out, nil
}

// ToAnalysis converts a decoded track into the mono float64 signal
// at the given rate that the correlation stages work on.
func ToAnalysis(
	pcm *audio.PCM,
	rate audio.SampleRate,
) ([]float64, error) {
	if err := pcm.Validate(); err != nil {
		return nil, fmt.Errorf("invalid track: %w", err)
	}
	if rate == 0 {
		rate = pcm.SampleRate
	}
	in := make([]float64, len(pcm.Samples))
	for i, v := range pcm.Samples {
		in[i] = Int16ToFloat64(v)
	}
	return Resample(
		in,
		Format{Channels: pcm.Channels, SampleRate: pcm.SampleRate},
		Format{Channels: 1, SampleRate: rate},
	)
}

// FromFloat64 builds a track out of interleaved [-1, 1] samples.
func FromFloat64(
	samples []float64,
	sampleRate audio.SampleRate,
	channels audio.Channel,
) *audio.PCM {
	out := &audio.PCM{
		Samples:    make([]int16, len(samples)),
		SampleRate: sampleRate,
		Channels:   channels,
	}
	for i, v := range samples {
		out.Samples[i] = Float64ToInt16(v)
	}
	return out
}
