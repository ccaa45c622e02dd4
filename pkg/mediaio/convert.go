package mediaio

import (
	"fmt"

	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/audio/resampler"
)

// Convert applies the conversion requested by opts to a natively decoded
// track; it is used by backends that cannot convert on their own.
func Convert(pcm *audio.PCM, opts DecodeOptions) (*audio.PCM, error) {
	if opts.SampleRate == 0 {
		opts.SampleRate = pcm.SampleRate
	}
	if opts.Channels == 0 {
		opts.Channels = pcm.Channels
	}
	if opts.SampleRate == pcm.SampleRate && opts.Channels == pcm.Channels {
		return pcm, nil
	}

	in := make([]float64, len(pcm.Samples))
	for i, v := range pcm.Samples {
		in[i] = resampler.Int16ToFloat64(v)
	}
	out, err := resampler.Resample(
		in,
		resampler.Format{Channels: pcm.Channels, SampleRate: pcm.SampleRate},
		resampler.Format{Channels: opts.Channels, SampleRate: opts.SampleRate},
	)
	if err != nil {
		return nil, fmt.Errorf("unable to convert %s to %dHz %dch: %w", pcm, opts.SampleRate, opts.Channels, err)
	}
	return resampler.FromFloat64(out, opts.SampleRate, opts.Channels), nil
}
