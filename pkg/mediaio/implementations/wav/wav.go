// Package wav is a pure-Go mediaio backend for RIFF/WAVE files.
package wav

import (
	"context"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/audio/resampler"
	"github.com/xaionaro-go/driftsync/pkg/mediaio"
)

const (
	Priority = 100

	bitDepth = 16

	// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
	wavFormatPCM = 1
)

func init() {
	mediaio.RegisterBackend(Priority, Backend{})
}

type Backend struct{}

var _ mediaio.Backend = Backend{}

func (Backend) String() string {
	return "wav"
}

func (Backend) CanDecode(path string) bool {
	ext := mediaio.Ext(path)
	return ext == "wav" || ext == "wave"
}

func (b Backend) CanEncode(path string) bool {
	return b.CanDecode(path)
}

func openDecoder(path string) (*os.File, *wav.Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		f.Close()
		return nil, nil, fmt.Errorf("'%s' is not a valid WAV file: %w", path, mediaio.ErrUnsupported)
	}
	return f, dec, nil
}

func (Backend) Probe(
	ctx context.Context,
	path string,
) (mediaio.Info, error) {
	f, dec, err := openDecoder(path)
	if err != nil {
		return mediaio.Info{}, err
	}
	defer f.Close()

	duration, err := dec.Duration()
	if err != nil {
		return mediaio.Info{}, fmt.Errorf("unable to get the duration of '%s': %w", path, err)
	}
	return mediaio.Info{
		SampleRate: audio.SampleRate(dec.SampleRate),
		Channels:   audio.Channel(dec.NumChans),
		Duration:   duration,
	}, nil
}

func (Backend) Decode(
	ctx context.Context,
	path string,
	opts mediaio.DecodeOptions,
) (*audio.PCM, error) {
	f, dec, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("unable to read the samples of '%s': %w", path, err)
	}
	logger.Debugf(ctx, "'%s': %d samples, %d bits, %dHz, %dch", path, len(buf.Data), dec.BitDepth, dec.SampleRate, dec.NumChans)

	samples, err := resampler.ScaleToInt16(audio.PCMFormatFromBitDepth(int(dec.BitDepth)), buf.Data)
	if err != nil {
		return nil, fmt.Errorf("'%s' (%d bits): %w: %w", path, dec.BitDepth, mediaio.ErrUnsupported, err)
	}
	channels := audio.Channel(dec.NumChans)
	if channels == 0 {
		return nil, fmt.Errorf("'%s' has no channels: %w", path, mediaio.ErrNoAudio)
	}
	pcm := &audio.PCM{
		Samples:    samples[:len(samples)-len(samples)%int(channels)],
		SampleRate: audio.SampleRate(dec.SampleRate),
		Channels:   channels,
	}
	if err := mediaio.CheckDecoded(path, pcm); err != nil {
		return nil, err
	}
	return mediaio.Convert(pcm, opts)
}

func (Backend) Encode(
	ctx context.Context,
	path string,
	pcm *audio.PCM,
) (_err error) {
	if err := pcm.Validate(); err != nil {
		return fmt.Errorf("invalid track: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && _err == nil {
			_err = fmt.Errorf("unable to close '%s': %w", path, err)
		}
	}()

	enc := wav.NewEncoder(f, int(pcm.SampleRate), bitDepth, int(pcm.Channels), wavFormatPCM)
	data := make([]int, len(pcm.Samples))
	for i, v := range pcm.Samples {
		data[i] = int(v)
	}
	err = enc.Write(&goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{SampleRate: int(pcm.SampleRate), NumChannels: int(pcm.Channels)},
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return fmt.Errorf("unable to write the samples to '%s': %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("unable to finalize '%s': %w", path, err)
	}
	logger.Debugf(ctx, "written %s to '%s'", pcm, path)
	return nil
}
