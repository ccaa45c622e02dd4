// Package oggvorbis is a pure-Go mediaio backend decoding Ogg Vorbis files.
// Encoding is not supported; the registry falls back to ffmpeg for that.
package oggvorbis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jfreymuth/oggvorbis"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/audio/resampler"
	"github.com/xaionaro-go/driftsync/pkg/mediaio"
)

const (
	Priority = 90

	readChunk = 4096
)

func init() {
	mediaio.RegisterBackend(Priority, Backend{})
}

type Backend struct{}

var _ mediaio.Backend = Backend{}

func (Backend) String() string {
	return "oggvorbis"
}

func (Backend) CanDecode(path string) bool {
	ext := mediaio.Ext(path)
	return ext == "ogg" || ext == "oga"
}

func (Backend) CanEncode(path string) bool {
	return false
}

func open(path string) (*os.File, *oggvorbis.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	r, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("unable to initialize a vorbis reader for '%s': %w", path, err)
	}
	return f, r, nil
}

func (Backend) Probe(
	ctx context.Context,
	path string,
) (mediaio.Info, error) {
	f, r, err := open(path)
	if err != nil {
		return mediaio.Info{}, err
	}
	defer f.Close()

	sampleRate := audio.SampleRate(r.SampleRate())
	return mediaio.Info{
		SampleRate: sampleRate,
		Channels:   audio.Channel(r.Channels()),
		Duration:   sampleRate.Duration(int(r.Length())),
	}, nil
}

func (Backend) Decode(
	ctx context.Context,
	path string,
	opts mediaio.DecodeOptions,
) (*audio.PCM, error) {
	f, r, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	channels := r.Channels()
	pcm := &audio.PCM{
		SampleRate: audio.SampleRate(r.SampleRate()),
		Channels:   audio.Channel(channels),
	}
	if length := r.Length(); length > 0 {
		pcm.Samples = make([]int16, 0, int(length)*channels)
	}

	buf := make([]float32, readChunk*channels)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		for _, v := range buf[:n] {
			pcm.Samples = append(pcm.Samples, resampler.Float64ToInt16(float64(v)))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to decode '%s': %w", path, err)
		}
	}
	logger.Debugf(ctx, "decoded '%s': %s", path, pcm)

	if err := mediaio.CheckDecoded(path, pcm); err != nil {
		return nil, err
	}
	return mediaio.Convert(pcm, opts)
}

func (Backend) Encode(
	ctx context.Context,
	path string,
	pcm *audio.PCM,
) error {
	return fmt.Errorf("encoding to Ogg Vorbis: %w", mediaio.ErrUnsupported)
}
