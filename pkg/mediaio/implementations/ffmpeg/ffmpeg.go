// Package ffmpeg is a mediaio backend that runs the ffmpeg and ffprobe
// binaries, so it handles any format these support.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/audio/resampler"
	"github.com/xaionaro-go/driftsync/pkg/mediaio"
)

const (
	// Priority is the lowest of the builtin backends: ffmpeg is the fallback
	// for everything the pure-Go backends do not handle.
	Priority = 10

	DefaultFFmpegPath  = "ffmpeg"
	DefaultFFprobePath = "ffprobe"
)

func init() {
	mediaio.RegisterBackend(Priority, New())
}

type Backend struct {
	FFmpegPath  string
	FFprobePath string
	Executor    CommandExecutor
}

var _ mediaio.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{
		FFmpegPath:  DefaultFFmpegPath,
		FFprobePath: DefaultFFprobePath,
		Executor:    DefaultExecutor,
	}
}

func (b *Backend) String() string {
	return "ffmpeg"
}

func (b *Backend) CanDecode(path string) bool {
	return true
}

func (b *Backend) CanEncode(path string) bool {
	return mediaio.Ext(path) != ""
}

func (b *Backend) executor() CommandExecutor {
	if b.Executor == nil {
		return DefaultExecutor
	}
	return b.Executor
}

func (b *Backend) Probe(
	ctx context.Context,
	path string,
) (mediaio.Info, error) {
	output, err := b.run(ctx, b.FFprobePath, probeArgs(path), nil)
	if err != nil {
		return mediaio.Info{}, fmt.Errorf("ffprobe failed: %w", err)
	}
	info, err := parseProbe(output)
	if err != nil {
		return mediaio.Info{}, fmt.Errorf("'%s': %w", path, err)
	}
	return info, nil
}

func decodeArgs(path string, sampleRate audio.SampleRate, channels audio.Channel) []string {
	return []string{
		"-i", path,
		"-f", audio.PCMFormatS16LE.String(),
		"-acodec", "pcm_" + audio.PCMFormatS16LE.String(),
		"-ar", strconv.FormatUint(uint64(sampleRate), 10),
		"-ac", strconv.FormatUint(uint64(channels), 10),
		"-loglevel", "error",
		"pipe:1",
	}
}

func encodeArgs(path string, sampleRate audio.SampleRate, channels audio.Channel) []string {
	return []string{
		"-f", audio.PCMFormatS16LE.String(),
		"-ar", strconv.FormatUint(uint64(sampleRate), 10),
		"-ac", strconv.FormatUint(uint64(channels), 10),
		"-i", "pipe:0",
		"-loglevel", "error",
		"-y", path,
	}
}

func (b *Backend) Decode(
	ctx context.Context,
	path string,
	opts mediaio.DecodeOptions,
) (*audio.PCM, error) {
	if opts.SampleRate == 0 || opts.Channels == 0 {
		info, err := b.Probe(ctx, path)
		if err != nil {
			return nil, err
		}
		if opts.SampleRate == 0 {
			opts.SampleRate = info.SampleRate
		}
		if opts.Channels == 0 {
			opts.Channels = info.Channels
		}
	}

	output, err := b.run(ctx, b.FFmpegPath, decodeArgs(path, opts.SampleRate, opts.Channels), nil)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg failed to decode '%s': %w", path, err)
	}

	frameSize := int(audio.PCMFormatS16LE.Size()) * int(opts.Channels)
	if tail := len(output) % frameSize; tail != 0 {
		logger.Debugf(ctx, "dropping an incomplete frame (%d bytes) at the end of '%s'", tail, path)
		output = output[:len(output)-tail]
	}
	samples, err := resampler.DecodeS16LE(output)
	if err != nil {
		return nil, err
	}
	pcm := &audio.PCM{
		Samples:    samples,
		SampleRate: opts.SampleRate,
		Channels:   opts.Channels,
	}
	if err := mediaio.CheckDecoded(path, pcm); err != nil {
		return nil, err
	}
	return pcm, nil
}

func (b *Backend) Encode(
	ctx context.Context,
	path string,
	pcm *audio.PCM,
) error {
	if err := pcm.Validate(); err != nil {
		return fmt.Errorf("invalid track: %w", err)
	}
	data := resampler.EncodeS16LE(pcm.Samples)
	if _, err := b.run(ctx, b.FFmpegPath, encodeArgs(path, pcm.SampleRate, pcm.Channels), data); err != nil {
		return fmt.Errorf("ffmpeg failed to encode '%s': %w", path, err)
	}
	return nil
}

// run executes the binary feeding it the given stdin (if any) and returns
// everything it wrote to stdout.
func (b *Backend) run(
	ctx context.Context,
	binary string,
	args []string,
	stdin []byte,
) (_ []byte, _err error) {
	logger.Debugf(ctx, "running %s %s", binary, strings.Join(args, " "))
	cmd := b.executor().Command(ctx, binary, args...)

	var stderr bytes.Buffer
	cmd.SetStderr(&stderr)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("unable to get stdout: %w", err)
	}
	var stdinPipe io.WriteCloser
	if stdin != nil {
		stdinPipe, err = cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("unable to get stdin: %w", err)
		}
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("unable to start %s: %w", binary, err)
	}
	defer func() {
		if err := cmd.Wait(); err != nil && _err == nil {
			_err = fmt.Errorf("%s exited with error: %w: %s", binary, err, strings.TrimSpace(stderr.String()))
		}
	}()

	if stdinPipe != nil {
		wc := datacounter.NewWriterCounter(stdinPipe)
		_, err := wc.Write(stdin)
		closeErr := stdinPipe.Close()
		logger.Tracef(ctx, "written %d bytes to %s", wc.Count(), binary)
		if err != nil {
			return nil, fmt.Errorf("unable to write to %s: %w", binary, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("unable to close the stdin of %s: %w", binary, closeErr)
		}
	}

	rc := datacounter.NewReaderCounter(stdout)
	output, err := io.ReadAll(rc)
	logger.Tracef(ctx, "read %d bytes from %s", rc.Count(), binary)
	if err != nil {
		return nil, fmt.Errorf("unable to read the output of %s: %w", binary, err)
	}
	return output, nil
}
