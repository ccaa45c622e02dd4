// Package mediaio decodes audio files into PCM tracks and encodes them back.
//
// The actual work is done by backends (see implementations/) that register
// themselves with a priority; Auto picks the most preferred backend that
// supports the given path.
package mediaio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xaionaro-go/driftsync/pkg/audio"
)

var (
	// ErrNoAudio means the file was decoded but did not contain any samples.
	ErrNoAudio = errors.New("no audio samples")

	// ErrUnsupported means the backend cannot handle the file or the operation.
	ErrUnsupported = errors.New("not supported")
)

// Info is the native layout of the first audio stream of a file.
type Info struct {
	SampleRate audio.SampleRate
	Channels   audio.Channel
	Duration   time.Duration
}

func (i Info) String() string {
	return fmt.Sprintf("%dHz, %dch, %v", i.SampleRate, i.Channels, i.Duration)
}

// DecodeOptions requests a conversion during decoding; zero values mean
// keeping the native value.
type DecodeOptions struct {
	SampleRate audio.SampleRate
	Channels   audio.Channel
}

type Decoder interface {
	Probe(ctx context.Context, path string) (Info, error)
	Decode(ctx context.Context, path string, opts DecodeOptions) (*audio.PCM, error)
}

type Encoder interface {
	Encode(ctx context.Context, path string, pcm *audio.PCM) error
}

// Backend is a Decoder and an Encoder that knows which paths it can handle.
type Backend interface {
	fmt.Stringer
	Decoder
	Encoder
	CanDecode(path string) bool
	CanEncode(path string) bool
}

// Ext returns the lower-cased extension of the path without the dot.
func Ext(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// CheckDecoded returns ErrNoAudio if the decoded track is empty.
func CheckDecoded(path string, pcm *audio.PCM) error {
	if pcm == nil || pcm.Frames() == 0 {
		return fmt.Errorf("'%s': %w", path, ErrNoAudio)
	}
	return nil
}
