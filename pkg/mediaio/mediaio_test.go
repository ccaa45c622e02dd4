package mediaio

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/driftsync/pkg/audio"
)

type fakeBackend struct {
	name      string
	exts      []string
	decodeErr error
	encodeErr error
	decoded   int
	encoded   int
}

var _ Backend = (*fakeBackend)(nil)

func (b *fakeBackend) String() string { return b.name }

func (b *fakeBackend) CanDecode(path string) bool {
	for _, ext := range b.exts {
		if ext == "*" || ext == Ext(path) {
			return true
		}
	}
	return false
}

func (b *fakeBackend) CanEncode(path string) bool {
	return b.CanDecode(path)
}

func (b *fakeBackend) Probe(ctx context.Context, path string) (Info, error) {
	if b.decodeErr != nil {
		return Info{}, b.decodeErr
	}
	return Info{SampleRate: 8000, Channels: 1}, nil
}

func (b *fakeBackend) Decode(ctx context.Context, path string, opts DecodeOptions) (*audio.PCM, error) {
	b.decoded++
	if b.decodeErr != nil {
		return nil, b.decodeErr
	}
	return audio.NewPCM(8000, 1, 10), nil
}

func (b *fakeBackend) Encode(ctx context.Context, path string, pcm *audio.PCM) error {
	b.encoded++
	return b.encodeErr
}

func TestAuto(t *testing.T) {
	ctx := context.Background()

	t.Run("fallback", func(t *testing.T) {
		wav := &fakeBackend{name: "wav", exts: []string{"wav"}, decodeErr: fmt.Errorf("broken header: %w", ErrUnsupported)}
		fallback := &fakeBackend{name: "any", exts: []string{"*"}}
		auto := NewAuto(wav, fallback)

		pcm, err := auto.Decode(ctx, "a.WAV", DecodeOptions{})
		require.NoError(t, err)
		assert.Equal(t, 10, pcm.Frames())
		assert.Equal(t, 1, wav.decoded)
		assert.Equal(t, 1, fallback.decoded)

		_, err = auto.Decode(ctx, "a.mp3", DecodeOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, wav.decoded)

		info, err := auto.Probe(ctx, "a.wav")
		require.NoError(t, err)
		assert.Equal(t, audio.SampleRate(8000), info.SampleRate)

		require.NoError(t, auto.Encode(ctx, "out.wav", audio.NewPCM(8000, 1, 1)))
		assert.Equal(t, 1, wav.encoded)
		assert.Equal(t, 0, fallback.encoded)
	})

	t.Run("all_fail", func(t *testing.T) {
		a := &fakeBackend{name: "a", exts: []string{"*"}, decodeErr: fmt.Errorf("'x': %w", ErrNoAudio), encodeErr: errors.New("disk full")}
		b := &fakeBackend{name: "b", exts: []string{"*"}, decodeErr: errors.New("crash"), encodeErr: errors.New("read-only")}
		auto := NewAuto(a, b)

		_, err := auto.Decode(ctx, "x.mkv", DecodeOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoAudio)
		assert.Contains(t, err.Error(), "crash")

		err = auto.Encode(ctx, "x.mkv", audio.NewPCM(8000, 1, 1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Contains(t, err.Error(), "read-only")
	})

	t.Run("unsupported", func(t *testing.T) {
		auto := NewAuto(&fakeBackend{name: "wav", exts: []string{"wav"}})
		_, err := auto.Decode(ctx, "x.flac", DecodeOptions{})
		assert.ErrorIs(t, err, ErrUnsupported)
		_, err = auto.Probe(ctx, "x.flac")
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("cancelled", func(t *testing.T) {
		a := &fakeBackend{name: "a", exts: []string{"*"}, decodeErr: context.Canceled}
		b := &fakeBackend{name: "b", exts: []string{"*"}}
		_, err := NewAuto(a, b).Decode(ctx, "x.mkv", DecodeOptions{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, b.decoded)
	})
}

type registryTestBackendLow struct{ fakeBackend }
type registryTestBackendHigh struct{ fakeBackend }

func TestRegisterBackend(t *testing.T) {
	low := &registryTestBackendLow{fakeBackend{name: "low"}}
	high := &registryTestBackendHigh{fakeBackend{name: "high"}}
	RegisterBackend(-1000, low)
	RegisterBackend(1000, high)

	backends := Backends()
	require.GreaterOrEqual(t, len(backends), 2)
	assert.Equal(t, Backend(high), backends[0])
	assert.Equal(t, Backend(low), backends[len(backends)-1])

	assert.Panics(t, func() {
		RegisterBackend(0, &registryTestBackendLow{})
	})
}

func TestConvert(t *testing.T) {
	pcm := &audio.PCM{Samples: []int16{1000, 3000, 1000, 3000}, SampleRate: 16000, Channels: 2}

	same, err := Convert(pcm, DecodeOptions{})
	require.NoError(t, err)
	assert.Same(t, pcm, same)

	mono, err := Convert(pcm, DecodeOptions{SampleRate: 8000, Channels: 1})
	require.NoError(t, err)
	assert.Equal(t, audio.Channel(1), mono.Channels)
	assert.Equal(t, audio.SampleRate(8000), mono.SampleRate)
	require.Equal(t, 1, mono.Frames())
	assert.InDelta(t, 2000, mono.Samples[0], 1)

	_, err = Convert(&audio.PCM{Samples: make([]int16, 6), SampleRate: 8000, Channels: 3}, DecodeOptions{Channels: 2})
	assert.Error(t, err)
}

func TestCheckDecoded(t *testing.T) {
	assert.ErrorIs(t, CheckDecoded("x", nil), ErrNoAudio)
	assert.ErrorIs(t, CheckDecoded("x", audio.NewPCM(8000, 1, 0)), ErrNoAudio)
	assert.NoError(t, CheckDecoded("x", audio.NewPCM(8000, 1, 1)))
	assert.Equal(t, "mp3", Ext("/a/b.MP3"))
	assert.Equal(t, "", Ext("/a/b"))
}
