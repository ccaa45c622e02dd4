package resampler

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/xaionaro-go/driftsync/pkg/audio"
)

var ErrUnsupportedFormat = errors.New("unsupported sample format")

// Float64ToInt16 converts a [-1, 1] sample to int16 with saturation.
func Float64ToInt16(v float64) int16 {
	return int16(math.Max(math.MinInt16, math.Min(math.Round(v*32768), math.MaxInt16)))
}

// Int16ToFloat64 converts an int16 sample to the [-1, 1) range.
func Int16ToFloat64(v int16) float64 {
	return float64(v) / 32768
}

// ScaleToInt16 converts integer sample values stored in format f
// (as go-audio returns them) to 16 bits, keeping the most significant bits.
func ScaleToInt16(f audio.PCMFormat, data []int) ([]int16, error) {
	var convert func(int) int16
	switch f {
	case audio.PCMFormatU8:
		convert = func(v int) int16 { return int16((v - 128) << 8) }
	case audio.PCMFormatS16LE:
		convert = func(v int) int16 { return int16(v) }
	case audio.PCMFormatS24LE:
		convert = func(v int) int16 { return int16(v >> 8) }
	case audio.PCMFormatS32LE:
		convert = func(v int) int16 { return int16(v >> 16) }
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	out := make([]int16, len(data))
	for i, v := range data {
		out[i] = convert(v)
	}
	return out, nil
}

// DecodeS16LE decodes a raw s16le byte stream (the channel layout is preserved).
func DecodeS16LE(data []byte) ([]int16, error) {
	size := int(audio.PCMFormatS16LE.Size())
	if len(data)%size != 0 {
		return nil, fmt.Errorf("the amount of bytes (%d) is not a multiple of %d", len(data), size)
	}
	out := make([]int16, len(data)/size)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*size:]))
	}
	return out, nil
}

// EncodeS16LE encodes samples as a raw s16le byte stream.
func EncodeS16LE(samples []int16) []byte {
	size := int(audio.PCMFormatS16LE.Size())
	out := make([]byte, len(samples)*size)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(out[i*size:], uint16(v))
	}
	return out
}
