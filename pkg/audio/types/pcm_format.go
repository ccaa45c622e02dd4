package types

import (
	"fmt"
)

// PCMFormat is the layout of a single integer sample.
type PCMFormat uint

const (
	PCMFormatUndefined = PCMFormat(iota)
	PCMFormatU8
	PCMFormatS16LE
	PCMFormatS24LE
	PCMFormatS32LE
)

// PCMFormatFromBitDepth returns the format little-endian integer samples
// of the given depth are stored in (8-bit samples are unsigned).
func PCMFormatFromBitDepth(bits int) PCMFormat {
	switch bits {
	case 8:
		return PCMFormatU8
	case 16:
		return PCMFormatS16LE
	case 24:
		return PCMFormatS24LE
	case 32:
		return PCMFormatS32LE
	default:
		return PCMFormatUndefined
	}
}

// Size returns the amount of bytes a single sample of a single channel occupies.
func (f PCMFormat) Size() uint32 {
	switch f {
	case PCMFormatU8:
		return 1
	case PCMFormatS16LE:
		return 2
	case PCMFormatS24LE:
		return 3
	case PCMFormatS32LE:
		return 4
	default:
		return 0
	}
}

// String returns the name ffmpeg uses for the raw muxer of the format.
func (f PCMFormat) String() string {
	switch f {
	case PCMFormatUndefined:
		return "undefined"
	case PCMFormatU8:
		return "u8"
	case PCMFormatS16LE:
		return "s16le"
	case PCMFormatS24LE:
		return "s24le"
	case PCMFormatS32LE:
		return "s32le"
	default:
		return fmt.Sprintf("unknown_format_%d", uint(f))
	}
}
