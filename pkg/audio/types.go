package audio

import (
	"github.com/xaionaro-go/driftsync/pkg/audio/types"
)

type SampleRate = types.SampleRate
type Channel = types.Channel
type PCMFormat = types.PCMFormat

const (
	PCMFormatUndefined = types.PCMFormatUndefined
	PCMFormatU8        = types.PCMFormatU8
	PCMFormatS16LE     = types.PCMFormatS16LE
	PCMFormatS24LE     = types.PCMFormatS24LE
	PCMFormatS32LE     = types.PCMFormatS32LE
)

func PCMFormatFromBitDepth(bits int) PCMFormat {
	return types.PCMFormatFromBitDepth(bits)
}
