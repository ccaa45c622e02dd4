package ffmpeg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/mediaio"
)

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type probeFormat struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-select_streams", "a:0",
		"-of", "json",
		"--", path,
	}
}

// parseProbe extracts the layout of the first audio stream out of
// the JSON output of ffprobe.
func parseProbe(output []byte) (mediaio.Info, error) {
	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return mediaio.Info{}, fmt.Errorf("unable to parse the output of ffprobe: %w", err)
	}

	for _, stream := range result.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		sampleRate, err := strconv.ParseUint(strings.TrimSpace(stream.SampleRate), 10, 32)
		if err != nil {
			return mediaio.Info{}, fmt.Errorf("unable to parse sample rate '%s': %w", stream.SampleRate, err)
		}
		if sampleRate == 0 || stream.Channels <= 0 {
			return mediaio.Info{}, fmt.Errorf("invalid audio stream %d: %d Hz, %d channels", stream.Index, sampleRate, stream.Channels)
		}
		duration := parseSeconds(stream.Duration)
		if duration == 0 {
			duration = parseSeconds(result.Format.Duration)
		}
		return mediaio.Info{
			SampleRate: audio.SampleRate(sampleRate),
			Channels:   audio.Channel(stream.Channels),
			Duration:   duration,
		}, nil
	}
	return mediaio.Info{}, mediaio.ErrNoAudio
}

func parseSeconds(s string) time.Duration {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}
