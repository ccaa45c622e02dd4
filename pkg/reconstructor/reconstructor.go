// Package reconstructor stitches the source track into the timeline of the
// reference track according to the segments found by the drift tracker.
package reconstructor

import (
	"context"
	"fmt"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/drifttracker"
)

type Options struct {
	// MinFrames is the minimal length of the output; usually the length
	// of the reference track, so that the output can replace it.
	MinFrames int
}

// Placement describes where a segment ended up in the output, in frames
// at the rate of the source track.
type Placement struct {
	SourceStart int
	SourceEnd   int
	Delay       int

	// CopiedFrom is the first source frame that was copied and
	// Destination is the output frame it went to.
	CopiedFrom  int
	Destination int
	Copied      int

	// Lost is the amount of frames that fell outside the output.
	Lost int
}

func (p Placement) String() string {
	return fmt.Sprintf("[%d, %d)+%d -> %d (copied %d, lost %d)", p.SourceStart, p.SourceEnd, p.Delay, p.Destination, p.Copied, p.Lost)
}

// Reconstruct copies every segment of the source to its position in the
// reference timeline. Segment positions are given at analysisRate and are
// scaled to the rate of the source. Frames not covered by any segment are
// left silent.
func Reconstruct(
	ctx context.Context,
	source *audio.PCM,
	segments []drifttracker.Segment,
	analysisRate audio.SampleRate,
	opts Options,
) (*audio.PCM, []Placement, error) {
	if err := source.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid source track: %w", err)
	}
	if analysisRate == 0 {
		return nil, nil, fmt.Errorf("analysis rate is mandatory")
	}
	if len(segments) == 0 {
		return nil, nil, fmt.Errorf("no segments")
	}

	frames := source.Frames()
	scaled := scale(segments, analysisRate, source.SampleRate, frames)

	outFrames := max(frames+scaled[len(scaled)-1].Delay, opts.MinFrames, 0)
	out := audio.NewPCM(source.SampleRate, source.Channels, outFrames)
	logger.Debugf(ctx, "reconstructing %d segments into %d frames (source: %d frames)", len(segments), outFrames, frames)

	placements := make([]Placement, 0, len(scaled))
	for _, s := range scaled {
		p := place(s, frames, outFrames)
		if p.Copied > 0 {
			copy(
				out.FrameRange(p.Destination, p.Destination+p.Copied),
				source.FrameRange(p.CopiedFrom, p.CopiedFrom+p.Copied),
			)
		}
		if p.Lost > 0 {
			logger.Debugf(ctx, "segment %s: %d frames do not fit the output", p, p.Lost)
		}
		placements = append(placements, p)
	}
	return out, placements, nil
}

// scale converts segments from analysisRate to the rate of the track.
// The first segment is stretched to begin at zero and the last one to end
// at frames, so rounding never drops the edges.
func scale(
	segments []drifttracker.Segment,
	analysisRate audio.SampleRate,
	rate audio.SampleRate,
	frames int,
) []drifttracker.Segment {
	ratio := float64(rate) / float64(analysisRate)
	position := func(v int) int {
		return int(math.Floor(float64(v) * ratio))
	}

	result := make([]drifttracker.Segment, len(segments))
	for idx, s := range segments {
		result[idx] = drifttracker.Segment{
			Start: min(max(position(s.Start), 0), frames),
			End:   min(max(position(s.End), 0), frames),
			Delay: int(math.Round(float64(s.Delay) * ratio)),
		}
	}
	result[0].Start = 0
	result[len(result)-1].End = frames
	return result
}

// place clamps the copy of segment s into an output of outFrames frames.
func place(s drifttracker.Segment, frames, outFrames int) Placement {
	p := Placement{
		SourceStart: s.Start,
		SourceEnd:   s.End,
		Delay:       s.Delay,
	}
	length := s.Len()
	if length <= 0 {
		return p
	}
	srcStart := s.Start
	dst := s.Start + s.Delay
	if dst < 0 {
		// the beginning of the segment belongs before the output start
		srcStart -= dst
		length += dst
		dst = 0
	}
	length = min(length, outFrames-dst, frames-srcStart)
	if length < 0 {
		length = 0
	}
	p.CopiedFrom = srcStart
	p.Destination = dst
	p.Copied = length
	p.Lost = s.Len() - length
	return p
}
