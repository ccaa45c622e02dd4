package drifttracker

import (
	"fmt"
)

// Segment is a range [Start, End) of the source timeline (in analysis-rate
// samples) whose content belongs at reference position + Delay.
type Segment struct {
	Start int
	End   int
	Delay int
}

func (s Segment) Len() int {
	return s.End - s.Start
}

func (s Segment) String() string {
	return fmt.Sprintf("[%d, %d) delay %d", s.Start, s.End, s.Delay)
}

// CheckPartition returns an error if segments do not partition [0, length)
// exactly.
func CheckPartition(segments []Segment, length int) error {
	if length == 0 {
		if len(segments) != 0 {
			return fmt.Errorf("expected no segments for an empty timeline, got %d", len(segments))
		}
		return nil
	}
	if len(segments) == 0 {
		return fmt.Errorf("no segments")
	}
	if segments[0].Start != 0 {
		return fmt.Errorf("the first segment starts at %d instead of 0", segments[0].Start)
	}
	for idx, s := range segments {
		if s.Start >= s.End {
			return fmt.Errorf("segment %d is empty: %s", idx, s)
		}
		if idx > 0 && segments[idx-1].End != s.Start {
			return fmt.Errorf("segment %d (%s) does not continue segment %d (%s)", idx, s, idx-1, segments[idx-1])
		}
	}
	if last := segments[len(segments)-1]; last.End != length {
		return fmt.Errorf("the last segment ends at %d instead of %d", last.End, length)
	}
	return nil
}

// segmentBuilder emits segments through cuts only, so the result is always
// a partition whatever cut positions the tracker comes up with.
type segmentBuilder struct {
	length   int
	start    int
	segments []Segment
}

func newSegmentBuilder(length int) *segmentBuilder {
	return &segmentBuilder{length: length}
}

// cut closes the current segment at the given position with the given delay.
// It returns false (and does nothing) if the position is not strictly inside
// the open segment.
func (b *segmentBuilder) cut(at, delay int) bool {
	if at <= b.start || at >= b.length {
		return false
	}
	b.segments = append(b.segments, Segment{
		Start: b.start,
		End:   at,
		Delay: delay,
	})
	b.start = at
	return true
}

func (b *segmentBuilder) finish(delay int) []Segment {
	if b.length == 0 {
		return nil
	}
	return append(b.segments, Segment{
		Start: b.start,
		End:   b.length,
		Delay: delay,
	})
}
