package drifttracker

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/driftsync/pkg/segmenter"
)

type verdict int

const (
	verdictUndefined = verdict(iota)

	// verdictVerified means a later probe agrees with the candidate delay.
	verdictVerified

	// verdictTransient means a later probe confidently disagrees with
	// the candidate delay, so the jump was a glitch.
	verdictTransient

	// verdictExhausted means no probe within the hunt budget was conclusive.
	verdictExhausted

	// verdictNoProbes means there was nothing left to verify with.
	verdictNoProbes
)

func (v verdict) String() string {
	switch v {
	case verdictVerified:
		return "verified"
	case verdictTransient:
		return "transient"
	case verdictExhausted:
		return "exhausted"
	case verdictNoProbes:
		return "no_probes"
	default:
		return "undefined"
	}
}

type jump struct {
	// base is the delay before the jump.
	base   int
	change int
}

// incrementalState is the state of the verification state machine.
type incrementalState struct {
	delay int

	// lastConfirmed is the source position of the last probe that
	// confirmed the current delay.
	lastConfirmed int
	confirmed     bool

	lastJump *jump

	// smoothed means the current delay is an average of two jumps, so
	// small corrections confirm it without replacing it.
	smoothed bool

	segments *segmentBuilder
}

func (r *run) incremental(
	ctx context.Context,
	initialDelay int,
) ([]Segment, error) {
	st := &incrementalState{
		delay:    initialDelay,
		segments: newSegmentBuilder(len(r.source)),
	}

	first := 0
	if at, head, ok := r.leadIn(ctx, initialDelay); ok && st.segments.cut(at, head) {
		logger.Debugf(ctx, "lead-in cut at %.3fs: %d -> %d", r.rate.Seconds(at), head, initialDelay)
		st.lastConfirmed = at
		st.confirmed = true
		first = r.probeAfter(-1, at)
	}

	for idx := first; idx < len(r.probes); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.probes[idx]
		m := r.measure(p, st.delay, r.limits.searchMargin)
		if !m.acceptable(r.Config.AcceptQuality) {
			logger.Tracef(ctx, "skipping the probe at %d: %#+v", p.ProbeStart, m)
			idx++
			continue
		}

		if abs(m.delay-st.delay) < r.limits.jumpThreshold {
			if !st.smoothed {
				st.delay = m.delay
			}
			st.lastConfirmed = p.ProbeStart
			st.confirmed = true
			idx++
			continue
		}

		logger.Debugf(ctx, "candidate jump at %.2fs: %d -> %d (quality %.3f)", r.rate.Seconds(p.ProbeStart), st.delay, m.delay, m.quality)
		v, verifiedAt := r.hunt(ctx, idx+1, m.delay)
		switch v {
		case verdictVerified:
			r.acceptJump(ctx, st, p, m.delay)
			st.lastConfirmed = r.probes[verifiedAt].ProbeStart
			idx = verifiedAt + 1
		case verdictTransient:
			logger.Debugf(ctx, "the jump at %.2fs is a transient, keeping delay %d", r.rate.Seconds(p.ProbeStart), st.delay)
			idx = verifiedAt
		case verdictExhausted:
			logger.Warnf(ctx, "unable to verify the jump at %.2fs (%d -> %d) within %d attempts, accepting it as is",
				r.rate.Seconds(p.ProbeStart), st.delay, m.delay, r.Config.MaxHuntAttempts)
			r.acceptJump(ctx, st, p, m.delay)
			idx = r.probeAfter(idx, p.ProbeStart+r.limits.resumeDistance)
		case verdictNoProbes:
			logger.Debugf(ctx, "no probes left to verify the jump at %.2fs, ignoring it", r.rate.Seconds(p.ProbeStart))
			idx = len(r.probes)
		default:
			panic("unexpected verdict")
		}
	}

	return st.segments.finish(st.delay), nil
}

// hunt re-probes starting from probe index "from" using the candidate delay
// until a probe is conclusive or the attempt budget is spent. It returns
// the verdict and the index of the conclusive probe.
func (r *run) hunt(
	ctx context.Context,
	from int,
	candidate int,
) (verdict, int) {
	attempts := 0
	for idx := from; idx < len(r.probes) && attempts < r.Config.MaxHuntAttempts; idx++ {
		attempts++
		m := r.measure(r.probes[idx], candidate, r.limits.searchMargin)
		if !m.acceptable(r.Config.VerifyQuality) {
			continue
		}
		if abs(m.delay-candidate) < r.limits.jumpThreshold {
			return verdictVerified, idx
		}
		logger.Tracef(ctx, "the re-probe at %d disagrees with %d: %#+v", r.probes[idx].ProbeStart, candidate, m)
		return verdictTransient, idx
	}
	if attempts == 0 {
		return verdictNoProbes, -1
	}
	return verdictExhausted, -1
}

// acceptJump switches the state to the candidate delay, cutting a new
// segment if anything was already confirmed with the old delay.
func (r *run) acceptJump(
	ctx context.Context,
	st *incrementalState,
	p segmenter.Region,
	candidate int,
) {
	change := candidate - st.delay
	newDelay := candidate
	smoothed := false
	if r.Config.SmoothOvershoot && st.lastJump != nil &&
		(st.lastJump.change > 0) != (change > 0) &&
		abs(st.lastJump.change) > r.limits.jumpThreshold &&
		abs(change) > r.limits.jumpThreshold {
		newDelay = st.lastJump.base + (st.lastJump.change+change)/2
		smoothed = true
		logger.Debugf(ctx, "overshoot: averaging %d and %d, delay %d instead of %d", st.lastJump.change, change, newDelay, candidate)
	}

	if !st.confirmed {
		at, ok := r.splitPrefix(st.segments.start, p.ProbeEnd(), st.delay, newDelay)
		if ok && st.segments.cut(at, st.delay) {
			logger.Debugf(ctx, "delay %d holds until %.3fs, cut: %d -> %d", st.delay, r.rate.Seconds(at), st.delay, newDelay)
		} else {
			logger.Debugf(ctx, "nothing was confirmed with delay %d yet, re-basing to %d", st.delay, newDelay)
		}
	} else {
		at := r.chooseCut(st.lastConfirmed, p.ProbeEnd(), p.ProbeStart, st.delay, newDelay)
		if st.segments.cut(at, st.delay) {
			logger.Debugf(ctx, "cut at %.3fs: %d -> %d", r.rate.Seconds(at), st.delay, newDelay)
		}
		st.lastJump = &jump{
			base:   st.delay,
			change: newDelay - st.delay,
		}
	}
	st.delay = newDelay
	st.smoothed = smoothed
	st.lastConfirmed = p.ProbeStart
	st.confirmed = true
}

// probeAfter returns the index of the first probe after idx that starts
// at pos or later.
func (r *run) probeAfter(idx int, pos int) int {
	for next := idx + 1; next < len(r.probes); next++ {
		if r.probes[next].ProbeStart >= pos {
			return next
		}
	}
	return len(r.probes)
}
