package engine

import (
	"sort"
	"time"

	"github.com/lazypower/mindline/internal/state"
)

// BoundaryPolicy decides whether events sitting exactly on the anchor
// or query timestamp fall inside the computation window.
type BoundaryPolicy string

const (
	// BoundaryHalfOpen admits events in (lo, hi]: an event exactly at
	// the earlier endpoint is excluded, exactly at the later endpoint
	// included. Forward that excludes the anchor instant (its effect is
	// presumed baked into the anchor snapshot); backward it excludes
	// the query instant.
	BoundaryHalfOpen BoundaryPolicy = "half_open"
	// BoundaryInclusive admits events on both endpoints.
	BoundaryInclusive BoundaryPolicy = "inclusive"
)

// ParseBoundary maps a configuration string onto a policy.
func ParseBoundary(s string) (BoundaryPolicy, bool) {
	switch BoundaryPolicy(s) {
	case BoundaryHalfOpen, BoundaryInclusive:
		return BoundaryPolicy(s), true
	case "":
		return BoundaryHalfOpen, true
	default:
		return "", false
	}
}

// window selects the events between the anchor and the query under the
// boundary policy and returns them chronologically, ties on equal
// timestamps broken by event ID so results never depend on insertion
// order. The projector walks the slice forward, the regressor walks it
// in reverse.
func window(events []state.EventEffect, anchor, target time.Time, policy BoundaryPolicy) []state.EventEffect {
	lo, hi := anchor, target
	if hi.Before(lo) {
		lo, hi = hi, lo
	}

	var out []state.EventEffect
	for _, evt := range events {
		if !inWindow(evt.At, lo, hi, policy) {
			continue
		}
		out = append(out, evt)
	}

	sortChronological(out)
	return out
}

// inWindow applies the boundary rule to one timestamp. The half-open
// window (lo, hi] covers both directions: forward it excludes the
// anchor end, backward it excludes the query end.
func inWindow(ts, lo, hi time.Time, policy BoundaryPolicy) bool {
	if ts.Before(lo) || ts.After(hi) {
		return false
	}
	if policy == BoundaryInclusive {
		return true
	}
	return ts.After(lo)
}

func sortChronological(events []state.EventEffect) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].At.Equal(events[j].At) {
			return events[i].At.Before(events[j].At)
		}
		return events[i].ID < events[j].ID
	})
}
