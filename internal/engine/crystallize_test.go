package engine

import (
	"math"
	"testing"
	"time"

	"github.com/lazypower/mindline/internal/state"
)

// Depression crystallizes at 7.0 delta-days with fraction 0.1. A full
// +1.0 delta held for 8 days banks 8.0 of exposure, so the terminal
// checkpoint converts a tenth of whatever delta is left after decay
// into permanent base.
func TestCrystallizeFiresAtThreshold(t *testing.T) {
	e := testEngine(t)
	p := testProfile(t, e, "human")
	anchor := defaultAnchor(t, e, p)
	anchor.Values[state.Depression] = state.Value{Base: 0.1, Delta: 1.0}

	r := mustState(t, e, p, anchor, nil, anchorTime.Add(8*state.Day))

	decayed := math.Exp2(-8.0 / 7.0)
	fraction := 0.1 * 1.0 // pack fraction x age plasticity at 24
	got := r.Snapshot.Values[state.Depression]
	if want := 0.1 + fraction*decayed; !approx(got.Base, want) {
		t.Errorf("depression base = %v, want %v", got.Base, want)
	}
	if want := decayed - fraction*decayed; !approx(got.Delta, want) {
		t.Errorf("depression delta = %v, want %v", got.Delta, want)
	}
	// Forward crystallization is defined semantics, not an
	// approximation.
	if r.Quality != Exact {
		t.Errorf("Quality = %v (%v), want %v", r.Quality, r.Reasons, Exact)
	}
}

func TestCrystallizeBelowThreshold(t *testing.T) {
	e := testEngine(t)
	p := testProfile(t, e, "human")
	anchor := defaultAnchor(t, e, p)
	anchor.Values[state.Depression] = state.Value{Base: 0.1, Delta: 1.0}

	// 6.0 of exposure: under the 7.0 threshold, nothing converts.
	r := mustState(t, e, p, anchor, nil, anchorTime.Add(6*state.Day))

	got := r.Snapshot.Values[state.Depression]
	if !approx(got.Base, 0.1) {
		t.Errorf("depression base = %v, want 0.1", got.Base)
	}
	if want := math.Exp2(-6.0 / 7.0); !approx(got.Delta, want) {
		t.Errorf("depression delta = %v, want %v", got.Delta, want)
	}
}

// The conversion fraction scales with age plasticity: an adult at 35
// crystallizes at 0.1 x 0.8 instead of a young adult's 0.1 x 1.0.
func TestCrystallizeFractionScalesWithAge(t *testing.T) {
	e := testEngine(t)
	p := testProfile(t, e, "human")
	p.Birth = time.Date(1989, time.June, 15, 0, 0, 0, 0, time.UTC)
	anchor := defaultAnchor(t, e, p)
	anchor.Values[state.Depression] = state.Value{Base: 0.1, Delta: 1.0}

	r := mustState(t, e, p, anchor, nil, anchorTime.Add(8*state.Day))

	decayed := math.Exp2(-8.0 / 7.0)
	fraction := 0.1 * 0.8
	if got := r.Snapshot.Values[state.Depression].Base; !approx(got, 0.1+fraction*decayed) {
		t.Errorf("depression base = %v, want %v", got, 0.1+fraction*decayed)
	}
}

// Crystallization checks run at every checkpoint, so an unrelated event
// that crosses the threshold mid-window fires there, and the converted
// base survives further decay untouched.
func TestCrystallizeFiresAtEventCheckpoint(t *testing.T) {
	e := testEngine(t)
	p := testProfile(t, e, "human")
	anchor := defaultAnchor(t, e, p)
	anchor.Values[state.Depression] = state.Value{Base: 0.1, Delta: 1.0}

	events := []state.EventEffect{
		{ID: "evt-1", At: anchorTime.Add(8 * state.Day), Deltas: map[state.DimensionID]float64{state.MoodValence: 0.1}},
	}
	r := mustState(t, e, p, anchor, events, anchorTime.Add(9*state.Day))

	decayed := math.Exp2(-8.0 / 7.0)
	fraction := 0.1 * 1.0
	got := r.Snapshot.Values[state.Depression]
	if want := 0.1 + fraction*decayed; !approx(got.Base, want) {
		t.Errorf("depression base = %v, want %v", got.Base, want)
	}
	fired := decayed - fraction*decayed
	if want := fired * math.Exp2(-1.0/7.0); !approx(got.Delta, want) {
		t.Errorf("depression delta = %v, want %v", got.Delta, want)
	}
}

// Walking backward across a window in which the forward walk fired
// cannot recover the original state from the later snapshot alone; the
// result must carry the approximation flag rather than silently guess.
func TestRegressionAfterCrystallizationFlagged(t *testing.T) {
	e := testEngine(t)
	p := testProfile(t, e, "human")
	anchor := defaultAnchor(t, e, p)
	anchor.Values[state.Depression] = state.Value{Base: 0.1, Delta: 1.0}

	fwd := mustState(t, e, p, anchor, nil, anchorTime.Add(8*state.Day))
	back := mustState(t, e, p, fwd.Snapshot, nil, anchorTime)

	if back.Quality != Approximate {
		t.Fatalf("backward Quality = %v, want %v", back.Quality, Approximate)
	}
	if !hasReason(back, "possible crystallization on depression") {
		t.Errorf("reasons = %v, want possible crystallization on depression", back.Reasons)
	}

	// Without a checkpoint to anchor the un-fire, the walk inverts the
	// decay but leaves the conversion in place: bound-consistent, and
	// flagged.
	fv := fwd.Snapshot.Values[state.Depression]
	bv := back.Snapshot.Values[state.Depression]
	if !approx(bv.Base, fv.Base) {
		t.Errorf("depression base = %v, want %v", bv.Base, fv.Base)
	}
	if want := fv.Delta * math.Exp2(8.0/7.0); !approx(bv.Delta, want) {
		t.Errorf("depression delta = %v, want %v", bv.Delta, want)
	}
}

// Below the threshold the exposure bound proves no firing was possible,
// so regression through a live depression delta stays exact.
func TestRegressionQuietCrystallizationExact(t *testing.T) {
	e := testEngine(t)
	p := testProfile(t, e, "human")
	anchor := defaultAnchor(t, e, p)
	anchor.Values[state.Depression] = state.Value{Base: 0.1, Delta: 1.0}

	fwd := mustState(t, e, p, anchor, nil, anchorTime.Add(6*state.Day))
	back := mustState(t, e, p, fwd.Snapshot, nil, anchorTime)

	if back.Quality != Exact {
		t.Fatalf("backward Quality = %v (%v), want %v", back.Quality, back.Reasons, Exact)
	}
	got := back.Snapshot.Values[state.Depression]
	if !approx(got.Base, 0.1) || !approx(got.Delta, 1.0) {
		t.Errorf("depression after round trip = %+v, want {0.1 1.0}", got)
	}
}
