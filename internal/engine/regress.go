package engine

import (
	"time"

	"github.com/lazypower/mindline/internal/state"
)

// boundEpsilon is the slack used to detect that a value sits on a bound
// where the forward walk may have clamped it.
const boundEpsilon = 1e-9

// regress steps the walker backward from the anchor through each
// in-window event to the target, running the exact inverse of project
// in reverse checkpoint order: un-crystallize at the checkpoint,
// subtract the event's deltas, then invert the interval's decay or
// growth. Bound hits never error; they flag the result approximate.
func (e *Engine) regress(w *walker, events []state.EventEffect, target time.Time) {
	cursor := w.snap.At
	// The forward walk crystallizes at its terminal checkpoint unless an
	// event already sits there; mirror that here.
	if len(events) == 0 || !events[len(events)-1].At.Equal(cursor) {
		w.uncrystallize(cursor)
	}
	for i := len(events) - 1; i >= 0; i-- {
		evt := &events[i]
		w.retreat(evt.At, cursor)
		w.uncrystallize(evt.At)
		w.unapplyEffect(evt)
		cursor = evt.At
	}
	w.retreat(target, cursor)
	// The first forward interval's exposure lands after the last
	// un-check above; sweep once so a firing it could have funded is
	// still flagged.
	for _, id := range w.active {
		if spec := w.specs[id]; spec.Crystallize.Enabled && spec.Crystallize.Threshold > 0 {
			w.flagPossibleFiring(id, spec)
		}
	}
}

// retreat inverts advance across one interval: inverse decay on both
// channels, growth subtracted, the recovered interval-start delta
// banked as exposure. A value sitting at the growth ceiling may have
// been clamped on the way forward, so its recovery is only approximate.
func (w *walker) retreat(from, to time.Time) {
	if !to.After(from) {
		return
	}
	elapsed := state.ScaleElapsed(to.Sub(from), w.timeScale)

	for _, id := range w.active {
		spec := w.specs[id]
		v := w.snap.Values[id]

		switch spec.Law {
		case state.LawDecay:
			factor, exact := state.InverseDecayFactor(elapsed, spec.HalfLife)
			if !exact && v.Delta != 0 {
				w.flag("inverse decay overflow on %s", id)
			}
			v.Delta *= factor
		case state.LawGrowth:
			if v.Base+v.Delta+v.ChronicDelta >= spec.Max-boundEpsilon {
				w.flag("growth ceiling on %s", id)
			}
			v.Delta -= state.GrowthAmount(spec.GrowthRate, elapsed)
		}
		if spec.Chronic && v.ChronicDelta != 0 {
			factor, exact := state.InverseDecayFactor(elapsed, spec.HalfLife*state.ChronicHalfLifeMultiplier)
			if !exact {
				w.flag("inverse chronic decay overflow on %s", id)
			}
			v.ChronicDelta *= factor
		}

		w.addExposure(id, v.Delta, elapsed)
		w.addExposureUpper(id, v.Delta, elapsed, to)
		w.snap.Values[id] = v
	}
}

// unapplyEffect subtracts the event's transient deltas. Monotonic
// dimensions accumulate one way only: their deltas stay, and the result
// is flagged rather than silently wrong.
func (w *walker) unapplyEffect(evt *state.EventEffect) {
	for id, d := range evt.Deltas {
		v, ok := w.snap.Values[id]
		if !ok {
			continue
		}
		if w.specs[id].Monotonic {
			if d != 0 {
				w.flag("monotonic %s not reversed", id)
			}
			continue
		}
		v.Delta -= d
		w.snap.Values[id] = v
	}
	for id, d := range evt.ChronicDeltas {
		v, ok := w.snap.Values[id]
		if !ok {
			continue
		}
		if w.specs[id].Monotonic {
			if d != 0 {
				w.flag("monotonic %s not reversed", id)
			}
			continue
		}
		v.ChronicDelta -= d
		w.snap.Values[id] = v
	}
}
