package engine

import (
	"time"

	"github.com/lazypower/mindline/internal/state"
)

// project steps the walker forward from the anchor through each
// in-window event to the target. Each checkpoint transition, in order:
// decay or grow the deltas across the interval, apply the event's
// deltas at the right endpoint, then run the crystallization step.
// Effective values are clamped only at read, never in storage, which is
// what keeps every transition invertible.
func (e *Engine) project(w *walker, events []state.EventEffect, target time.Time) {
	cursor := w.snap.At
	for i := range events {
		evt := &events[i]
		w.advance(cursor, evt.At)
		w.applyEffect(evt)
		w.crystallize(evt.At)
		cursor = evt.At
	}
	// An event exactly at the target is already the terminal checkpoint.
	if cursor.Before(target) {
		w.advance(cursor, target)
		w.crystallize(target)
	}
}

// advance evolves every dimension's deltas across one interval. Acute
// deltas decay by half-life or grow by the needs law; chronic deltas
// decay on their slower channel. Exposure is banked from the delta that
// held at the interval start, before it decays.
func (w *walker) advance(from, to time.Time) {
	if !to.After(from) {
		return
	}
	elapsed := state.ScaleElapsed(to.Sub(from), w.timeScale)

	for _, id := range w.active {
		spec := w.specs[id]
		v := w.snap.Values[id]

		w.addExposure(id, v.Delta, elapsed)

		switch spec.Law {
		case state.LawDecay:
			v.Delta *= state.DecayFactor(elapsed, spec.HalfLife)
		case state.LawGrowth:
			v.Delta += state.GrowthAmount(spec.GrowthRate, elapsed)
			// Growth saturates at the ceiling; decay never needs this
			// because it only shrinks deltas.
			if over := v.Base + v.Delta + v.ChronicDelta - spec.Max; over > 0 {
				v.Delta -= over
			}
		}
		if spec.Chronic && v.ChronicDelta != 0 {
			v.ChronicDelta *= state.DecayFactor(elapsed, spec.HalfLife*state.ChronicHalfLifeMultiplier)
		}

		w.snap.Values[id] = v
	}
}

// applyEffect adds the event's transient deltas. Dimensions are
// independent here, so map order cannot influence the numbers. Base
// shifts are not applied by the walk; they travel through the shift
// trajectory instead.
func (w *walker) applyEffect(evt *state.EventEffect) {
	for id, d := range evt.Deltas {
		if v, ok := w.snap.Values[id]; ok {
			v.Delta += d
			w.snap.Values[id] = v
		}
	}
	for id, d := range evt.ChronicDeltas {
		if v, ok := w.snap.Values[id]; ok {
			v.ChronicDelta += d
			w.snap.Values[id] = v
		}
	}
}
