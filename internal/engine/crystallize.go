package engine

import (
	"math"
	"time"

	"github.com/lazypower/mindline/internal/state"
)

// maxCrystallizeFraction keeps the plasticity-scaled conversion fraction
// strictly below 1 so the inverse 1/(1-f) stays finite.
const maxCrystallizeFraction = 0.95

// addExposure records one interval of sustained-delta exposure, in
// |delta|-days of internal time, for every crystallizing dimension.
// delta is the acute delta that held at the interval start.
func (w *walker) addExposure(id state.DimensionID, delta float64, elapsed time.Duration) {
	spec := w.specs[id]
	if !spec.Crystallize.Enabled || spec.Crystallize.Threshold <= 0 {
		return
	}
	w.exposure[id] += math.Abs(delta) * internalDays(elapsed)
}

// addExposureUpper banks the interval into the regressor's upper bound,
// inflated by 1/(1-fraction) as if a conversion had already deflated
// the recovered delta. The forward walk's true exposure can exceed the
// re-banked amount by at most that factor per firing.
func (w *walker) addExposureUpper(id state.DimensionID, delta float64, elapsed time.Duration, at time.Time) {
	spec := w.specs[id]
	if !spec.Crystallize.Enabled || spec.Crystallize.Threshold <= 0 {
		return
	}
	fraction := w.effectiveFraction(spec, w.humanYearsAt(at))
	w.exposureUpper[id] += math.Abs(delta) * internalDays(elapsed) / (1 - fraction)
}

// crystallize fires the ratchet for every dimension whose accumulated
// exposure has crossed its threshold: a plasticity-scaled fraction of
// the current acute delta becomes permanent base, the threshold is
// spent, and the remainder of the exposure carries forward. At most one
// conversion per dimension per checkpoint.
func (w *walker) crystallize(at time.Time) {
	years := w.humanYearsAt(at)
	for _, id := range w.active {
		spec := w.specs[id]
		if !spec.Crystallize.Enabled || spec.Crystallize.Threshold <= 0 {
			continue
		}
		if w.exposure[id] < spec.Crystallize.Threshold {
			continue
		}
		fraction := w.effectiveFraction(spec, years)
		v := w.snap.Values[id]
		converted := fraction * v.Delta
		v.Base += converted
		v.Delta -= converted
		w.snap.Values[id] = v
		w.exposure[id] -= spec.Crystallize.Threshold
	}
}

// uncrystallize inverts one firing for every dimension whose backward
// exposure has crossed its threshold. The conversion a forward walk
// applied cannot always be located from the later state alone: the
// recovered deltas under-count exposure by exactly the conversions not
// yet un-applied. So alongside the re-banked exposure the regressor
// keeps an inflated upper bound (see retreat), and any dimension whose
// bound reaches the threshold is flagged: a firing was at least
// possible, and the recovered value is bound-consistent rather than
// guaranteed original.
func (w *walker) uncrystallize(at time.Time) {
	years := w.humanYearsAt(at)
	for _, id := range w.active {
		spec := w.specs[id]
		if !spec.Crystallize.Enabled || spec.Crystallize.Threshold <= 0 {
			continue
		}
		w.flagPossibleFiring(id, spec)
		if w.exposure[id] < spec.Crystallize.Threshold {
			continue
		}
		fraction := w.effectiveFraction(spec, years)
		v := w.snap.Values[id]
		recovered := v.Delta / (1 - fraction)
		v.Base -= recovered - v.Delta
		v.Delta = recovered
		w.snap.Values[id] = v
		w.exposure[id] -= spec.Crystallize.Threshold
		w.exposureUpper[id] -= spec.Crystallize.Threshold
		w.flag("crystallization reversed on %s", id)
	}
}

// flagPossibleFiring marks a dimension approximate once its exposure
// upper bound shows the forward walk could have crystallized inside the
// window, whether or not the backward accumulator reproduced it.
func (w *walker) flagPossibleFiring(id state.DimensionID, spec state.DimensionSpec) {
	if w.exposureUpper[id] >= spec.Crystallize.Threshold {
		w.flag("possible crystallization on %s", id)
	}
}

// effectiveFraction is the conversion fraction modulated by life-stage
// plasticity: children crystallize faster, exactly as formative shifts
// are age-modulated.
func (w *walker) effectiveFraction(spec state.DimensionSpec, humanYears float64) float64 {
	f := spec.Crystallize.Fraction * w.pp.AgePlasticity(humanYears)
	return math.Min(f, maxCrystallizeFraction)
}

func internalDays(elapsed time.Duration) float64 {
	return float64(elapsed) / float64(state.Day)
}
