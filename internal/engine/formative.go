package engine

import (
	"math"
	"time"

	"github.com/lazypower/mindline/internal/params"
	"github.com/lazypower/mindline/internal/state"
)

// collectShifts derives base-shift records from chronologically ordered
// events: saturation and the lifetime cap accumulate along real time,
// never along the walk direction. Requests on unknown or non-trait
// dimensions and requests fully absorbed by the modifiers produce no
// record.
func (e *Engine) collectShifts(p Profile, events []state.EventEffect) []state.ShiftRecord {
	var records []state.ShiftRecord
	cumulative := map[bool]map[state.DimensionID]float64{
		true:  make(map[state.DimensionID]float64), // positive direction
		false: make(map[state.DimensionID]float64),
	}

	for _, evt := range events {
		for _, req := range evt.Shifts {
			spec, ok := e.params.Registry.Spec(req.Trait)
			if !ok || !spec.Trait {
				continue
			}
			prior := cumulative[req.Magnitude > 0][req.Trait]
			applied := e.applyModifiers(p, req, spec, evt.At, prior)
			if math.Abs(applied) < 1e-12 {
				continue
			}
			records = append(records, newShiftRecord(req, applied, evt.At, e.params.Shift))
			cumulative[req.Magnitude > 0][req.Trait] += math.Abs(applied)
		}
	}
	return records
}

// applyModifiers runs the raw requested magnitude through the full
// attenuation pipeline: species plasticity, age plasticity, sensitive
// period, trait stability, saturation, then the single-event cap and
// the lifetime cap.
func (e *Engine) applyModifiers(p Profile, req state.ShiftRequest, spec state.DimensionSpec, at time.Time, prior float64) float64 {
	years := p.Species.HumanYears(params.AgeYears(p.Birth, at))

	modified := req.Magnitude *
		p.Species.PlasticityMultiplier() *
		e.params.AgePlasticity(years) *
		e.params.SensitiveMultiplier(req.Trait, years) *
		(1 - spec.Stability) *
		saturation(prior, e.params.Shift.SaturationScale)

	capped := state.Clamp(modified, -e.params.Shift.MaxSingleShift, e.params.Shift.MaxSingleShift)
	return lifetimeCap(capped, prior, e.params.Shift.LifetimeCap)
}

// saturation is the hyperbolic diminishing-returns factor on prior
// same-direction cumulative shift.
func saturation(prior, scale float64) float64 {
	if scale <= 0 {
		return 1
	}
	return 1 / (1 + prior/scale)
}

// lifetimeCap truncates a shift so the cumulative same-direction
// magnitude never exceeds the per-trait ceiling.
func lifetimeCap(shift, prior, cap float64) float64 {
	if cap <= 0 {
		return shift
	}
	if prior+math.Abs(shift) <= cap {
		return shift
	}
	headroom := math.Max(cap-prior, 0)
	if shift < 0 {
		return -headroom
	}
	return headroom
}

// newShiftRecord finalizes an applied shift: severe shifts settle from
// the immediate impact toward a retained fraction over the settling
// window, everything else holds its immediate value forever.
func newShiftRecord(req state.ShiftRequest, applied float64, at time.Time, tuning params.ShiftTuning) state.ShiftRecord {
	record := state.ShiftRecord{
		Trait:     req.Trait,
		At:        at,
		Requested: req.Magnitude,
		Immediate: applied,
		Settled:   applied,
	}
	if math.Abs(applied) > tuning.SevereThreshold {
		record.Settled = applied * tuning.SevereRetention
		record.SettlingDuration = time.Duration(tuning.SettlingDays * float64(state.Day))
	}
	return record
}

// applyShiftTrajectory moves each trait's base by the records' net
// contribution between the anchor instant and the query instant:
//
//	base(at) = base(anchor) + Σ contribution(at) − contribution(anchorAt)
//
// Forward queries reduce to adding each record's current contribution
// (records after the anchor contribute nothing at the anchor); backward
// queries un-apply the contribution the anchor had already absorbed,
// which is what makes projection and regression round-trip.
func applyShiftTrajectory(snap *state.Snapshot, records []state.ShiftRecord, anchorAt, at time.Time, timeScale float64) {
	for _, r := range records {
		v, ok := snap.Values[r.Trait]
		if !ok {
			continue
		}
		v.Base += r.ContributionAt(at, timeScale) - r.ContributionAt(anchorAt, timeScale)
		snap.Values[r.Trait] = v
	}
}
