package engine

import (
	"fmt"
	"math"

	"github.com/lazypower/mindline/internal/state"
)

// ValidateEffect rejects malformed event effects at construction time,
// before they are persisted, so computation never sees them: every
// referenced dimension must be active for the entity, chronic deltas
// must target a chronic-capable dimension, shifts must target traits,
// and every magnitude must be finite and within [-1, 1].
func (e *Engine) ValidateEffect(active []state.DimensionID, eff state.EventEffect) error {
	if eff.At.IsZero() {
		return fmt.Errorf("%w: event timestamp required", state.ErrOutOfRange)
	}
	isActive := activeSet(active)

	for id, d := range eff.Deltas {
		if err := e.checkDimension(isActive, id); err != nil {
			return fmt.Errorf("delta on %q: %w", id, err)
		}
		if err := checkMagnitude(d); err != nil {
			return fmt.Errorf("delta on %q: %w", id, err)
		}
	}
	for id, d := range eff.ChronicDeltas {
		if err := e.checkDimension(isActive, id); err != nil {
			return fmt.Errorf("chronic delta on %q: %w", id, err)
		}
		if spec, _ := e.params.Registry.Spec(id); !spec.Chronic {
			return fmt.Errorf("chronic delta on %q: %w: no chronic channel", id, state.ErrDimensionInactive)
		}
		if err := checkMagnitude(d); err != nil {
			return fmt.Errorf("chronic delta on %q: %w", id, err)
		}
	}
	for _, s := range eff.Shifts {
		if err := e.checkDimension(isActive, s.Trait); err != nil {
			return fmt.Errorf("shift on %q: %w", s.Trait, err)
		}
		if spec, _ := e.params.Registry.Spec(s.Trait); !spec.Trait {
			return fmt.Errorf("shift on %q: %w: not a personality trait", s.Trait, state.ErrDimensionInactive)
		}
		if err := checkMagnitude(s.Magnitude); err != nil {
			return fmt.Errorf("shift on %q: %w", s.Trait, err)
		}
	}
	return nil
}

// ValidateAnchor rejects anchor snapshots that reference inactive
// dimensions, carry non-finite values, or pin a base outside the
// dimension's declared bounds. Deltas are not range-checked: a
// projected state with stacked transients is a legitimate anchor.
func (e *Engine) ValidateAnchor(active []state.DimensionID, snap state.Snapshot) error {
	if snap.At.IsZero() {
		return fmt.Errorf("%w: anchor timestamp required", state.ErrOutOfRange)
	}
	isActive := activeSet(active)

	for _, id := range snap.Dimensions() {
		if err := e.checkDimension(isActive, id); err != nil {
			return fmt.Errorf("anchor value on %q: %w", id, err)
		}
		spec, _ := e.params.Registry.Spec(id)
		v := snap.Values[id]
		if !finite(v.Base) || !finite(v.Delta) || !finite(v.ChronicDelta) {
			return fmt.Errorf("anchor value on %q: %w: not finite", id, state.ErrOutOfRange)
		}
		if v.Base < spec.Min || v.Base > spec.Max {
			return fmt.Errorf("anchor base on %q: %w: %v outside [%v, %v]", id, state.ErrOutOfRange, v.Base, spec.Min, spec.Max)
		}
	}
	return nil
}

func (e *Engine) checkDimension(isActive map[state.DimensionID]bool, id state.DimensionID) error {
	if _, ok := e.params.Registry.Spec(id); !ok {
		return state.ErrUnknownDimension
	}
	if !isActive[id] {
		return state.ErrDimensionInactive
	}
	return nil
}

func checkMagnitude(d float64) error {
	if !finite(d) {
		return fmt.Errorf("%w: not finite", state.ErrOutOfRange)
	}
	if d < -1 || d > 1 {
		return fmt.Errorf("%w: %v outside [-1, 1]", state.ErrOutOfRange, d)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func activeSet(ids []state.DimensionID) map[state.DimensionID]bool {
	set := make(map[state.DimensionID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
