// Package engine is the temporal computation core: given one pinned
// anchor snapshot and an entity's timestamped events, it computes the
// full psychological state at any query instant by projecting forward
// or regressing backward through the event checkpoints.
//
// The engine is pure. It holds no entity state, performs no I/O, and
// never consults the wall clock; identical inputs produce bit-identical
// results. Callers may run queries concurrently as long as the event
// history is not mutated underneath them.
package engine

import (
	"fmt"
	"time"

	"github.com/lazypower/mindline/internal/params"
	"github.com/lazypower/mindline/internal/state"
)

// Quality reports whether a query result is exactly invertible or was
// degraded by a bound hit somewhere along the walk.
type Quality string

const (
	// Exact: no clamp, saturation, ratchet, or overflow guard fired;
	// regressing the result back to the anchor recovers it precisely.
	Exact Quality = "exact"
	// Approximate: at least one bound was hit. The result is still the
	// bound-consistent value, never a silent guess; Reasons says why.
	Approximate Quality = "approximate"
)

// Profile describes whose state is being computed: species (time scale
// and base plasticity), birth time (age-dependent modifiers), and the
// dimensions active for this entity.
type Profile struct {
	Species params.Species
	Birth   time.Time
	Active  []state.DimensionID
}

// ShiftOutcome pairs a derived base-shift record with its contribution
// to the trait's effective base at the query instant.
type ShiftOutcome struct {
	state.ShiftRecord
	Contribution float64 `json:"contribution"`
}

// Result is one fully materialized state query answer.
type Result struct {
	At        time.Time                     `json:"at"`
	Snapshot  state.Snapshot                `json:"snapshot"`
	Effective map[state.DimensionID]float64 `json:"effective"`
	Shifts    []ShiftOutcome                `json:"shifts,omitempty"`
	Quality   Quality                       `json:"quality"`
	Reasons   []string                      `json:"reasons,omitempty"`
}

// Engine computes states from anchors and events. Construct once per
// parameter pack and share freely; it is immutable after SetBoundary.
type Engine struct {
	params   *params.Params
	boundary BoundaryPolicy
}

// New creates an engine over the given parameter pack.
func New(p *params.Params) *Engine {
	return &Engine{params: p, boundary: BoundaryHalfOpen}
}

// SetBoundary selects how events sitting exactly on the anchor or query
// timestamp are treated. Call before serving queries, not between them.
func (e *Engine) SetBoundary(b BoundaryPolicy) {
	e.boundary = b
}

// Params exposes the engine's parameter pack to callers that need the
// registry or species tables alongside query results.
func (e *Engine) Params() *params.Params {
	return e.params
}

// StateAt computes the entity's state at the query instant. The anchor
// is never mutated; events may arrive in any order and are windowed and
// sorted internally. Queries before the anchor regress, queries after
// it project, and a query exactly at the anchor returns it as-is.
func (e *Engine) StateAt(p Profile, anchor state.Snapshot, events []state.EventEffect, at time.Time) (Result, error) {
	if len(anchor.Values) == 0 {
		return Result{}, state.ErrNoAnchor
	}
	active, err := e.params.Registry.Resolve(p.Active)
	if err != nil {
		return Result{}, fmt.Errorf("resolve active set: %w", err)
	}

	w := newWalker(e.params, p, anchor, active)

	if at.Equal(anchor.At) {
		// Short-circuit: the anchor is the answer.
		return e.finish(w, nil, at), nil
	}

	evts := window(events, anchor.At, at, e.boundary)
	records := e.collectShifts(p, evts)
	if at.After(anchor.At) {
		e.project(w, evts, at)
	} else {
		e.regress(w, evts, at)
	}
	applyShiftTrajectory(&w.snap, records, anchor.At, at, w.timeScale)
	return e.finish(w, records, at), nil
}

// CumulativeShifts derives every base-shift record the given events
// produce, walked in chronological order with saturation and the
// lifetime cap accumulated from the start of the list. Shift records
// are never persisted; this is how callers reconstruct them.
func (e *Engine) CumulativeShifts(p Profile, events []state.EventEffect) []state.ShiftRecord {
	sorted := make([]state.EventEffect, len(events))
	copy(sorted, events)
	sortChronological(sorted)
	return e.collectShifts(p, sorted)
}

// walker carries one query's mutable computation state down the
// checkpoint sequence: the snapshot being stepped, the crystallization
// exposure accumulators, and any approximation reasons hit on the way.
type walker struct {
	pp        *params.Params
	profile   Profile
	snap      state.Snapshot
	active    []state.DimensionID
	specs     map[state.DimensionID]state.DimensionSpec
	timeScale float64
	exposure  map[state.DimensionID]float64
	// exposureUpper over-counts backward exposure as if every interval
	// followed a conversion, bounding what the forward walk could have
	// banked. Only the regressor maintains it.
	exposureUpper map[state.DimensionID]float64
	reasons       []string
}

func newWalker(pp *params.Params, p Profile, anchor state.Snapshot, active []state.DimensionID) *walker {
	specs := make(map[state.DimensionID]state.DimensionSpec, len(active))
	for _, id := range active {
		if s, ok := pp.Registry.Spec(id); ok {
			specs[id] = s
		}
	}
	return &walker{
		pp:            pp,
		profile:       p,
		snap:          anchor.Clone(),
		active:        active,
		specs:         specs,
		timeScale:     p.Species.TimeScale(),
		exposure:      make(map[state.DimensionID]float64),
		exposureUpper: make(map[state.DimensionID]float64),
	}
}

// flag records an approximation reason once.
func (w *walker) flag(format string, args ...any) {
	reason := fmt.Sprintf(format, args...)
	for _, r := range w.reasons {
		if r == reason {
			return
		}
	}
	w.reasons = append(w.reasons, reason)
}

// humanYearsAt is the entity's human-equivalent age at the given instant.
func (w *walker) humanYearsAt(at time.Time) float64 {
	return w.profile.Species.HumanYears(params.AgeYears(w.profile.Birth, at))
}

// finish materializes the walker into a Result.
func (e *Engine) finish(w *walker, records []state.ShiftRecord, at time.Time) Result {
	w.snap.At = at

	effective := make(map[state.DimensionID]float64, len(w.active))
	for _, id := range w.active {
		effective[id] = w.snap.Values[id].Effective(w.specs[id])
	}

	var outcomes []ShiftOutcome
	for _, r := range records {
		outcomes = append(outcomes, ShiftOutcome{
			ShiftRecord:  r,
			Contribution: r.ContributionAt(at, w.timeScale),
		})
	}

	quality := Exact
	if len(w.reasons) > 0 {
		quality = Approximate
	}
	return Result{
		At:        at,
		Snapshot:  w.snap,
		Effective: effective,
		Shifts:    outcomes,
		Quality:   quality,
		Reasons:   w.reasons,
	}
}
