package state

import (
	"fmt"
	"sort"
	"time"
)

// DimensionID identifies one scalar dimension of psychological state.
type DimensionID string

// Individual dimensions.
const (
	MoodValence   DimensionID = "mood_valence"
	MoodArousal   DimensionID = "mood_arousal"
	MoodDominance DimensionID = "mood_dominance"

	Stress     DimensionID = "stress"
	Fatigue    DimensionID = "fatigue"
	Loneliness DimensionID = "loneliness"

	ReciprocalCaring   DimensionID = "reciprocal_caring"
	PerceivedLiability DimensionID = "perceived_liability"
	SelfHate           DimensionID = "self_hate"
	SelfWorth          DimensionID = "self_worth"
	SocialCapital      DimensionID = "social_capital"
	Empathy            DimensionID = "empathy"

	Hopelessness              DimensionID = "hopelessness"
	InterpersonalHopelessness DimensionID = "interpersonal_hopelessness"
	Depression                DimensionID = "depression"
	Aggression                DimensionID = "aggression"
	Grievance                 DimensionID = "grievance"
	Purpose                   DimensionID = "purpose"
	AcquiredCapability        DimensionID = "acquired_capability"
)

// Personality traits (HEXACO). Traits carry no transient delta; they
// move only through formative base shifts.
const (
	HonestyHumility   DimensionID = "honesty_humility"
	Emotionality      DimensionID = "emotionality"
	Extraversion      DimensionID = "extraversion"
	Agreeableness     DimensionID = "agreeableness"
	Conscientiousness DimensionID = "conscientiousness"
	Openness          DimensionID = "openness"
)

// Relationship dimensions, shared by both members of a pair.
const (
	RelAffinity DimensionID = "rel_affinity"
	RelRespect  DimensionID = "rel_respect"
	RelTension  DimensionID = "rel_tension"
	RelIntimacy DimensionID = "rel_intimacy"
	RelHistory  DimensionID = "rel_history"
)

// Law selects how a dimension's acute delta evolves between checkpoints.
type Law int

const (
	// LawDecay: delta halves every HalfLife of internal time.
	LawDecay Law = iota
	// LawGrowth: delta builds at GrowthRate per internal day until an
	// event satisfies it (need dimensions).
	LawGrowth
	// LawStatic: delta never moves on its own (traits, monotonic history).
	LawStatic
)

func (l Law) String() string {
	switch l {
	case LawDecay:
		return "decay"
	case LawGrowth:
		return "growth"
	case LawStatic:
		return "static"
	default:
		return "unknown"
	}
}

// CrystallizeSpec configures the sustained-delta ratchet for one
// dimension. Threshold is in |delta|-days of internal time; Fraction is
// the share of the current delta folded into base each firing, before
// plasticity modulation.
type CrystallizeSpec struct {
	Enabled   bool
	Threshold float64
	Fraction  float64
}

// DimensionSpec is the full configuration of one dimension: bounds,
// default base, evolution law, and the flags the engine consults when
// stepping and inverting.
type DimensionSpec struct {
	ID          DimensionID
	Min         float64
	Max         float64
	DefaultBase float64

	Law        Law
	HalfLife   time.Duration // LawDecay; 0 means the delta never decays
	GrowthRate float64       // LawGrowth; per internal day

	// Chronic marks dimensions whose events may target the slow channel.
	Chronic bool

	// Monotonic dimensions accumulate one way; regression never
	// un-applies their event deltas and is flagged approximate instead.
	Monotonic bool

	// Trait marks formative-shift-eligible personality dimensions.
	Trait     bool
	Stability float64 // [0.60, 0.85] for traits; higher resists shifts

	Crystallize CrystallizeSpec
}

// DefaultValue returns the Value a fresh entity starts with.
func (s DimensionSpec) DefaultValue() Value {
	return Value{Base: s.DefaultBase}
}

// Registry resolves dimension identifiers to their specs. Built once
// from the parameter tables and never mutated afterwards.
type Registry struct {
	specs map[DimensionID]DimensionSpec
	order []DimensionID
}

// NewRegistry builds a registry from specs, rejecting duplicates and
// malformed bounds.
func NewRegistry(specs []DimensionSpec) (*Registry, error) {
	r := &Registry{specs: make(map[DimensionID]DimensionSpec, len(specs))}
	for _, s := range specs {
		if s.ID == "" {
			return nil, fmt.Errorf("dimension spec with empty id")
		}
		if _, dup := r.specs[s.ID]; dup {
			return nil, fmt.Errorf("duplicate dimension %q", s.ID)
		}
		if s.Min >= s.Max {
			return nil, fmt.Errorf("dimension %q: min %v >= max %v", s.ID, s.Min, s.Max)
		}
		r.specs[s.ID] = s
		r.order = append(r.order, s.ID)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })
	return r, nil
}

// Spec returns the configuration for id.
func (r *Registry) Spec(id DimensionID) (DimensionSpec, bool) {
	s, ok := r.specs[id]
	return s, ok
}

// IDs returns every registered dimension in sorted order. Stepping
// iterates this, never a map, so results are deterministic.
func (r *Registry) IDs() []DimensionID {
	out := make([]DimensionID, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve validates an active set against the registry and returns it
// sorted and de-duplicated. An empty active set is an error: an entity
// with no dimensions cannot be queried.
func (r *Registry) Resolve(active []DimensionID) ([]DimensionID, error) {
	if len(active) == 0 {
		return nil, fmt.Errorf("%w: empty active set", ErrUnknownDimension)
	}
	seen := make(map[DimensionID]bool, len(active))
	out := make([]DimensionID, 0, len(active))
	for _, id := range active {
		if _, ok := r.specs[id]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
