package params

import (
	"math"
	"time"

	"github.com/lazypower/mindline/internal/state"
)

// SpeciesKind selects the species-level plasticity family.
type SpeciesKind string

const (
	KindHuman  SpeciesKind = "human"
	KindAnimal SpeciesKind = "animal"
	KindCustom SpeciesKind = "custom"
)

// Every time scale is expressed against the human reference lifespan and
// every equivalent age against human maturity.
const (
	referenceLifespanYears = 80.0
	referenceMaturityYears = 25.0

	// Sub-year maturity (mouse, ~6 weeks) is floored here so the
	// equivalent-age scaling never divides by zero.
	minMaturityYears = 0.12
)

// Species carries the temporal identity of an entity: how fast its
// internal clock runs and how its chronological age maps onto the human
// development curve. Stored per entity, so custom species survive
// restarts.
type Species struct {
	Name             string      `json:"name"`
	Kind             SpeciesKind `json:"kind"`
	LifespanYears    float64     `json:"lifespan_years"`
	MaturityYears    float64     `json:"maturity_years"`
	SocialComplexity float64     `json:"social_complexity"`
}

// Custom builds a user-defined species. Social complexity is clamped to
// [0, 1].
func Custom(name string, lifespanYears, maturityYears, socialComplexity float64) Species {
	return Species{
		Name:             name,
		Kind:             KindCustom,
		LifespanYears:    lifespanYears,
		MaturityYears:    maturityYears,
		SocialComplexity: state.Clamp(socialComplexity, 0, 1),
	}
}

// TimeScale converts real elapsed time into the species' internal time
// base: humans 1.0, dogs ~6.67, mice 40.
func (s Species) TimeScale() float64 {
	if s.LifespanYears <= 0 {
		return 1
	}
	return referenceLifespanYears / s.LifespanYears
}

// HumanYears maps a chronological species age onto the human development
// curve. A two-year-old dog lands at 25: young adulthood.
func (s Species) HumanYears(ageYears float64) float64 {
	maturity := s.MaturityYears
	if maturity < minMaturityYears {
		maturity = minMaturityYears
	}
	return ageYears * (referenceMaturityYears / maturity)
}

// PlasticityMultiplier is the species-level base plasticity. Humans are
// the 1.0 reference, other animals shift a little faster, and custom
// species scale with social complexity.
func (s Species) PlasticityMultiplier() float64 {
	switch s.Kind {
	case KindHuman:
		return 1.0
	case KindCustom:
		return 0.8 + 0.4*state.Clamp(s.SocialComplexity, 0, 1)
	default:
		return 1.2
	}
}

// LifeStage is a developmental bucket over human-equivalent age.
type LifeStage string

const (
	StageChild       LifeStage = "child"
	StageAdolescent  LifeStage = "adolescent"
	StageYoungAdult  LifeStage = "young_adult"
	StageAdult       LifeStage = "adult"
	StageMatureAdult LifeStage = "mature_adult"
	StageElder       LifeStage = "elder"
)

// Stage buckets a chronological species age into its developmental
// stage. Equivalent ages are truncated to whole years first, so a
// one-year-old dog (12.5 equivalent) is still a child.
func (s Species) Stage(ageYears float64) LifeStage {
	years := math.Floor(math.Max(s.HumanYears(ageYears), 0))
	switch {
	case years <= 12:
		return StageChild
	case years <= 17:
		return StageAdolescent
	case years <= 30:
		return StageYoungAdult
	case years <= 55:
		return StageAdult
	case years <= 70:
		return StageMatureAdult
	default:
		return StageElder
	}
}

// AgeYears is the chronological age of an entity born at birth, measured
// at the given instant. Never negative.
func AgeYears(birth, at time.Time) float64 {
	if at.Before(birth) {
		return 0
	}
	return float64(at.Sub(birth)) / float64(state.Year)
}
