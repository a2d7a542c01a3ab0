package params

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lazypower/mindline/internal/state"
)

// Span is a YAML duration that accepts day and week suffixes on top of
// the stdlib units: "6h", "2d", "3w".
type Span time.Duration

func (s *Span) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	d, err := ParseSpan(raw)
	if err != nil {
		return err
	}
	*s = Span(d)
	return nil
}

// ParseSpan parses a duration with optional d (day) and w (week)
// suffixes. Anything else goes through time.ParseDuration.
func ParseSpan(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	if n := len(raw); n > 1 && (raw[n-1] == 'd' || raw[n-1] == 'w') {
		value, err := strconv.ParseFloat(raw[:n-1], 64)
		if err != nil {
			return 0, fmt.Errorf("parse span %q: %w", raw, err)
		}
		unit := state.Day
		if raw[n-1] == 'w' {
			unit = state.Week
		}
		return time.Duration(value * float64(unit)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse span %q: %w", raw, err)
	}
	return d, nil
}

// pack is the on-disk YAML shape of a parameter pack.
type pack struct {
	Species          []speciesEntry   `yaml:"species"`
	Dimensions       []dimensionEntry `yaml:"dimensions"`
	Plasticity       plasticityEntry  `yaml:"plasticity"`
	SensitivePeriods []sensitiveEntry `yaml:"sensitive_periods"`
	Shifts           *shiftsEntry     `yaml:"shifts"`
}

type speciesEntry struct {
	Name             string  `yaml:"name"`
	Kind             string  `yaml:"kind"`
	LifespanYears    float64 `yaml:"lifespan_years"`
	MaturityYears    float64 `yaml:"maturity_years"`
	SocialComplexity float64 `yaml:"social_complexity"`
}

func (e speciesEntry) toSpecies() (Species, error) {
	kind := SpeciesKind(e.Kind)
	switch kind {
	case KindHuman, KindAnimal, KindCustom:
	default:
		return Species{}, fmt.Errorf("species %q: unknown kind %q", e.Name, e.Kind)
	}
	if e.Name == "" {
		return Species{}, fmt.Errorf("species entry with empty name")
	}
	if e.LifespanYears <= 0 {
		return Species{}, fmt.Errorf("species %q: lifespan must be positive", e.Name)
	}
	return Species{
		Name:             e.Name,
		Kind:             kind,
		LifespanYears:    e.LifespanYears,
		MaturityYears:    e.MaturityYears,
		SocialComplexity: state.Clamp(e.SocialComplexity, 0, 1),
	}, nil
}

type dimensionEntry struct {
	ID           string            `yaml:"id"`
	Group        string            `yaml:"group"`
	Min          float64           `yaml:"min"`
	Max          float64           `yaml:"max"`
	Base         float64           `yaml:"base"`
	Law          string            `yaml:"law"`
	HalfLife     Span              `yaml:"half_life"`
	GrowthPerDay float64           `yaml:"growth_per_day"`
	Chronic      bool              `yaml:"chronic"`
	Monotonic    bool              `yaml:"monotonic"`
	Trait        bool              `yaml:"trait"`
	Stability    float64           `yaml:"stability"`
	Crystallize  *crystallizeEntry `yaml:"crystallize"`
}

type crystallizeEntry struct {
	Threshold float64 `yaml:"threshold"`
	Fraction  float64 `yaml:"fraction"`
}

func (e dimensionEntry) toSpec() (state.DimensionSpec, error) {
	spec := state.DimensionSpec{
		ID:          state.DimensionID(e.ID),
		Min:         e.Min,
		Max:         e.Max,
		DefaultBase: e.Base,
		HalfLife:    time.Duration(e.HalfLife),
		GrowthRate:  e.GrowthPerDay,
		Chronic:     e.Chronic,
		Monotonic:   e.Monotonic,
		Trait:       e.Trait,
		Stability:   e.Stability,
	}
	switch e.Law {
	case "decay":
		spec.Law = state.LawDecay
		if spec.HalfLife <= 0 {
			return spec, fmt.Errorf("dimension %q: decay law needs a half_life", e.ID)
		}
	case "growth":
		spec.Law = state.LawGrowth
		if spec.GrowthRate <= 0 {
			return spec, fmt.Errorf("dimension %q: growth law needs growth_per_day", e.ID)
		}
	case "static", "":
		spec.Law = state.LawStatic
	default:
		return spec, fmt.Errorf("dimension %q: unknown law %q", e.ID, e.Law)
	}
	if e.Chronic && spec.Law != state.LawDecay {
		return spec, fmt.Errorf("dimension %q: chronic channel requires the decay law", e.ID)
	}
	if e.Trait && (e.Stability <= 0 || e.Stability >= 1) {
		return spec, fmt.Errorf("dimension %q: trait stability must be in (0, 1)", e.ID)
	}
	if e.Crystallize != nil {
		if e.Crystallize.Threshold <= 0 || e.Crystallize.Fraction <= 0 || e.Crystallize.Fraction >= 1 {
			return spec, fmt.Errorf("dimension %q: crystallize needs threshold > 0 and fraction in (0, 1)", e.ID)
		}
		spec.Crystallize = state.CrystallizeSpec{
			Enabled:   true,
			Threshold: e.Crystallize.Threshold,
			Fraction:  e.Crystallize.Fraction,
		}
	}
	return spec, nil
}

type plasticityEntry struct {
	AgeSteps []ageStepEntry `yaml:"age_steps"`
}

type ageStepEntry struct {
	UpTo   float64 `yaml:"up_to"` // exclusive bound in human-equivalent years; 0 = open
	Factor float64 `yaml:"factor"`
}

type sensitiveEntry struct {
	Trait      string  `yaml:"trait"`
	From       float64 `yaml:"from"`
	To         float64 `yaml:"to"`
	Multiplier float64 `yaml:"multiplier"`
}

type shiftsEntry struct {
	MaxSingleShift  float64 `yaml:"max_single_shift"`
	SevereThreshold float64 `yaml:"severe_threshold"`
	SevereRetention float64 `yaml:"severe_retention"`
	SettlingDays    float64 `yaml:"settling_days"`
	SaturationScale float64 `yaml:"saturation_scale"`
	LifetimeCap     float64 `yaml:"lifetime_cap"`
}

// merge overlays an override pack onto the defaults. List sections merge
// entry-wise by their key; plasticity and shifts replace wholesale when
// the override provides them.
func merge(base, over pack) pack {
	base.Species = mergeByKey(base.Species, over.Species,
		func(s speciesEntry) string { return s.Name })
	base.Dimensions = mergeByKey(base.Dimensions, over.Dimensions,
		func(d dimensionEntry) string { return d.ID })
	base.SensitivePeriods = mergeByKey(base.SensitivePeriods, over.SensitivePeriods,
		func(s sensitiveEntry) string { return s.Trait })
	if len(over.Plasticity.AgeSteps) > 0 {
		base.Plasticity = over.Plasticity
	}
	if over.Shifts != nil {
		base.Shifts = over.Shifts
	}
	return base
}

func mergeByKey[T any](base, over []T, key func(T) string) []T {
	if len(over) == 0 {
		return base
	}
	index := make(map[string]int, len(base))
	for i, entry := range base {
		index[key(entry)] = i
	}
	out := append([]T(nil), base...)
	for _, entry := range over {
		if i, ok := index[key(entry)]; ok {
			out[i] = entry
		} else {
			out = append(out, entry)
		}
	}
	return out
}
