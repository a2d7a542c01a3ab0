// Package params loads the immutable tables that drive the engine:
// dimension laws, species, plasticity and sensitive-period curves, and
// formative shift tuning. Tables come from an embedded defaults pack,
// optionally overlaid by a user YAML pack, and are never mutated after
// load.
package params

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lazypower/mindline/internal/state"
)

// Group names synthesized at load time. "individual" is every dimension
// outside the relationship group and is the default active set for a new
// entity.
const (
	GroupIndividual   = "individual"
	GroupRelationship = "relationship"
	GroupAll          = "all"
)

// Params is the resolved parameter pack.
type Params struct {
	Registry  *state.Registry
	Species   map[string]Species
	Groups    map[string][]state.DimensionID
	AgeSteps  []AgeStep
	Sensitive map[state.DimensionID]SensitiveWindow
	Shift     ShiftTuning
}

// AgeStep is one rung of the age-plasticity step function.
type AgeStep struct {
	UpTo   float64 // exclusive bound in human-equivalent years; 0 = open
	Factor float64
}

// SensitiveWindow is a trait's heightened-plasticity age window, in
// human-equivalent years, inclusive on both ends.
type SensitiveWindow struct {
	From       float64
	To         float64
	Multiplier float64
}

// ShiftTuning bundles the formative-shift constants.
type ShiftTuning struct {
	MaxSingleShift  float64 // cap on one applied shift, either direction
	SevereThreshold float64 // |immediate| above this settles over time
	SevereRetention float64 // settled = retention * immediate
	SettlingDays    float64
	SaturationScale float64 // prior cumulative at which new shifts halve
	LifetimeCap     float64 // cumulative same-direction ceiling per trait
}

// Load parses the embedded defaults, overlaid by the optional user pack
// at path. Override entries merge by id or name; see merge.
func Load(path string) (*Params, error) {
	var base pack
	if err := yaml.Unmarshal(defaultsYAML, &base); err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read params pack: %w", err)
		}
		var over pack
		if err := yaml.Unmarshal(raw, &over); err != nil {
			return nil, fmt.Errorf("parse params pack %s: %w", path, err)
		}
		base = merge(base, over)
	}
	return build(base)
}

// Default returns the embedded parameter pack. The pack ships with the
// binary, so a parse failure is a build defect, not a runtime condition.
func Default() *Params {
	p, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("params: embedded defaults invalid: %v", err))
	}
	return p
}

func build(p pack) (*Params, error) {
	if len(p.Dimensions) == 0 {
		return nil, fmt.Errorf("params pack has no dimensions")
	}
	if p.Shifts == nil {
		return nil, fmt.Errorf("params pack missing shifts section")
	}
	if len(p.Plasticity.AgeSteps) == 0 {
		return nil, fmt.Errorf("params pack missing plasticity age steps")
	}

	specs := make([]state.DimensionSpec, 0, len(p.Dimensions))
	groups := make(map[string][]state.DimensionID)
	for _, d := range p.Dimensions {
		spec, err := d.toSpec()
		if err != nil {
			return nil, err
		}
		switch d.Group {
		case "":
			return nil, fmt.Errorf("dimension %q: missing group", d.ID)
		case GroupIndividual, GroupAll:
			return nil, fmt.Errorf("dimension %q: group %q is reserved", d.ID, d.Group)
		}
		specs = append(specs, spec)
		groups[d.Group] = append(groups[d.Group], spec.ID)
	}
	registry, err := state.NewRegistry(specs)
	if err != nil {
		return nil, err
	}

	species := make(map[string]Species, len(p.Species))
	for _, entry := range p.Species {
		sp, err := entry.toSpecies()
		if err != nil {
			return nil, err
		}
		if _, dup := species[sp.Name]; dup {
			return nil, fmt.Errorf("duplicate species %q", sp.Name)
		}
		species[sp.Name] = sp
	}

	sensitive := make(map[state.DimensionID]SensitiveWindow, len(p.SensitivePeriods))
	for _, entry := range p.SensitivePeriods {
		id := state.DimensionID(entry.Trait)
		spec, ok := registry.Spec(id)
		if !ok || !spec.Trait {
			return nil, fmt.Errorf("sensitive period for non-trait %q", entry.Trait)
		}
		if entry.From > entry.To || entry.Multiplier <= 0 {
			return nil, fmt.Errorf("sensitive period for %q: bad window", entry.Trait)
		}
		sensitive[id] = SensitiveWindow{From: entry.From, To: entry.To, Multiplier: entry.Multiplier}
	}

	shift := ShiftTuning{
		MaxSingleShift:  p.Shifts.MaxSingleShift,
		SevereThreshold: p.Shifts.SevereThreshold,
		SevereRetention: p.Shifts.SevereRetention,
		SettlingDays:    p.Shifts.SettlingDays,
		SaturationScale: p.Shifts.SaturationScale,
		LifetimeCap:     p.Shifts.LifetimeCap,
	}
	if shift.MaxSingleShift <= 0 || shift.SevereThreshold <= 0 ||
		shift.SevereRetention <= 0 || shift.SevereRetention > 1 ||
		shift.SettlingDays <= 0 || shift.SaturationScale <= 0 || shift.LifetimeCap <= 0 {
		return nil, fmt.Errorf("shifts section has non-positive tuning values")
	}

	steps := make([]AgeStep, len(p.Plasticity.AgeSteps))
	for i, s := range p.Plasticity.AgeSteps {
		if s.Factor <= 0 {
			return nil, fmt.Errorf("plasticity step %d: factor must be positive", i)
		}
		steps[i] = AgeStep{UpTo: s.UpTo, Factor: s.Factor}
	}

	var individual, all []state.DimensionID
	for name, ids := range groups {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		all = append(all, ids...)
		if name != GroupRelationship {
			individual = append(individual, ids...)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	sort.Slice(individual, func(i, j int) bool { return individual[i] < individual[j] })
	groups[GroupAll] = all
	groups[GroupIndividual] = individual

	return &Params{
		Registry:  registry,
		Species:   species,
		Groups:    groups,
		AgeSteps:  steps,
		Sensitive: sensitive,
		Shift:     shift,
	}, nil
}

// AgePlasticity returns the step-function factor for a human-equivalent
// age. Ages are truncated to whole years before lookup, matching the
// stage buckets.
func (p *Params) AgePlasticity(humanYears float64) float64 {
	years := math.Floor(math.Max(humanYears, 0))
	for _, step := range p.AgeSteps {
		if step.UpTo <= 0 || years < step.UpTo {
			return step.Factor
		}
	}
	return 1
}

// SensitiveMultiplier returns the sensitive-period factor for a trait at
// a human-equivalent age, 1.0 outside the trait's window.
func (p *Params) SensitiveMultiplier(trait state.DimensionID, humanYears float64) float64 {
	w, ok := p.Sensitive[trait]
	if !ok {
		return 1
	}
	years := math.Floor(math.Max(humanYears, 0))
	if years >= w.From && years <= w.To {
		return w.Multiplier
	}
	return 1
}

// SpeciesByName looks up a named species from the pack.
func (p *Params) SpeciesByName(name string) (Species, bool) {
	sp, ok := p.Species[name]
	return sp, ok
}

// SpeciesNames returns the pack's species names in sorted order.
func (p *Params) SpeciesNames() []string {
	names := make([]string, 0, len(p.Species))
	for name := range p.Species {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveSet expands a mix of group names and dimension ids into a
// validated, sorted active set. Empty input selects the individual set.
func (p *Params) ResolveSet(names []string) ([]state.DimensionID, error) {
	if len(names) == 0 {
		names = []string{GroupIndividual}
	}
	var ids []state.DimensionID
	for _, name := range names {
		if members, ok := p.Groups[name]; ok {
			ids = append(ids, members...)
			continue
		}
		ids = append(ids, state.DimensionID(name))
	}
	return p.Registry.Resolve(ids)
}
