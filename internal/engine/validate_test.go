package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lazypower/mindline/internal/state"
)

func TestValidateEffect(t *testing.T) {
	e := testEngine(t)
	active, err := e.Params().ResolveSet(nil)
	if err != nil {
		t.Fatalf("ResolveSet: %v", err)
	}
	at := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		eff     state.EventEffect
		wantErr error
	}{
		{
			name: "valid deltas",
			eff:  state.EventEffect{At: at, Deltas: map[state.DimensionID]float64{state.MoodValence: 0.5}},
		},
		{
			name: "valid chronic delta",
			eff:  state.EventEffect{At: at, ChronicDeltas: map[state.DimensionID]float64{state.Stress: 0.2}},
		},
		{
			name: "valid shift",
			eff:  state.EventEffect{At: at, Shifts: []state.ShiftRequest{{Trait: state.Agreeableness, Magnitude: -0.25}}},
		},
		{
			name:    "missing timestamp",
			eff:     state.EventEffect{Deltas: map[state.DimensionID]float64{state.MoodValence: 0.5}},
			wantErr: state.ErrOutOfRange,
		},
		{
			name:    "unknown dimension",
			eff:     state.EventEffect{At: at, Deltas: map[state.DimensionID]float64{"charisma": 0.1}},
			wantErr: state.ErrUnknownDimension,
		},
		{
			name:    "inactive dimension",
			eff:     state.EventEffect{At: at, Deltas: map[state.DimensionID]float64{state.RelAffinity: 0.1}},
			wantErr: state.ErrDimensionInactive,
		},
		{
			name:    "delta above range",
			eff:     state.EventEffect{At: at, Deltas: map[state.DimensionID]float64{state.MoodValence: 1.5}},
			wantErr: state.ErrOutOfRange,
		},
		{
			name:    "delta not finite",
			eff:     state.EventEffect{At: at, Deltas: map[state.DimensionID]float64{state.MoodValence: math.NaN()}},
			wantErr: state.ErrOutOfRange,
		},
		{
			name:    "chronic delta without channel",
			eff:     state.EventEffect{At: at, ChronicDeltas: map[state.DimensionID]float64{state.MoodValence: 0.1}},
			wantErr: state.ErrDimensionInactive,
		},
		{
			name:    "shift on non-trait",
			eff:     state.EventEffect{At: at, Shifts: []state.ShiftRequest{{Trait: state.Stress, Magnitude: 0.1}}},
			wantErr: state.ErrDimensionInactive,
		},
		{
			name:    "shift out of range",
			eff:     state.EventEffect{At: at, Shifts: []state.ShiftRequest{{Trait: state.Agreeableness, Magnitude: -2}}},
			wantErr: state.ErrOutOfRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.ValidateEffect(active, tt.eff)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEffect = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEffect = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAnchor(t *testing.T) {
	e := testEngine(t)
	active, err := e.Params().ResolveSet(nil)
	if err != nil {
		t.Fatalf("ResolveSet: %v", err)
	}
	at := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	valid := state.NewSnapshot(at, e.Params().Registry, active)
	if err := e.ValidateAnchor(active, valid); err != nil {
		t.Errorf("ValidateAnchor(default snapshot) = %v, want nil", err)
	}

	tests := []struct {
		name    string
		mutate  func(s *state.Snapshot)
		wantErr error
	}{
		{
			name:    "missing timestamp",
			mutate:  func(s *state.Snapshot) { s.At = time.Time{} },
			wantErr: state.ErrOutOfRange,
		},
		{
			name: "inactive dimension",
			mutate: func(s *state.Snapshot) {
				s.Values[state.RelAffinity] = state.Value{Base: 0.1}
			},
			wantErr: state.ErrDimensionInactive,
		},
		{
			name: "unknown dimension",
			mutate: func(s *state.Snapshot) {
				s.Values["charisma"] = state.Value{}
			},
			wantErr: state.ErrUnknownDimension,
		},
		{
			name: "base outside bounds",
			mutate: func(s *state.Snapshot) {
				s.Values[state.Purpose] = state.Value{Base: 1.5}
			},
			wantErr: state.ErrOutOfRange,
		},
		{
			name: "value not finite",
			mutate: func(s *state.Snapshot) {
				s.Values[state.Purpose] = state.Value{Base: 0.7, Delta: math.NaN()}
			},
			wantErr: state.ErrOutOfRange,
		},
		{
			name: "stacked transients allowed",
			mutate: func(s *state.Snapshot) {
				// A re-pinned projection can carry deltas past the band;
				// only the base is range-checked.
				s.Values[state.Purpose] = state.Value{Base: 0.7, Delta: 5.0}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := valid.Clone()
			tt.mutate(&snap)
			err := e.ValidateAnchor(active, snap)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAnchor = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAnchor = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
