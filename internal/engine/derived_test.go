package engine

import (
	"testing"

	"github.com/lazypower/mindline/internal/state"
)

func TestDeriveEmotionsOctants(t *testing.T) {
	tests := []struct {
		name      string
		v, a, d   float64
		want      string
		intensity float64
	}{
		{"exuberant corner", 1, 1, 1, "exuberant", 1},
		{"depressed corner", -1, -1, -1, "depressed", 1},
		{"dependent", 0.8, 0.5, -0.2, "dependent", 0.2},
		{"relaxed", 0.5, -0.5, 0.5, "relaxed", 0.5},
		{"docile", 0.3, -0.6, -0.9, "docile", 0.3},
		{"hostile", -0.9, 0.7, 0.6, "hostile", 0.6},
		{"anxious", -0.6, 0.8, -0.4, "anxious", 0.4},
		{"bored", -0.7, -0.3, 0.2, "bored", 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			em := DeriveEmotions(tt.v, tt.a, tt.d, 0)
			name, intensity := em.Dominant()
			if name != tt.want || !approx(intensity, tt.intensity) {
				t.Errorf("Dominant() = %s %.3f, want %s %.3f", name, intensity, tt.want, tt.intensity)
			}
		})
	}
}

func TestDeriveEmotionsNeutral(t *testing.T) {
	em := DeriveEmotions(0, 0, 0, 0)
	name, intensity := em.Dominant()
	if name != "neutral" || intensity != 0 {
		t.Errorf("Dominant() = %s %v, want neutral 0", name, intensity)
	}
}

// Disgust shares the hostile octant but only registers when a moral
// violation accompanies it.
func TestDeriveEmotionsDisgustGating(t *testing.T) {
	tests := []struct {
		name      string
		violation float64
		want      float64
	}{
		{"no violation", 0, 0},
		{"full violation", 1, 0.7},
		{"partial violation", 0.5, 0.35},
		{"violation clamped", 1.5, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			em := DeriveEmotions(-0.8, 0.9, 0.7, tt.violation)
			if !approx(em.Hostile, 0.7) {
				t.Fatalf("Hostile = %v, want 0.7", em.Hostile)
			}
			if !approx(em.Disgust, tt.want) {
				t.Errorf("Disgust = %v, want %v", em.Disgust, tt.want)
			}
		})
	}
}

func TestSnapshotEmotions(t *testing.T) {
	r := Result{Effective: map[state.DimensionID]float64{
		state.MoodValence:   1,
		state.MoodArousal:   1,
		state.MoodDominance: 1,
	}}
	em := SnapshotEmotions(r, 0)
	if !approx(em.Exuberant, 1) {
		t.Errorf("Exuberant = %v, want 1", em.Exuberant)
	}
	if name, _ := em.Dominant(); name != "exuberant" {
		t.Errorf("Dominant() = %s, want exuberant", name)
	}
}
