package engine

import (
	"math"

	"github.com/lazypower/mindline/internal/state"
)

// EmotionIntensities grades each PAD octant with a fuzzy membership in
// [0, 1] rather than picking one discrete emotion. Disgust shares the
// hostile octant, gated by a recent moral-violation signal.
type EmotionIntensities struct {
	Exuberant float64 `json:"exuberant"`
	Dependent float64 `json:"dependent"`
	Relaxed   float64 `json:"relaxed"`
	Docile    float64 `json:"docile"`
	Hostile   float64 `json:"hostile"`
	Disgust   float64 `json:"disgust"`
	Anxious   float64 `json:"anxious"`
	Bored     float64 `json:"bored"`
	Depressed float64 `json:"depressed"`
}

// Dominant returns the strongest octant and its intensity, or "neutral"
// when every membership is zero.
func (em EmotionIntensities) Dominant() (string, float64) {
	name, best := "neutral", 0.0
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"exuberant", em.Exuberant},
		{"dependent", em.Dependent},
		{"relaxed", em.Relaxed},
		{"docile", em.Docile},
		{"hostile", em.Hostile},
		{"disgust", em.Disgust},
		{"anxious", em.Anxious},
		{"bored", em.Bored},
		{"depressed", em.Depressed},
	} {
		if c.value > best {
			name, best = c.name, c.value
		}
	}
	return name, best
}

// DeriveEmotions computes graded octant memberships from raw PAD values
// in [-1, 1]. Each axis is normalized to [0, 1]; high/low memberships
// ramp linearly from the midpoint; an octant's intensity is the minimum
// of its three axis memberships (Mehrabian-Russell). Stateless: a pure
// read over a snapshot, outside the invertible core.
//
//	valence arousal dominance octant
//	   +       +       +     exuberant
//	   +       +       -     dependent
//	   +       -       +     relaxed
//	   +       -       -     docile
//	   -       +       +     hostile
//	   -       +       -     anxious
//	   -       -       +     bored
//	   -       -       -     depressed
func DeriveEmotions(valence, arousal, dominance, moralViolation float64) EmotionIntensities {
	vHigh, vLow := memberships(valence)
	aHigh, aLow := memberships(arousal)
	dHigh, dLow := memberships(dominance)
	flag := state.Clamp(moralViolation, 0, 1)

	return EmotionIntensities{
		Exuberant: min3(vHigh, aHigh, dHigh),
		Dependent: min3(vHigh, aHigh, dLow),
		Relaxed:   min3(vHigh, aLow, dHigh),
		Docile:    min3(vHigh, aLow, dLow),
		Hostile:   min3(vLow, aHigh, dHigh),
		Disgust:   min3(vLow, aHigh, dHigh) * flag,
		Anxious:   min3(vLow, aHigh, dLow),
		Bored:     min3(vLow, aLow, dHigh),
		Depressed: min3(vLow, aLow, dLow),
	}
}

// SnapshotEmotions reads the mood dimensions out of a query result and
// derives the octant memberships.
func SnapshotEmotions(r Result, moralViolation float64) EmotionIntensities {
	return DeriveEmotions(
		r.Effective[state.MoodValence],
		r.Effective[state.MoodArousal],
		r.Effective[state.MoodDominance],
		moralViolation,
	)
}

// memberships maps a [-1, 1] axis value onto its fuzzy high and low
// memberships.
func memberships(value float64) (high, low float64) {
	norm := state.Clamp((value+1)/2, 0, 1)
	return state.Clamp((norm-0.5)/0.5, 0, 1), state.Clamp((0.5-norm)/0.5, 0, 1)
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}
