// Package state defines the value model shared by every psychological
// dimension: a permanent base, transient deltas that decay or grow over
// time, and the registry of dimension configurations resolved per species.
package state

import (
	"math"
	"time"
)

// Fixed calendar-free spans used by the dimension tables.
// A month is 30 days and a year 365, matching the behavioral model.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
	Year = 365 * Day
)

// ChronicHalfLifeMultiplier slows the chronic channel relative to the
// acute channel: sustained conditions fade four times slower.
const ChronicHalfLifeMultiplier = 4

// expGuard is the natural-log exponent above which an inverse decay
// factor would overflow. Mirrors the forward model's overflow guard.
const expGuard = 700.0

// Value is the base+delta primitive underlying every scalar dimension.
//
// Base moves only through formative shifts and crystallization. Delta is
// the acute transient channel; ChronicDelta is a slower second channel
// for sustained conditions. None of the three is ever clamped on its
// own; only their sum is, at read time (see Effective).
type Value struct {
	Base         float64 `json:"base"`
	Delta        float64 `json:"delta"`
	ChronicDelta float64 `json:"chronic_delta,omitempty"`
}

// Effective returns clamp(Base+Delta+ChronicDelta, min, max).
func (v Value) Effective(spec DimensionSpec) float64 {
	return Clamp(v.Base+v.Delta+v.ChronicDelta, spec.Min, spec.Max)
}

// Clamp bounds x to [min, max].
func Clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// ScaleElapsed converts a real elapsed span into the entity's internal
// time base. A dog (time scale ~6.67) experiences a real day as almost
// a week of internal time. Saturates instead of overflowing: a span a
// short-lived species cannot represent decays to nothing anyway.
func ScaleElapsed(elapsed time.Duration, timeScale float64) time.Duration {
	if timeScale == 1 || elapsed == 0 {
		return elapsed
	}
	scaled := float64(elapsed) * timeScale
	if scaled >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	if scaled <= math.MinInt64 {
		return time.Duration(math.MinInt64)
	}
	return time.Duration(scaled)
}

// DecayFactor returns 2^(-elapsed/halfLife) for an already time-scaled
// elapsed span. A zero or negative half-life means no decay (factor 1).
func DecayFactor(elapsed, halfLife time.Duration) float64 {
	if halfLife <= 0 || elapsed <= 0 {
		return 1
	}
	return math.Exp2(-float64(elapsed) / float64(halfLife))
}

// InverseDecayFactor returns 2^(+elapsed/halfLife), the exact inverse of
// DecayFactor over the same interval. The second return is false when
// the exponent would overflow; callers must treat the capped factor as
// approximate rather than exact.
func InverseDecayFactor(elapsed, halfLife time.Duration) (float64, bool) {
	if halfLife <= 0 || elapsed <= 0 {
		return 1, true
	}
	exponent := float64(elapsed) / float64(halfLife)
	if exponent*math.Ln2 > expGuard {
		return math.Exp2(expGuard / math.Ln2), false
	}
	return math.Exp2(exponent), true
}

// GrowthAmount returns rate*elapsed for a per-day growth rate and an
// already time-scaled elapsed span. Used by need dimensions, whose
// deltas build up instead of decaying.
func GrowthAmount(rate float64, elapsed time.Duration) float64 {
	if rate == 0 || elapsed == 0 {
		return 0
	}
	return rate * (float64(elapsed) / float64(Day))
}
