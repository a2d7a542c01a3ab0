package state

import "time"

// settlingHalfLifeDivisor converts a settling duration into the half-life
// of the exponential approach: after six half-lives the remaining excess
// is ~1.5%, so the contribution has effectively reached its settled value
// by the end of the window.
const settlingHalfLifeDivisor = 6

// ShiftRequest asks for a permanent base shift on a trait. Magnitude is
// the raw requested shift before age/stability/saturation attenuation.
type ShiftRequest struct {
	Trait     DimensionID `json:"trait"`
	Magnitude float64     `json:"magnitude"`
}

// ShiftRecord is the permanent outcome of one formative event on one
// trait. Immutable once created; never deleted. Its contribution to the
// trait's effective base is time-dependent: severe records settle from
// Immediate toward Settled, everything else contributes Immediate
// forever.
//
// Invariant: |Settled| <= |Immediate|. Non-severe records have
// Settled == Immediate and SettlingDuration == 0.
type ShiftRecord struct {
	Trait            DimensionID   `json:"trait"`
	At               time.Time     `json:"at"`
	Requested        float64       `json:"requested"`
	Immediate        float64       `json:"immediate"`
	Settled          float64       `json:"settled"`
	SettlingDuration time.Duration `json:"settling_duration,omitempty"`
}

// Severe reports whether this record carries a settling curve.
func (r ShiftRecord) Severe() bool {
	return r.SettlingDuration > 0
}

// ContributionAt returns the record's contribution to effective base at
// time t. Zero strictly before the record's own timestamp; afterwards an
// exponential approach from Immediate toward Settled over the settling
// window, time-scaled like every other temporal process.
func (r ShiftRecord) ContributionAt(t time.Time, timeScale float64) float64 {
	if t.Before(r.At) {
		return 0
	}
	if !r.Severe() {
		return r.Settled
	}
	halfLife := r.SettlingDuration / settlingHalfLifeDivisor
	elapsed := ScaleElapsed(t.Sub(r.At), timeScale)
	return r.Settled + (r.Immediate-r.Settled)*DecayFactor(elapsed, halfLife)
}
