package state

import "time"

// EventEffect is one event's pre-interpreted impact on an entity:
// transient deltas per dimension, optional chronic deltas, and permanent
// base-shift requests on traits. Effects arrive from an upstream
// interpreter and are consumed opaquely by the engine.
type EventEffect struct {
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
	Label string    `json:"label,omitempty"`

	Deltas        map[DimensionID]float64 `json:"deltas,omitempty"`
	ChronicDeltas map[DimensionID]float64 `json:"chronic_deltas,omitempty"`
	Shifts        []ShiftRequest          `json:"shifts,omitempty"`
}

// Empty reports whether the effect changes nothing.
func (e EventEffect) Empty() bool {
	return len(e.Deltas) == 0 && len(e.ChronicDeltas) == 0 && len(e.Shifts) == 0
}

// Touches reports whether the effect references the given dimension
// through any channel.
func (e EventEffect) Touches(id DimensionID) bool {
	if _, ok := e.Deltas[id]; ok {
		return true
	}
	if _, ok := e.ChronicDeltas[id]; ok {
		return true
	}
	for _, s := range e.Shifts {
		if s.Trait == id {
			return true
		}
	}
	return false
}
