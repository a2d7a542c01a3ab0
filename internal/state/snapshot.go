package state

import (
	"sort"
	"time"
)

// Snapshot is a complete materialized state at one instant: a Value for
// every active dimension. Anchors are snapshots; query results wrap one.
type Snapshot struct {
	At     time.Time             `json:"at"`
	Values map[DimensionID]Value `json:"values"`
}

// NewSnapshot materializes a snapshot at t with every listed dimension
// at its default value.
func NewSnapshot(t time.Time, reg *Registry, active []DimensionID) Snapshot {
	values := make(map[DimensionID]Value, len(active))
	for _, id := range active {
		if spec, ok := reg.Spec(id); ok {
			values[id] = spec.DefaultValue()
		}
	}
	return Snapshot{At: t, Values: values}
}

// Clone returns an independent copy. The engine clones the anchor before
// stepping so the caller's snapshot is never mutated.
func (s Snapshot) Clone() Snapshot {
	values := make(map[DimensionID]Value, len(s.Values))
	for id, v := range s.Values {
		values[id] = v
	}
	return Snapshot{At: s.At, Values: values}
}

// Dimensions returns the snapshot's dimension ids in sorted order.
func (s Snapshot) Dimensions() []DimensionID {
	ids := make([]DimensionID, 0, len(s.Values))
	for id := range s.Values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Value returns the stored value for id, or the zero Value.
func (s Snapshot) Value(id DimensionID) Value {
	return s.Values[id]
}

// Effective returns the clamped effective value for id under spec.
func (s Snapshot) Effective(id DimensionID, reg *Registry) float64 {
	spec, ok := reg.Spec(id)
	if !ok {
		return 0
	}
	return s.Values[id].Effective(spec)
}
