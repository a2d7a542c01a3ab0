package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/mindline/internal/state"
)

// AddEvent stores one effect row for a subject. Assigns a fresh effect
// id when none is set. The effect is stored as authored; validation
// against the subject's active set happens in the engine layer.
func (db *DB) AddEvent(subjectID string, eff *state.EventEffect) error {
	ok, err := db.subjectExists(subjectID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("event for %s: %w", subjectID, ErrNotFound)
	}
	if eff.ID == "" {
		eff.ID = uuid.NewString()
	}

	deltas, err := encodeDeltas(eff.Deltas)
	if err != nil {
		return fmt.Errorf("marshal deltas: %w", err)
	}
	chronic, err := encodeDeltas(eff.ChronicDeltas)
	if err != nil {
		return fmt.Errorf("marshal chronic deltas: %w", err)
	}
	shifts := ""
	if len(eff.Shifts) > 0 {
		raw, err := json.Marshal(eff.Shifts)
		if err != nil {
			return fmt.Errorf("marshal shifts: %w", err)
		}
		shifts = string(raw)
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO events (id, subject_id, at, label, deltas, chronic_deltas, shifts, created_at)
		VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?)
	`, eff.ID, subjectID, eff.At.UnixMilli(), eff.Label, deltas, chronic, shifts, now)
	if err != nil {
		return fmt.Errorf("add event: %w", err)
	}
	return nil
}

// ListEvents returns every effect for a subject in chronological order,
// ties broken by insertion order.
func (db *DB) ListEvents(subjectID string) ([]state.EventEffect, error) {
	rows, err := db.Query(`
		SELECT id, at, label, deltas, chronic_deltas, shifts
		FROM events WHERE subject_id = ? ORDER BY at, rowid
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var effects []state.EventEffect
	for rows.Next() {
		var eff state.EventEffect
		var at int64
		var label, deltas, chronic, shifts sql.NullString
		if err := rows.Scan(&eff.ID, &at, &label, &deltas, &chronic, &shifts); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		eff.At = time.UnixMilli(at).UTC()
		eff.Label = label.String
		if deltas.Valid {
			if err := json.Unmarshal([]byte(deltas.String), &eff.Deltas); err != nil {
				return nil, fmt.Errorf("decode deltas for %s: %w", eff.ID, err)
			}
		}
		if chronic.Valid {
			if err := json.Unmarshal([]byte(chronic.String), &eff.ChronicDeltas); err != nil {
				return nil, fmt.Errorf("decode chronic deltas for %s: %w", eff.ID, err)
			}
		}
		if shifts.Valid {
			if err := json.Unmarshal([]byte(shifts.String), &eff.Shifts); err != nil {
				return nil, fmt.Errorf("decode shifts for %s: %w", eff.ID, err)
			}
		}
		effects = append(effects, eff)
	}
	return effects, rows.Err()
}

// CountEvents returns the number of stored effects for a subject.
func (db *DB) CountEvents(subjectID string) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM events WHERE subject_id = ?
	`, subjectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func encodeDeltas(m map[state.DimensionID]float64) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
