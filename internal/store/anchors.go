package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lazypower/mindline/internal/state"
)

// Anchor is the single pinned snapshot all of a subject's state queries
// radiate from. One per subject, enforced by the UNIQUE column.
type Anchor struct {
	SubjectID string
	Snapshot  state.Snapshot
	CreatedAt int64
}

// SetAnchor pins the snapshot for a subject. A second pin fails with
// state.ErrAnchorExists. Writers must be serialized per subject; the
// UNIQUE constraint backs the check-then-insert against stray callers.
func (db *DB) SetAnchor(subjectID string, snap state.Snapshot) error {
	ok, err := db.subjectExists(subjectID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("anchor for %s: %w", subjectID, ErrNotFound)
	}

	existing, err := db.GetAnchor(subjectID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("anchor for %s: %w", subjectID, state.ErrAnchorExists)
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO anchors (subject_id, at, snapshot, created_at)
		VALUES (?, ?, ?, ?)
	`, subjectID, snap.At.UnixMilli(), string(raw), now)
	if err != nil {
		return fmt.Errorf("set anchor: %w", err)
	}
	return nil
}

// GetAnchor returns the subject's anchor, or nil if none is pinned.
func (db *DB) GetAnchor(subjectID string) (*Anchor, error) {
	var a Anchor
	var raw string
	err := db.QueryRow(`
		SELECT subject_id, snapshot, created_at FROM anchors WHERE subject_id = ?
	`, subjectID).Scan(&a.SubjectID, &raw, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get anchor: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &a.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", subjectID, err)
	}
	return &a, nil
}
