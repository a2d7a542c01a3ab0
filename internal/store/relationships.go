package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/mindline/internal/params"
)

// ErrPairExists reports an attempt to store a second relationship for
// the same entity pair.
var ErrPairExists = errors.New("relationship already exists")

// Relationship is a stored unordered entity pair. It carries its own
// anchor, events, and dimension set, keyed by its id like an entity.
// EntityLo and EntityHi hold the pair in lexical order so (a, b) and
// (b, a) land on the same row.
type Relationship struct {
	ID         string
	EntityLo   string
	EntityHi   string
	Dimensions []string
	CreatedAt  int64
	UpdatedAt  int64
}

// CanonicalPair orders two entity ids into the stored (lo, hi) form.
func CanonicalPair(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}

// CreateRelationship inserts a pair. Both entities must exist, the pair
// must be distinct, and each pair is stored at most once.
func (db *DB) CreateRelationship(r *Relationship) error {
	if r.EntityLo == r.EntityHi {
		return fmt.Errorf("relationship needs two distinct entities")
	}
	r.EntityLo, r.EntityHi = CanonicalPair(r.EntityLo, r.EntityHi)

	for _, id := range []string{r.EntityLo, r.EntityHi} {
		ent, err := db.GetEntity(id)
		if err != nil {
			return err
		}
		if ent == nil {
			return fmt.Errorf("relationship entity %s: %w", id, ErrNotFound)
		}
	}

	existing, err := db.GetRelationshipByPair(r.EntityLo, r.EntityHi)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("pair (%s, %s): %w", r.EntityLo, r.EntityHi, ErrPairExists)
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	// An empty set must fall to the relationship group here; the
	// individual-group default the resolver applies would be wrong.
	if len(r.Dimensions) == 0 {
		r.Dimensions = []string{params.GroupRelationship}
	}
	dims, err := encodeStrings(r.Dimensions)
	if err != nil {
		return fmt.Errorf("marshal dimensions: %w", err)
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO relationships (id, entity_lo, entity_hi, dimensions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.EntityLo, r.EntityHi, dims, now, now)
	if err != nil {
		return fmt.Errorf("create relationship: %w", err)
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetRelationship returns a relationship by id, or nil if not found.
func (db *DB) GetRelationship(id string) (*Relationship, error) {
	var r Relationship
	var dims string
	err := db.QueryRow(`
		SELECT id, entity_lo, entity_hi, dimensions, created_at, updated_at
		FROM relationships WHERE id = ?
	`, id).Scan(&r.ID, &r.EntityLo, &r.EntityHi, &dims, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	r.Dimensions = decodeStrings(dims)
	return &r, nil
}

// GetRelationshipByPair returns the relationship between two entities in
// either order, or nil if none exists.
func (db *DB) GetRelationshipByPair(a, b string) (*Relationship, error) {
	lo, hi := CanonicalPair(a, b)
	var r Relationship
	var dims string
	err := db.QueryRow(`
		SELECT id, entity_lo, entity_hi, dimensions, created_at, updated_at
		FROM relationships WHERE entity_lo = ? AND entity_hi = ?
	`, lo, hi).Scan(&r.ID, &r.EntityLo, &r.EntityHi, &dims, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get relationship by pair: %w", err)
	}
	r.Dimensions = decodeStrings(dims)
	return &r, nil
}

// ListRelationshipsFor returns every relationship touching an entity.
func (db *DB) ListRelationshipsFor(entityID string) ([]Relationship, error) {
	rows, err := db.Query(`
		SELECT id, entity_lo, entity_hi, dimensions, created_at, updated_at
		FROM relationships WHERE entity_lo = ? OR entity_hi = ?
		ORDER BY created_at, id
	`, entityID, entityID)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()
	return scanRelationships(rows)
}

// ListRelationships returns all relationships in creation order.
func (db *DB) ListRelationships() ([]Relationship, error) {
	rows, err := db.Query(`
		SELECT id, entity_lo, entity_hi, dimensions, created_at, updated_at
		FROM relationships ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()
	return scanRelationships(rows)
}

func scanRelationships(rows *sql.Rows) ([]Relationship, error) {
	var rels []Relationship
	for rows.Next() {
		var r Relationship
		var dims string
		if err := rows.Scan(&r.ID, &r.EntityLo, &r.EntityHi, &dims, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		r.Dimensions = decodeStrings(dims)
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
