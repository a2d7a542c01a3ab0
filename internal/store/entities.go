package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/mindline/internal/params"
)

// ErrNotFound reports a subject id that names neither a stored entity
// nor a stored relationship.
var ErrNotFound = errors.New("subject not found")

// Entity is a stored individual: identity, species parameters, birth,
// and the dimension set its state queries resolve against. Dimensions
// holds group names or dimension ids; the params pack expands them at
// query time.
type Entity struct {
	ID         string
	Name       string
	Species    params.Species
	Birth      time.Time
	Dimensions []string
	CreatedAt  int64
	UpdatedAt  int64
}

// CreateEntity inserts a new entity. Assigns a fresh id when none is set.
func (db *DB) CreateEntity(e *Entity) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	species, err := json.Marshal(e.Species)
	if err != nil {
		return fmt.Errorf("marshal species: %w", err)
	}
	dims, err := encodeStrings(e.Dimensions)
	if err != nil {
		return fmt.Errorf("marshal dimensions: %w", err)
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO entities (id, name, species, birth, dimensions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Name, string(species), e.Birth.UnixMilli(), dims, now, now)
	if err != nil {
		return fmt.Errorf("create entity: %w", err)
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetEntity returns an entity by id, or nil if not found.
func (db *DB) GetEntity(id string) (*Entity, error) {
	var e Entity
	var species, dims string
	var birth int64
	err := db.QueryRow(`
		SELECT id, name, species, birth, dimensions, created_at, updated_at
		FROM entities WHERE id = ?
	`, id).Scan(&e.ID, &e.Name, &species, &birth, &dims, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	if err := decodeEntity(&e, species, birth, dims); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEntityByName returns the oldest entity with the given name, or nil
// if not found. Names are not unique; id lookup is the precise form.
func (db *DB) GetEntityByName(name string) (*Entity, error) {
	var e Entity
	var species, dims string
	var birth int64
	err := db.QueryRow(`
		SELECT id, name, species, birth, dimensions, created_at, updated_at
		FROM entities WHERE name = ? ORDER BY created_at LIMIT 1
	`, name).Scan(&e.ID, &e.Name, &species, &birth, &dims, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity by name: %w", err)
	}
	if err := decodeEntity(&e, species, birth, dims); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEntities returns all entities ordered by name.
func (db *DB) ListEntities() ([]Entity, error) {
	rows, err := db.Query(`
		SELECT id, name, species, birth, dimensions, created_at, updated_at
		FROM entities ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// subjectExists reports whether id names a stored entity or relationship.
func (db *DB) subjectExists(id string) (bool, error) {
	var n int
	err := db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM entities WHERE id = ?) +
		       (SELECT COUNT(*) FROM relationships WHERE id = ?)
	`, id, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check subject: %w", err)
	}
	return n > 0, nil
}

func scanEntities(rows *sql.Rows) ([]Entity, error) {
	var entities []Entity
	for rows.Next() {
		var e Entity
		var species, dims string
		var birth int64
		if err := rows.Scan(&e.ID, &e.Name, &species, &birth, &dims, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		if err := decodeEntity(&e, species, birth, dims); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func decodeEntity(e *Entity, species string, birth int64, dims string) error {
	if err := json.Unmarshal([]byte(species), &e.Species); err != nil {
		return fmt.Errorf("decode species for %s: %w", e.ID, err)
	}
	e.Dimensions = decodeStrings(dims)
	e.Birth = time.UnixMilli(birth).UTC()
	return nil
}

// encodeStrings serializes a dimension list; nil stays the empty list.
func encodeStrings(s []string) (string, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeStrings is the inverse; malformed rows decode as the empty list.
func decodeStrings(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var s []string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil
	}
	return s
}
