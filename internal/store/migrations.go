package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "entities: individuals with species parameters and active dimensions",
		SQL: `
CREATE TABLE entities (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    species      TEXT NOT NULL,
    birth        INTEGER NOT NULL,
    dimensions   TEXT NOT NULL DEFAULT '[]',
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
);

CREATE INDEX idx_entities_name ON entities(name);
`,
	},
	{
		Version:     2,
		Description: "anchors: one pinned state snapshot per subject",
		SQL: `
CREATE TABLE anchors (
    id           INTEGER PRIMARY KEY,
    subject_id   TEXT NOT NULL UNIQUE,
    at           INTEGER NOT NULL,
    snapshot     TEXT NOT NULL,
    created_at   INTEGER NOT NULL
);
`,
	},
	{
		Version:     3,
		Description: "events: timestamped effects per subject, insertion order by rowid",
		SQL: `
CREATE TABLE events (
    id             TEXT PRIMARY KEY,
    subject_id     TEXT NOT NULL,
    at             INTEGER NOT NULL,
    label          TEXT,
    deltas         TEXT,
    chronic_deltas TEXT,
    shifts         TEXT,
    created_at     INTEGER NOT NULL
);

CREATE INDEX idx_events_subject ON events(subject_id, at);
`,
	},
	{
		Version:     4,
		Description: "relationships: unordered entity pairs with their own dimension set",
		SQL: `
CREATE TABLE relationships (
    id           TEXT PRIMARY KEY,
    entity_lo    TEXT NOT NULL,
    entity_hi    TEXT NOT NULL,
    dimensions   TEXT NOT NULL DEFAULT '[]',
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL,

    FOREIGN KEY (entity_lo) REFERENCES entities(id),
    FOREIGN KEY (entity_hi) REFERENCES entities(id),
    UNIQUE (entity_lo, entity_hi),
    CHECK (entity_lo < entity_hi)
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
