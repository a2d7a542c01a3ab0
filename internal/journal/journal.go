// Package journal reads and writes JSONL life-history files: one JSON
// record per line describing an entity, a relationship, an anchor, or
// an event. Journals are the exchange format between databases; order
// matters only in that a subject's record must precede its anchor and
// events.
package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/lazypower/mindline/internal/params"
	"github.com/lazypower/mindline/internal/state"
	"github.com/lazypower/mindline/internal/store"
)

// Record kinds.
const (
	KindEntity       = "entity"
	KindRelationship = "relationship"
	KindAnchor       = "anchor"
	KindEvent        = "event"
)

// Record is one journal line. Kind selects which payload is set; Subject
// names the owning entity or relationship for anchors and events.
type Record struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject,omitempty"`

	Entity       *EntityRecord       `json:"entity,omitempty"`
	Relationship *RelationshipRecord `json:"relationship,omitempty"`
	Anchor       *state.Snapshot     `json:"anchor,omitempty"`
	Event        *state.EventEffect  `json:"event,omitempty"`
}

// EntityRecord is the journal form of an entity.
type EntityRecord struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name"`
	Species    params.Species `json:"species"`
	Birth      time.Time      `json:"birth"`
	Dimensions []string       `json:"dimensions,omitempty"`
}

// RelationshipRecord is the journal form of a pair.
type RelationshipRecord struct {
	ID         string   `json:"id,omitempty"`
	EntityA    string   `json:"entity_a"`
	EntityB    string   `json:"entity_b"`
	Dimensions []string `json:"dimensions,omitempty"`
}

// Stats counts what an import did.
type Stats struct {
	Entities      int
	Relationships int
	Anchors       int
	Events        int
	Skipped       int
}

// Import reads a journal and writes its records into the store. Blank
// and malformed lines are skipped and counted; store rejections (unknown
// subject, duplicate anchor, colliding id) abort with the line number.
func Import(db *store.DB, r io.Reader) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB line buffer

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			stats.Skipped++
			continue
		}

		switch rec.Kind {
		case KindEntity:
			if rec.Entity == nil || rec.Entity.Name == "" {
				stats.Skipped++
				continue
			}
			e := &store.Entity{
				ID:         rec.Entity.ID,
				Name:       rec.Entity.Name,
				Species:    rec.Entity.Species,
				Birth:      rec.Entity.Birth,
				Dimensions: rec.Entity.Dimensions,
			}
			if err := db.CreateEntity(e); err != nil {
				return stats, fmt.Errorf("line %d: create entity: %w", line, err)
			}
			stats.Entities++

		case KindRelationship:
			if rec.Relationship == nil {
				stats.Skipped++
				continue
			}
			rel := &store.Relationship{
				ID:         rec.Relationship.ID,
				EntityLo:   rec.Relationship.EntityA,
				EntityHi:   rec.Relationship.EntityB,
				Dimensions: rec.Relationship.Dimensions,
			}
			if err := db.CreateRelationship(rel); err != nil {
				return stats, fmt.Errorf("line %d: create relationship: %w", line, err)
			}
			stats.Relationships++

		case KindAnchor:
			if rec.Anchor == nil || rec.Subject == "" {
				stats.Skipped++
				continue
			}
			if err := db.SetAnchor(rec.Subject, *rec.Anchor); err != nil {
				return stats, fmt.Errorf("line %d: set anchor: %w", line, err)
			}
			stats.Anchors++

		case KindEvent:
			if rec.Event == nil || rec.Subject == "" {
				stats.Skipped++
				continue
			}
			eff := *rec.Event
			if err := db.AddEvent(rec.Subject, &eff); err != nil {
				return stats, fmt.Errorf("line %d: add event: %w", line, err)
			}
			stats.Events++

		default:
			stats.Skipped++
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan journal: %w", err)
	}
	return stats, nil
}

// Export writes the whole store as a journal: entities, then
// relationships, then each subject's anchor and events. The output
// imports cleanly into an empty database.
func Export(db *store.DB, w io.Writer) error {
	enc := json.NewEncoder(w)

	entities, err := db.ListEntities()
	if err != nil {
		return err
	}
	for _, e := range entities {
		rec := Record{Kind: KindEntity, Entity: &EntityRecord{
			ID:         e.ID,
			Name:       e.Name,
			Species:    e.Species,
			Birth:      e.Birth,
			Dimensions: e.Dimensions,
		}}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write entity: %w", err)
		}
	}

	rels, err := db.ListRelationships()
	if err != nil {
		return err
	}
	for _, rel := range rels {
		rec := Record{Kind: KindRelationship, Relationship: &RelationshipRecord{
			ID:         rel.ID,
			EntityA:    rel.EntityLo,
			EntityB:    rel.EntityHi,
			Dimensions: rel.Dimensions,
		}}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write relationship: %w", err)
		}
	}

	subjects := make([]string, 0, len(entities)+len(rels))
	for _, e := range entities {
		subjects = append(subjects, e.ID)
	}
	for _, rel := range rels {
		subjects = append(subjects, rel.ID)
	}

	for _, id := range subjects {
		anchor, err := db.GetAnchor(id)
		if err != nil {
			return err
		}
		if anchor != nil {
			rec := Record{Kind: KindAnchor, Subject: id, Anchor: &anchor.Snapshot}
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("write anchor: %w", err)
			}
		}

		events, err := db.ListEvents(id)
		if err != nil {
			return err
		}
		for i := range events {
			rec := Record{Kind: KindEvent, Subject: id, Event: &events[i]}
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("write event: %w", err)
			}
		}
	}
	return nil
}
