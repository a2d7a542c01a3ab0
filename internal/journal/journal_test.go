package journal

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/mindline/internal/params"
	"github.com/lazypower/mindline/internal/state"
	"github.com/lazypower/mindline/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestImport(t *testing.T) {
	db := testDB(t)

	lines := `{"kind":"entity","entity":{"id":"ent-1","name":"zoe","species":{"name":"human","kind":"human","lifespan_years":80,"maturity_years":25,"social_complexity":1},"birth":"1990-03-01T00:00:00Z","dimensions":["mood","needs"]}}
{"kind":"anchor","subject":"ent-1","anchor":{"at":"2024-01-01T00:00:00Z","values":{"stress":{"base":0.3,"delta":0.1}}}}
{"kind":"event","subject":"ent-1","event":{"id":"evt-1","at":"2024-01-02T00:00:00Z","label":"layoff","deltas":{"stress":0.4}}}`

	stats, err := Import(db, strings.NewReader(lines))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Entities != 1 || stats.Anchors != 1 || stats.Events != 1 {
		t.Errorf("stats = %+v, want 1 entity, 1 anchor, 1 event", stats)
	}
	if stats.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", stats.Skipped)
	}

	e, err := db.GetEntity("ent-1")
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if e == nil {
		t.Fatal("entity not imported")
	}
	if e.Name != "zoe" || e.Species.Name != "human" {
		t.Errorf("entity = %q/%q, want zoe/human", e.Name, e.Species.Name)
	}

	anchor, err := db.GetAnchor("ent-1")
	if err != nil {
		t.Fatalf("GetAnchor: %v", err)
	}
	if anchor == nil {
		t.Fatal("anchor not imported")
	}
	if got := anchor.Snapshot.Values[state.Stress]; !approx(got.Base, 0.3) || !approx(got.Delta, 0.1) {
		t.Errorf("stress = %+v, want base 0.3 delta 0.1", got)
	}

	events, err := db.ListEvents("ent-1")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Label != "layoff" {
		t.Errorf("label = %q, want layoff", events[0].Label)
	}
}

func TestImportSkipsMalformed(t *testing.T) {
	db := testDB(t)

	lines := `this is not json
{"kind":"entity","entity":{"id":"ent-1","name":"zoe","species":{"name":"human","kind":"human","lifespan_years":80,"maturity_years":25,"social_complexity":1},"birth":"1990-03-01T00:00:00Z"}}
{"kind":"mystery"}
{"kind":"entity"}

{"kind":"anchor","anchor":{"at":"2024-01-01T00:00:00Z","values":{}}}`

	stats, err := Import(db, strings.NewReader(lines))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Entities != 1 {
		t.Errorf("entities = %d, want 1", stats.Entities)
	}
	// Bad JSON, unknown kind, payload-less entity, subject-less anchor.
	if stats.Skipped != 4 {
		t.Errorf("skipped = %d, want 4", stats.Skipped)
	}
}

func TestImportUnknownSubject(t *testing.T) {
	db := testDB(t)

	lines := `{"kind":"event","subject":"ghost","event":{"at":"2024-01-02T00:00:00Z","deltas":{"stress":0.4}}}`

	_, err := Import(db, strings.NewReader(lines))
	if err == nil {
		t.Fatal("expected error for unknown subject")
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	db := testDB(t)
	pp := params.Default()
	human, _ := pp.SpeciesByName("human")
	dog, _ := pp.SpeciesByName("dog")

	ada := &store.Entity{Name: "ada", Species: human, Birth: time.Date(1992, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := db.CreateEntity(ada); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	mia := &store.Entity{Name: "mia", Species: dog, Birth: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)}
	if err := db.CreateEntity(mia); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	rel := &store.Relationship{EntityLo: ada.ID, EntityHi: mia.ID}
	if err := db.CreateRelationship(rel); err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	active, _ := pp.ResolveSet(nil)
	snap := state.NewSnapshot(at, pp.Registry, active)
	snap.Values[state.MoodValence] = state.Value{Base: 0.2, Delta: 0.5}
	if err := db.SetAnchor(ada.ID, snap); err != nil {
		t.Fatalf("SetAnchor: %v", err)
	}

	relActive, _ := pp.ResolveSet([]string{params.GroupRelationship})
	relSnap := state.NewSnapshot(at, pp.Registry, relActive)
	if err := db.SetAnchor(rel.ID, relSnap); err != nil {
		t.Fatalf("SetAnchor relationship: %v", err)
	}

	evts := []state.EventEffect{
		{At: at.Add(24 * time.Hour), Label: "promotion", Deltas: map[state.DimensionID]float64{state.MoodValence: 0.4}},
		{At: at.Add(48 * time.Hour), Label: "walk", Deltas: map[state.DimensionID]float64{state.RelAffinity: 0.2}},
	}
	if err := db.AddEvent(ada.ID, &evts[0]); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if err := db.AddEvent(rel.ID, &evts[1]); err != nil {
		t.Fatalf("AddEvent relationship: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(db, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	fresh := testDB(t)
	stats, err := Import(fresh, &buf)
	if err != nil {
		t.Fatalf("Import exported journal: %v", err)
	}
	if stats.Entities != 2 || stats.Relationships != 1 || stats.Anchors != 2 || stats.Events != 2 {
		t.Errorf("stats = %+v, want 2/1/2/2", stats)
	}
	if stats.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", stats.Skipped)
	}

	got, err := fresh.GetEntity(ada.ID)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got == nil || got.Name != "ada" {
		t.Fatalf("ada not round-tripped: %+v", got)
	}
	if !got.Birth.Equal(ada.Birth) {
		t.Errorf("birth = %v, want %v", got.Birth, ada.Birth)
	}

	anchor, err := fresh.GetAnchor(ada.ID)
	if err != nil {
		t.Fatalf("GetAnchor: %v", err)
	}
	if anchor == nil {
		t.Fatal("ada anchor missing after round trip")
	}
	if got := anchor.Snapshot.Values[state.MoodValence]; !approx(got.Base, 0.2) || !approx(got.Delta, 0.5) {
		t.Errorf("mood_valence = %+v, want base 0.2 delta 0.5", got)
	}

	gotRel, err := fresh.GetRelationshipByPair(mia.ID, ada.ID)
	if err != nil {
		t.Fatalf("GetRelationshipByPair: %v", err)
	}
	if gotRel == nil || gotRel.ID != rel.ID {
		t.Fatalf("relationship not round-tripped: %+v", gotRel)
	}

	relEvents, err := fresh.ListEvents(rel.ID)
	if err != nil {
		t.Fatalf("ListEvents relationship: %v", err)
	}
	if len(relEvents) != 1 || relEvents[0].Label != "walk" {
		t.Errorf("relationship events = %+v, want one walk event", relEvents)
	}
}
