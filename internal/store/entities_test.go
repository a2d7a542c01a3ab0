package store

import (
	"testing"
	"time"

	"github.com/lazypower/mindline/internal/params"
)

func TestCreateEntity(t *testing.T) {
	db := testDB(t)

	e := &Entity{
		Name:    "ada",
		Species: testHuman(),
		Birth:   time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	if e.ID == "" {
		t.Error("expected assigned id")
	}
	if e.CreatedAt == 0 || e.UpdatedAt == 0 {
		t.Error("expected timestamps to be set")
	}
}

func TestCreateEntityKeepsID(t *testing.T) {
	db := testDB(t)

	e := &Entity{ID: "ent-fixed", Name: "ada", Species: testHuman()}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	if e.ID != "ent-fixed" {
		t.Errorf("id = %q, want ent-fixed", e.ID)
	}
}

func TestGetEntity(t *testing.T) {
	db := testDB(t)

	// Not found
	e, err := db.GetEntity("missing")
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if e != nil {
		t.Error("expected nil for missing entity")
	}

	birth := time.Date(2018, time.March, 1, 0, 0, 0, 0, time.UTC)
	created := &Entity{
		Name:       "rex",
		Species:    params.Species{Name: "dog", Kind: params.KindAnimal, LifespanYears: 12, MaturityYears: 2, SocialComplexity: 0.7},
		Birth:      birth,
		Dimensions: []string{"mood", "needs"},
	}
	if err := db.CreateEntity(created); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	found, err := db.GetEntity(created.ID)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if found == nil {
		t.Fatal("expected entity, got nil")
	}
	if found.Name != "rex" {
		t.Errorf("name = %q, want rex", found.Name)
	}
	if found.Species.Name != "dog" || found.Species.LifespanYears != 12 {
		t.Errorf("species = %+v, want dog with lifespan 12", found.Species)
	}
	if !found.Birth.Equal(birth) {
		t.Errorf("birth = %v, want %v", found.Birth, birth)
	}
	if len(found.Dimensions) != 2 || found.Dimensions[0] != "mood" {
		t.Errorf("dimensions = %v, want [mood needs]", found.Dimensions)
	}
}

func TestGetEntityByName(t *testing.T) {
	db := testDB(t)

	e := &Entity{Name: "ada", Species: testHuman()}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	found, err := db.GetEntityByName("ada")
	if err != nil {
		t.Fatalf("GetEntityByName: %v", err)
	}
	if found == nil || found.ID != e.ID {
		t.Fatalf("expected entity %s, got %+v", e.ID, found)
	}

	missing, err := db.GetEntityByName("nobody")
	if err != nil {
		t.Fatalf("GetEntityByName: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown name")
	}
}

func TestListEntities(t *testing.T) {
	db := testDB(t)

	for _, name := range []string{"zoe", "ada", "mia"} {
		if err := db.CreateEntity(&Entity{Name: name, Species: testHuman()}); err != nil {
			t.Fatalf("CreateEntity %s: %v", name, err)
		}
	}

	entities, err := db.ListEntities()
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(entities))
	}
	want := []string{"ada", "mia", "zoe"}
	for i, name := range want {
		if entities[i].Name != name {
			t.Errorf("entities[%d].Name = %q, want %q", i, entities[i].Name, name)
		}
	}
}

func testHuman() params.Species {
	return params.Species{
		Name:             "human",
		Kind:             params.KindHuman,
		LifespanYears:    80,
		MaturityYears:    25,
		SocialComplexity: 1,
	}
}

// testDB is a helper that creates an in-memory DB for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
