package store

import (
	"errors"
	"testing"
	"time"

	"github.com/lazypower/mindline/internal/state"
)

func testAnchorSnapshot(at time.Time) state.Snapshot {
	return state.Snapshot{
		At: at,
		Values: map[state.DimensionID]state.Value{
			state.Purpose: {Base: 0.7, Delta: -0.2},
			state.Stress:  {Base: 0.2, Delta: 0.1, ChronicDelta: 0.05},
		},
	}
}

func TestSetAnchor(t *testing.T) {
	db := testDB(t)

	e := &Entity{Name: "ada", Species: testHuman()}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	at := time.Date(2024, time.August, 20, 12, 0, 0, 0, time.UTC)
	if err := db.SetAnchor(e.ID, testAnchorSnapshot(at)); err != nil {
		t.Fatalf("SetAnchor: %v", err)
	}

	a, err := db.GetAnchor(e.ID)
	if err != nil {
		t.Fatalf("GetAnchor: %v", err)
	}
	if a == nil {
		t.Fatal("expected anchor, got nil")
	}
	if !a.Snapshot.At.Equal(at) {
		t.Errorf("snapshot at = %v, want %v", a.Snapshot.At, at)
	}
	v := a.Snapshot.Values[state.Purpose]
	if v.Base != 0.7 || v.Delta != -0.2 {
		t.Errorf("purpose = %+v, want {0.7 -0.2}", v)
	}
	if a.Snapshot.Values[state.Stress].ChronicDelta != 0.05 {
		t.Errorf("stress chronic = %v, want 0.05", a.Snapshot.Values[state.Stress].ChronicDelta)
	}
}

func TestSetAnchorTwice(t *testing.T) {
	db := testDB(t)

	e := &Entity{Name: "ada", Species: testHuman()}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	at := time.Date(2024, time.August, 20, 12, 0, 0, 0, time.UTC)
	if err := db.SetAnchor(e.ID, testAnchorSnapshot(at)); err != nil {
		t.Fatalf("first SetAnchor: %v", err)
	}

	err := db.SetAnchor(e.ID, testAnchorSnapshot(at.Add(time.Hour)))
	if !errors.Is(err, state.ErrAnchorExists) {
		t.Errorf("second SetAnchor error = %v, want ErrAnchorExists", err)
	}
}

func TestSetAnchorUnknownSubject(t *testing.T) {
	db := testDB(t)

	at := time.Date(2024, time.August, 20, 12, 0, 0, 0, time.UTC)
	err := db.SetAnchor("missing", testAnchorSnapshot(at))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SetAnchor error = %v, want ErrNotFound", err)
	}
}

func TestGetAnchorMissing(t *testing.T) {
	db := testDB(t)

	a, err := db.GetAnchor("missing")
	if err != nil {
		t.Fatalf("GetAnchor: %v", err)
	}
	if a != nil {
		t.Error("expected nil for subject with no anchor")
	}
}
