package store

import (
	"errors"
	"testing"
	"time"

	"github.com/lazypower/mindline/internal/state"
)

func TestAddEvent(t *testing.T) {
	db := testDB(t)

	e := &Entity{Name: "ada", Species: testHuman()}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	eff := &state.EventEffect{
		At:     time.Date(2024, time.August, 21, 9, 0, 0, 0, time.UTC),
		Label:  "long walk",
		Deltas: map[state.DimensionID]float64{state.MoodValence: 0.3},
	}
	if err := db.AddEvent(e.ID, eff); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if eff.ID == "" {
		t.Error("expected assigned effect id")
	}
}

func TestAddEventUnknownSubject(t *testing.T) {
	db := testDB(t)

	eff := &state.EventEffect{At: time.Now()}
	err := db.AddEvent("missing", eff)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("AddEvent error = %v, want ErrNotFound", err)
	}
}

func TestListEventsChronological(t *testing.T) {
	db := testDB(t)

	e := &Entity{Name: "ada", Species: testHuman()}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	base := time.Date(2024, time.August, 21, 0, 0, 0, 0, time.UTC)
	// Inserted out of order; listing must come back chronological.
	for _, eff := range []*state.EventEffect{
		{ID: "evt-late", At: base.Add(48 * time.Hour)},
		{ID: "evt-early", At: base},
		{ID: "evt-mid", At: base.Add(24 * time.Hour)},
	} {
		if err := db.AddEvent(e.ID, eff); err != nil {
			t.Fatalf("AddEvent %s: %v", eff.ID, err)
		}
	}

	effects, err := db.ListEvents(e.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	want := []string{"evt-early", "evt-mid", "evt-late"}
	if len(effects) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(effects))
	}
	for i, id := range want {
		if effects[i].ID != id {
			t.Errorf("effects[%d].ID = %q, want %q", i, effects[i].ID, id)
		}
	}
}

func TestListEventsTiesKeepInsertionOrder(t *testing.T) {
	db := testDB(t)

	e := &Entity{Name: "ada", Species: testHuman()}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	at := time.Date(2024, time.August, 21, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"evt-first", "evt-second"} {
		if err := db.AddEvent(e.ID, &state.EventEffect{ID: id, At: at}); err != nil {
			t.Fatalf("AddEvent %s: %v", id, err)
		}
	}

	effects, err := db.ListEvents(e.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(effects) != 2 || effects[0].ID != "evt-first" || effects[1].ID != "evt-second" {
		t.Errorf("tie order = %v, want insertion order", []string{effects[0].ID, effects[1].ID})
	}
}

func TestListEventsRoundTrip(t *testing.T) {
	db := testDB(t)

	e := &Entity{Name: "ada", Species: testHuman()}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	at := time.Date(2024, time.August, 21, 9, 30, 0, 0, time.UTC)
	eff := &state.EventEffect{
		At:            at,
		Label:         "layoff",
		Deltas:        map[state.DimensionID]float64{state.Stress: 0.4, state.MoodValence: -0.5},
		ChronicDeltas: map[state.DimensionID]float64{state.Stress: 0.2},
		Shifts:        []state.ShiftRequest{{Trait: state.Emotionality, Magnitude: -0.3}},
	}
	if err := db.AddEvent(e.ID, eff); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	effects, err := db.ListEvents(e.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(effects) != 1 {
		t.Fatalf("expected 1 event, got %d", len(effects))
	}

	got := effects[0]
	if !got.At.Equal(at) {
		t.Errorf("at = %v, want %v", got.At, at)
	}
	if got.Label != "layoff" {
		t.Errorf("label = %q, want layoff", got.Label)
	}
	if got.Deltas[state.Stress] != 0.4 || got.Deltas[state.MoodValence] != -0.5 {
		t.Errorf("deltas = %v", got.Deltas)
	}
	if got.ChronicDeltas[state.Stress] != 0.2 {
		t.Errorf("chronic deltas = %v", got.ChronicDeltas)
	}
	if len(got.Shifts) != 1 || got.Shifts[0].Trait != state.Emotionality || got.Shifts[0].Magnitude != -0.3 {
		t.Errorf("shifts = %v", got.Shifts)
	}
}

func TestListEventsEmptyChannelsStayNil(t *testing.T) {
	db := testDB(t)

	e := &Entity{Name: "ada", Species: testHuman()}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	eff := &state.EventEffect{At: time.Date(2024, time.August, 21, 9, 0, 0, 0, time.UTC)}
	if err := db.AddEvent(e.ID, eff); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	effects, err := db.ListEvents(e.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	got := effects[0]
	if got.Deltas != nil || got.ChronicDeltas != nil || got.Shifts != nil {
		t.Errorf("empty channels should stay nil, got %+v", got)
	}
	if !got.Empty() {
		t.Error("expected Empty() for effect with no channels")
	}
}

func TestCountEvents(t *testing.T) {
	db := testDB(t)

	e := &Entity{Name: "ada", Species: testHuman()}
	if err := db.CreateEntity(e); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	n, err := db.CountEvents(e.ID)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}

	at := time.Date(2024, time.August, 21, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		eff := &state.EventEffect{At: at.Add(time.Duration(i) * time.Hour)}
		if err := db.AddEvent(e.ID, eff); err != nil {
			t.Fatalf("AddEvent: %v", err)
		}
	}

	n, err = db.CountEvents(e.ID)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}
