package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/lazypower/mindline/internal/engine"
	"github.com/lazypower/mindline/internal/state"
	"github.com/lazypower/mindline/internal/store"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}
	at, err := queryTime(r)
	if err != nil {
		http.Error(w, `{"error":"invalid at: `+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	profile, err := s.entityProfile(e)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	result, err := s.subjectState(e.ID, profile, at)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, errStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleShifts(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}
	profile, err := s.entityProfile(e)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	lock := s.locks.get(e.ID)
	lock.RLock()
	events, err := s.db.ListEvents(e.ID)
	lock.RUnlock()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	shifts := s.eng.CumulativeShifts(profile, events)
	if shifts == nil {
		shifts = []state.ShiftRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":  len(shifts),
		"shifts": shifts,
	})
}

func (s *Server) handleEmotions(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}
	at, err := queryTime(r)
	if err != nil {
		http.Error(w, `{"error":"invalid at: `+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	moral, err := queryFloat(r, "moral_violation")
	if err != nil {
		http.Error(w, `{"error":"invalid moral_violation: `+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	profile, err := s.entityProfile(e)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	result, err := s.subjectState(e.ID, profile, at)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, errStatus(err))
		return
	}

	em := engine.SnapshotEmotions(result, moral)
	dominant, intensity := em.Dominant()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"at":        result.At,
		"emotions":  em,
		"dominant":  dominant,
		"intensity": intensity,
		"quality":   result.Quality,
	})
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}
	at, err := queryTime(r)
	if err != nil {
		http.Error(w, `{"error":"invalid at: `+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	profile, err := s.entityProfile(e)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	result, err := s.subjectState(e.ID, profile, at)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, errStatus(err))
		return
	}

	factors := engine.DeriveRisk(result)
	alerts := engine.CheckAlerts(result, factors)
	if alerts == nil {
		alerts = []engine.Alert{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"at":      result.At,
		"factors": factors,
		"alerts":  alerts,
		"quality": result.Quality,
	})
}

func (s *Server) handleRelationshipState(w http.ResponseWriter, r *http.Request) {
	rel, ok := s.lookupRelationship(w, r)
	if !ok {
		return
	}
	at, err := queryTime(r)
	if err != nil {
		http.Error(w, `{"error":"invalid at: `+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	profile, err := s.relationshipProfile(rel)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	result, err := s.subjectState(rel.ID, profile, at)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, errStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// subjectState loads a subject's history under its read lock and runs
// one query against it.
func (s *Server) subjectState(subjectID string, p engine.Profile, at time.Time) (engine.Result, error) {
	lock := s.locks.get(subjectID)
	lock.RLock()
	defer lock.RUnlock()

	anchor, err := s.db.GetAnchor(subjectID)
	if err != nil {
		return engine.Result{}, err
	}
	if anchor == nil {
		return engine.Result{}, state.ErrNoAnchor
	}
	events, err := s.db.ListEvents(subjectID)
	if err != nil {
		return engine.Result{}, err
	}
	return s.eng.StateAt(p, anchor.Snapshot, events, at)
}

func (s *Server) entityProfile(e *store.Entity) (engine.Profile, error) {
	active, err := s.eng.Params().ResolveSet(e.Dimensions)
	if err != nil {
		return engine.Profile{}, err
	}
	return engine.Profile{
		Species: e.Species,
		Birth:   e.Birth,
		Active:  active,
	}, nil
}

// relationshipProfile builds the query profile for a pair. Members may
// not share a species, so bonds run on the human reference clock and
// age from the moment the relationship was recorded.
func (s *Server) relationshipProfile(rel *store.Relationship) (engine.Profile, error) {
	active, err := s.eng.Params().ResolveSet(rel.Dimensions)
	if err != nil {
		return engine.Profile{}, err
	}
	sp, _ := s.eng.Params().SpeciesByName("human")
	return engine.Profile{
		Species: sp,
		Birth:   time.UnixMilli(rel.CreatedAt).UTC(),
		Active:  active,
	}, nil
}

// queryTime parses the optional at parameter, defaulting to now.
func queryTime(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
