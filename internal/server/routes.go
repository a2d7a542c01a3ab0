package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/mindline/internal/params"
	"github.com/lazypower/mindline/internal/state"
	"github.com/lazypower/mindline/internal/store"
)

type entityJSON struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Species    string    `json:"species"`
	Birth      time.Time `json:"birth"`
	Stage      string    `json:"stage"`
	Dimensions []string  `json:"dimensions,omitempty"`
	CreatedAt  int64     `json:"created_at"`
}

func entityOut(e store.Entity) entityJSON {
	return entityJSON{
		ID:         e.ID,
		Name:       e.Name,
		Species:    e.Species.Name,
		Birth:      e.Birth,
		Stage:      string(e.Species.Stage(params.AgeYears(e.Birth, time.Now()))),
		Dimensions: e.Dimensions,
		CreatedAt:  e.CreatedAt,
	}
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name             string    `json:"name"`
		Species          string    `json:"species"`
		Birth            time.Time `json:"birth"`
		Dimensions       []string  `json:"dimensions"`
		LifespanYears    float64   `json:"lifespan_years"`
		MaturityYears    float64   `json:"maturity_years"`
		SocialComplexity float64   `json:"social_complexity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, `{"error":"name required"}`, http.StatusBadRequest)
		return
	}
	if req.Birth.IsZero() {
		http.Error(w, `{"error":"birth required"}`, http.StatusBadRequest)
		return
	}
	if req.Species == "" {
		req.Species = "human"
	}

	// Unknown species names become custom species when the caller
	// supplies lifespan and maturity.
	sp, ok := s.eng.Params().SpeciesByName(req.Species)
	if !ok {
		if req.LifespanYears <= 0 || req.MaturityYears <= 0 {
			http.Error(w, `{"error":"unknown species `+req.Species+`"}`, http.StatusBadRequest)
			return
		}
		sp = params.Custom(req.Species, req.LifespanYears, req.MaturityYears, req.SocialComplexity)
	}

	if _, err := s.eng.Params().ResolveSet(req.Dimensions); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	e := &store.Entity{
		Name:       req.Name,
		Species:    sp,
		Birth:      req.Birth.UTC(),
		Dimensions: req.Dimensions,
	}
	if err := s.db.CreateEntity(e); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entityOut(*e))
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := s.db.ListEntities()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]entityJSON, len(entities))
	for i, e := range entities {
		out[i] = entityOut(e)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":    len(out),
		"entities": out,
	})
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}

	anchor, err := s.db.GetAnchor(e.ID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	eventCount, err := s.db.CountEvents(e.ID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	rels, err := s.db.ListRelationshipsFor(e.ID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"entity":        entityOut(*e),
		"species":       e.Species,
		"events":        eventCount,
		"relationships": len(rels),
	}
	if anchor != nil {
		resp["anchor"] = anchor.Snapshot
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleSetAnchor(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}
	profile, err := s.entityProfile(e)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	s.setSubjectAnchor(w, r, e.ID, profile.Active)
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}
	profile, err := s.entityProfile(e)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	s.addSubjectEvent(w, r, e.ID, profile.Active)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}

	lock := s.locks.get(e.ID)
	lock.RLock()
	effects, err := s.db.ListEvents(e.ID)
	lock.RUnlock()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":  len(effects),
		"events": effects,
	})
}

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntityA    string   `json:"entity_a"`
		EntityB    string   `json:"entity_b"`
		Dimensions []string `json:"dimensions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.EntityA == "" || req.EntityB == "" {
		http.Error(w, `{"error":"entity_a and entity_b required"}`, http.StatusBadRequest)
		return
	}
	if len(req.Dimensions) > 0 {
		if _, err := s.eng.Params().ResolveSet(req.Dimensions); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
	}

	rel := &store.Relationship{
		EntityLo:   req.EntityA,
		EntityHi:   req.EntityB,
		Dimensions: req.Dimensions,
	}
	if err := s.db.CreateRelationship(rel); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, errStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"id":         rel.ID,
		"entities":   []string{rel.EntityLo, rel.EntityHi},
		"dimensions": rel.Dimensions,
		"created_at": rel.CreatedAt,
	})
}

func (s *Server) handleRelationshipAnchor(w http.ResponseWriter, r *http.Request) {
	rel, ok := s.lookupRelationship(w, r)
	if !ok {
		return
	}
	profile, err := s.relationshipProfile(rel)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	s.setSubjectAnchor(w, r, rel.ID, profile.Active)
}

func (s *Server) handleRelationshipEvent(w http.ResponseWriter, r *http.Request) {
	rel, ok := s.lookupRelationship(w, r)
	if !ok {
		return
	}
	profile, err := s.relationshipProfile(rel)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	s.addSubjectEvent(w, r, rel.ID, profile.Active)
}

// setSubjectAnchor pins an anchor for any subject. Omitted dimensions
// start at their registry defaults; supplied values override whole.
func (s *Server) setSubjectAnchor(w http.ResponseWriter, r *http.Request, subjectID string, active []state.DimensionID) {
	var req struct {
		At     time.Time                         `json:"at"`
		Values map[state.DimensionID]state.Value `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.At.IsZero() {
		http.Error(w, `{"error":"at required"}`, http.StatusBadRequest)
		return
	}

	snap := state.NewSnapshot(req.At.UTC(), s.eng.Params().Registry, active)
	for id, v := range req.Values {
		snap.Values[id] = v
	}
	if err := s.eng.ValidateAnchor(active, snap); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, errStatus(err))
		return
	}

	lock := s.locks.get(subjectID)
	lock.Lock()
	err := s.db.SetAnchor(subjectID, snap)
	lock.Unlock()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, errStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(snap)
}

// addSubjectEvent validates and stores one effect for any subject.
func (s *Server) addSubjectEvent(w http.ResponseWriter, r *http.Request, subjectID string, active []state.DimensionID) {
	var eff state.EventEffect
	if err := json.NewDecoder(r.Body).Decode(&eff); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if err := s.eng.ValidateEffect(active, eff); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, errStatus(err))
		return
	}

	lock := s.locks.get(subjectID)
	lock.Lock()
	err := s.db.AddEvent(subjectID, &eff)
	lock.Unlock()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, errStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(eff)
}

// lookupEntity resolves the {entityID} route parameter, writing the 404
// itself so handlers can bail with a bare return.
func (s *Server) lookupEntity(w http.ResponseWriter, r *http.Request) (*store.Entity, bool) {
	id := chi.URLParam(r, "entityID")
	e, err := s.db.GetEntity(id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return nil, false
	}
	if e == nil {
		http.Error(w, `{"error":"entity not found"}`, http.StatusNotFound)
		return nil, false
	}
	return e, true
}

// lookupRelationship resolves the {entityA}/{entityB} pair in either order.
func (s *Server) lookupRelationship(w http.ResponseWriter, r *http.Request) (*store.Relationship, bool) {
	a := chi.URLParam(r, "entityA")
	b := chi.URLParam(r, "entityB")
	rel, err := s.db.GetRelationshipByPair(a, b)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return nil, false
	}
	if rel == nil {
		http.Error(w, `{"error":"relationship not found"}`, http.StatusNotFound)
		return nil, false
	}
	return rel, true
}

// errStatus maps the error taxonomy onto HTTP statuses. Validation
// failures are the caller's fault, anchor conflicts and missing anchors
// are state conflicts, unknown subjects are 404s.
func errStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrAnchorExists), errors.Is(err, store.ErrPairExists), errors.Is(err, state.ErrNoAnchor):
		return http.StatusConflict
	case errors.Is(err, state.ErrUnknownDimension), errors.Is(err, state.ErrDimensionInactive), errors.Is(err, state.ErrOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
