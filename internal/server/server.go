// Package server exposes the state engine over HTTP: entity and
// relationship management, anchor pinning, event ingestion, and the
// temporal state queries. Mutations and queries against the same
// subject are serialized through a per-subject reader/writer lock so a
// query never walks a half-written history.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/mindline/internal/engine"
	"github.com/lazypower/mindline/internal/store"
)

// Server is the mindline HTTP API server.
type Server struct {
	db      *store.DB
	eng     *engine.Engine
	locks   subjectLocks
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over the given database and engine.
func New(db *store.DB, eng *engine.Engine, version string) *Server {
	s := &Server{
		db:      db,
		eng:     eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/species", s.handleSpecies)

		r.Post("/entities", s.handleCreateEntity)
		r.Get("/entities", s.handleListEntities)
		r.Get("/entities/{entityID}", s.handleGetEntity)
		r.Post("/entities/{entityID}/anchor", s.handleSetAnchor)
		r.Post("/entities/{entityID}/events", s.handleAddEvent)
		r.Get("/entities/{entityID}/events", s.handleListEvents)
		r.Get("/entities/{entityID}/state", s.handleState)
		r.Get("/entities/{entityID}/shifts", s.handleShifts)
		r.Get("/entities/{entityID}/emotions", s.handleEmotions)
		r.Get("/entities/{entityID}/risk", s.handleRisk)

		r.Post("/relationships", s.handleCreateRelationship)
		r.Post("/relationships/{entityA}/{entityB}/anchor", s.handleRelationshipAnchor)
		r.Post("/relationships/{entityA}/{entityB}/events", s.handleRelationshipEvent)
		r.Get("/relationships/{entityA}/{entityB}/state", s.handleRelationshipState)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	pp := s.eng.Params()

	type speciesJSON struct {
		Name             string  `json:"name"`
		Kind             string  `json:"kind"`
		LifespanYears    float64 `json:"lifespan_years"`
		MaturityYears    float64 `json:"maturity_years"`
		SocialComplexity float64 `json:"social_complexity"`
		TimeScale        float64 `json:"time_scale"`
	}

	var out []speciesJSON
	for _, name := range pp.SpeciesNames() {
		sp, _ := pp.SpeciesByName(name)
		out = append(out, speciesJSON{
			Name:             sp.Name,
			Kind:             string(sp.Kind),
			LifespanYears:    sp.LifespanYears,
			MaturityYears:    sp.MaturityYears,
			SocialComplexity: sp.SocialComplexity,
			TimeScale:        sp.TimeScale(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":   len(out),
		"species": out,
	})
}

// subjectLocks hands out one RWMutex per subject id. Mutations hold the
// write lock, state queries the read lock. Locks are never released
// from the map; the subject population is small and long-lived.
type subjectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func (l *subjectLocks) get(id string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.RWMutex)
	}
	lk, ok := l.locks[id]
	if !ok {
		lk = &sync.RWMutex{}
		l.locks[id] = lk
	}
	return lk
}
