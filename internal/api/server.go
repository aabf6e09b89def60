package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/davemarchant/offerbuilder/internal/catalog"
	"github.com/davemarchant/offerbuilder/internal/config"
	"github.com/davemarchant/offerbuilder/internal/db"
	"github.com/davemarchant/offerbuilder/internal/editor"
	"github.com/davemarchant/offerbuilder/internal/middleware"
	"github.com/davemarchant/offerbuilder/internal/models"
	"github.com/davemarchant/offerbuilder/internal/observability"
	"github.com/davemarchant/offerbuilder/internal/picker"
)

// Server groups dependencies for HTTP handlers and owns the live editor
// sessions. It is the single owner of all shared editor state: every session
// is reached only through the Server, and a session's collection is mutated
// only through its own operations.
type Server struct {
	Logger  *zap.Logger
	Store   *db.RedisStore // nil disables session snapshots
	PG      *db.Postgres   // nil disables the submission archive
	Catalog catalog.Fetcher
	Metrics observability.MetricsRegistry
	Config  config.Config

	mu       sync.RWMutex
	sessions map[uuid.UUID]*EditorSession
}

// EditorSession ties one collection to its picker session. The picker is
// created once per editor session and reused across opens; each Open starts
// a fresh query generation.
type EditorSession struct {
	ID         uuid.UUID
	Collection *editor.Collection
	Picker     *picker.Session
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, store *db.RedisStore, pg *db.Postgres, fetcher catalog.Fetcher, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Server{
		Logger:   logger,
		Store:    store,
		PG:       pg,
		Catalog:  fetcher,
		Metrics:  metrics,
		Config:   cfg,
		sessions: make(map[uuid.UUID]*EditorSession),
	}
}

// Router builds the service's route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(s.Logger))
	r.Use(s.instrument)

	r.HandleFunc("/health", s.HealthHandler).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/sessions", s.CreateSession).Methods("POST")
	v1.HandleFunc("/sessions/{id}/items", s.ListItems).Methods("GET")
	v1.HandleFunc("/sessions/{id}/items", s.AddPlaceholder).Methods("POST")
	v1.HandleFunc("/sessions/{id}/items/{itemID}", s.DeleteItem).Methods("DELETE")
	v1.HandleFunc("/sessions/{id}/items/{itemID}/variants/{variantID}", s.DeleteVariant).Methods("DELETE")
	v1.HandleFunc("/sessions/{id}/items/{itemID}/expanded", s.ToggleExpanded).Methods("POST")
	v1.HandleFunc("/sessions/{id}/reorder", s.Reorder).Methods("POST")
	v1.HandleFunc("/sessions/{id}/discount", s.SetDiscount).Methods("PUT")
	v1.HandleFunc("/sessions/{id}/submit", s.Submit).Methods("POST")
	v1.HandleFunc("/sessions/{id}/submissions", s.ListSubmissions).Methods("GET")

	v1.HandleFunc("/sessions/{id}/picker/open", s.PickerOpen).Methods("POST")
	v1.HandleFunc("/sessions/{id}/picker/close", s.PickerClose).Methods("POST")
	v1.HandleFunc("/sessions/{id}/picker/search", s.PickerSearch).Methods("POST")
	v1.HandleFunc("/sessions/{id}/picker/visible", s.PickerSentinel).Methods("POST")
	v1.HandleFunc("/sessions/{id}/picker/results", s.PickerResults).Methods("GET")
	v1.HandleFunc("/sessions/{id}/picker/toggle", s.PickerToggle).Methods("POST")
	v1.HandleFunc("/sessions/{id}/picker/confirm", s.PickerConfirm).Methods("POST")

	return r
}

// instrument records request count and latency per route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		s.Metrics.IncrementRequests(endpoint, r.Method, strconv.Itoa(sw.status))
		s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// session resolves the editor session named in the route.
func (s *Server) session(r *http.Request) (*EditorSession, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	es, ok := s.sessions[id]
	return es, ok
}

// persist snapshots the session's collection to redis, best effort. Loss of
// a snapshot degrades resume-after-restart, never the live session.
func (s *Server) persist(r *http.Request, es *EditorSession, items []models.OfferItem) {
	if s.Store == nil {
		return
	}
	if err := s.Store.SaveCollection(es.ID.String(), items, s.Config.SessionTTL); err != nil {
		s.Metrics.IncrementPersistErrors()
		middleware.LoggerFromRequest(r, s.Logger).Warn("session snapshot failed",
			zap.String("session_id", es.ID.String()),
			zap.Error(err))
	}
}

// helper function to write JSON response
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
