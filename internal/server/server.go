package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"inkwell/internal/analysis"
	"inkwell/internal/journal"
	"inkwell/internal/llm"
	"inkwell/internal/store"
	"inkwell/internal/themes"
)

// Server is the inkwell HTTP API server.
type Server struct {
	db      *store.DB
	journal *journal.Store
	gateway *llm.Gateway
	index   *themes.Index
	orch    *analysis.Orchestrator
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server.
func New(db *store.DB, j *journal.Store, gw *llm.Gateway, idx *themes.Index, orch *analysis.Orchestrator, version string) *Server {
	s := &Server{
		db:      db,
		journal: j,
		gateway: gw,
		index:   idx,
		orch:    orch,
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
		r.Get("/status", s.handleStatus)

		r.Post("/entries", s.handleAddEntry)

		r.Get("/themes", s.handleListThemes)
		r.Get("/themes/archive", s.handleThemeArchive)
		r.Post("/themes", s.handleAddTheme)
		r.Delete("/themes/{name}", s.handleRemoveTheme)
		r.Get("/themes/{name}/deep", s.handleDeepTheme)

		r.Get("/results/daily", s.handleDailyResults)
		r.Get("/results/weekly", s.handleWeeklyResult)

		// Manual re-trigger surface. Run methods don't re-check "due";
		// a manual trigger is an explicit override.
		r.Post("/analyze/{kind}", s.handleAnalyze)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
