package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/analysis"
	"inkwell/internal/themes"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cadence := s.orch.Cadence()
	writeJSON(w, http.StatusOK, map[string]any{
		"gateway": s.gateway.Status(),
		"cadence": map[string]any{
			"last_daily":     cadence.LastDaily,
			"last_weekly":    cadence.LastWeekly,
			"last_discovery": cadence.LastDiscovery,
		},
		"due": map[string]bool{
			"daily":     s.orch.DailyDue(),
			"weekly":    s.orch.WeeklyDue(),
			"discovery": s.orch.DiscoveryDue(),
		},
	})
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if err := s.journal.Append(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *Server) handleListThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"themes": s.index.Active()})
}

func (s *Server) handleThemeArchive(w http.ResponseWriter, r *http.Request) {
	archived, err := s.index.Archived()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"themes": archived})
}

func (s *Server) handleAddTheme(w http.ResponseWriter, r *http.Request) {
	var t themes.Theme
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode theme: %w", err))
		return
	}
	if t.Name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("theme name required"))
		return
	}

	if err := s.index.AddManual(t); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveTheme(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.index.Remove(name); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleDeepTheme(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.orch.RunDeepTheme(r.Context(), name)
	if err != nil {
		if errors.Is(err, analysis.ErrNoEntries) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDailyResults(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if q := r.URL.Query().Get("day"); q != "" {
		parsed, err := time.ParseInLocation("2006-01-02", q, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad day %q: %w", q, err))
			return
		}
		day = parsed
	}

	results, err := s.db.DailyResults(day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleWeeklyResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.db.LoadWeekly()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no weekly result recorded"))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var err error
	switch analysis.Kind(kind) {
	case analysis.KindDaily:
		_, err = s.orch.RunDaily(r.Context())
	case analysis.KindWeekly:
		_, err = s.orch.RunWeekly(r.Context())
	case analysis.KindDiscovery:
		err = s.orch.RunDiscovery(r.Context())
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown analysis kind %q", kind))
		return
	}

	if err != nil {
		if errors.Is(err, analysis.ErrNoEntries) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "skipped", "reason": "no entries"})
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed", "kind": kind})
}
