package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/analysis"
	"inkwell/internal/config"
	"inkwell/internal/insight"
	"inkwell/internal/journal"
	"inkwell/internal/llm"
	"inkwell/internal/notify"
	"inkwell/internal/store"
	"inkwell/internal/themes"
)

type testEnv struct {
	srv   *Server
	db    *store.DB
	index *themes.Index
	mock  *llm.MockClient
	j     *journal.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	j, err := journal.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}

	mock := &llm.MockClient{}
	gw := llm.NewGateway(mock, 1)
	idx := themes.NewIndex(db)
	orch := analysis.New(j, gw, idx, db, notify.Discard{}, config.Default().Analysis)

	return &testEnv{
		srv:   New(db, j, gw, idx, orch, "test"),
		db:    db,
		index: idx,
		mock:  mock,
		j:     j,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func insightResult(tag string) insight.DailyAnalysisResult {
	return insight.DailyAnalysisResult{KeyInsights: []string{tag}}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body map[string]any
	decodeBody(t, w, &body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
	if body["db"] != true {
		t.Error("db should report healthy")
	}
}

func TestStatus(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, "GET", "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		Gateway llm.Status      `json:"gateway"`
		Due     map[string]bool `json:"due"`
	}
	decodeBody(t, w, &body)
	if !body.Gateway.Available {
		t.Error("gateway should start available")
	}
	if !body.Due["daily"] {
		t.Error("fresh state: daily should be due")
	}
	if body.Due["weekly"] {
		t.Error("empty journal: weekly content gate should block")
	}
}

func TestAddEntry(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/api/entries", map[string]string{"text": "wrote some tests today"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	entries, err := e.j.ReadDay(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Text != "wrote some tests today" {
		t.Errorf("entries = %v", entries)
	}

	// Blank entries are rejected.
	w = e.do(t, "POST", "/api/entries", map[string]string{"text": "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank entry status = %d, want 400", w.Code)
	}
}

func TestThemesCRUD(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/api/themes", themes.Theme{Name: "Gardening", Summary: "tomatoes"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", w.Code, w.Body.String())
	}

	// Duplicate names conflict.
	w = e.do(t, "POST", "/api/themes", themes.Theme{Name: "gardening", Summary: "dup"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}

	// Nameless themes are rejected.
	w = e.do(t, "POST", "/api/themes", themes.Theme{Summary: "anonymous"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("nameless status = %d, want 400", w.Code)
	}

	w = e.do(t, "GET", "/api/themes", nil)
	var list struct {
		Themes []themes.Theme `json:"themes"`
	}
	decodeBody(t, w, &list)
	if len(list.Themes) != 1 || list.Themes[0].Name != "Gardening" {
		t.Errorf("themes = %v", list.Themes)
	}

	w = e.do(t, "DELETE", "/api/themes/Gardening", nil)
	if w.Code != http.StatusOK {
		t.Errorf("remove status = %d", w.Code)
	}
	w = e.do(t, "DELETE", "/api/themes/Gardening", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d, want 404", w.Code)
	}
}

func TestDailyResults(t *testing.T) {
	e := newTestEnv(t)
	day := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	if err := e.db.AppendDailyResult(day, insightResult("first")); err != nil {
		t.Fatal(err)
	}
	if err := e.db.AppendDailyResult(day, insightResult("second")); err != nil {
		t.Fatal(err)
	}

	w := e.do(t, "GET", "/api/results/daily?day=2025-06-15", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		Results []map[string]any `json:"results"`
	}
	decodeBody(t, w, &body)
	if len(body.Results) != 2 {
		t.Errorf("results = %d, want 2", len(body.Results))
	}

	w = e.do(t, "GET", "/api/results/daily?day=junk", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad day status = %d, want 400", w.Code)
	}
}

func TestWeeklyResult(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "GET", "/api/results/weekly", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("empty weekly status = %d, want 404", w.Code)
	}
}

func TestAnalyze(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/api/analyze/nonsense", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", w.Code)
	}

	// Empty journal: the run is skipped, not failed.
	w = e.do(t, "POST", "/api/analyze/daily", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["status"] != "skipped" {
		t.Errorf("body = %v, want skipped", body)
	}

	// With an entry and a well-formed model response, the run completes.
	if err := e.j.Append("a real entry about running"); err != nil {
		t.Fatal(err)
	}
	e.mock.Response = &llm.Response{Content: `{"themes_today":["running"],"key_insights":["it helps"]}`}

	w = e.do(t, "POST", "/api/analyze/daily", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	decodeBody(t, w, &body)
	if body["status"] != "completed" {
		t.Errorf("body = %v, want completed", body)
	}

	current, err := e.db.CurrentDaily(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if current == nil {
		t.Error("completed analysis should persist a result")
	}
}

func TestAnalyze_GatewayFailure(t *testing.T) {
	e := newTestEnv(t)
	if err := e.j.Append("entry"); err != nil {
		t.Fatal(err)
	}
	e.mock.Err = &llm.GatewayError{Kind: llm.KindServer, Status: 500}

	w := e.do(t, "POST", "/api/analyze/daily", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
