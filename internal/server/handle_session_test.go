package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/forkreel/forkreel/internal/database"
	"github.com/forkreel/forkreel/internal/migrations"
	"github.com/forkreel/forkreel/internal/session"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewSQLiteStore(db)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRouter(t *testing.T) (*chi.Mux, *SQLiteStore) {
	t.Helper()
	store := setupTestStore(t)

	r := chi.NewRouter()
	addRoutes(r, Deps{
		Logger: testLogger(),
		Store:  store,
		Broker: NewBroker(),
	})
	return r, store
}

// newSession creates a session over the API and returns its bearer token.
func newSession(t *testing.T, r *chi.Mux) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp CreateSessionResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Token == "" {
		t.Fatal("expected a non-empty token")
	}
	return resp.Token
}

func doJSON(t *testing.T, r *chi.Mux, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) *session.State {
	t.Helper()
	var resp SessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	return resp.Session
}

func TestCreateAndGetSession(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/v1/sessions/current", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	st := decodeSession(t, w)
	if st.Phase != session.PhaseDiscover {
		t.Errorf("expected phase discover, got %q", st.Phase)
	}
	if st.Mode != session.ModeSimple {
		t.Errorf("expected mode simple, got %q", st.Mode)
	}
}

func TestGetSessionWithoutToken(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/sessions/current", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestSelectPatternLoadsSlots(t *testing.T) {
	r, store := testRouter(t)
	if err := store.UpsertPattern(context.Background(), demoPattern()); err != nil {
		t.Fatalf("seed pattern: %v", err)
	}
	token := newSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/pattern", token,
		map[string]string{"patternId": "demo-transition-hook"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	st := decodeSession(t, w)
	if st.Phase != session.PhaseSetup {
		t.Errorf("expected phase setup, got %q", st.Phase)
	}
	if st.SelectedPattern == nil || st.SelectedPattern.Title == "" {
		t.Fatal("expected a hydrated pattern ref")
	}
	if len(st.Slots) != 2 {
		t.Errorf("expected 2 slots from the pack, got %d", len(st.Slots))
	}
}

func TestSelectUnknownPattern(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/pattern", token,
		map[string]string{"patternId": "nope"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRouteDeepLinkIdempotent(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	body := map[string]string{"patternId": "shared-pattern"}
	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/route", token, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	first := decodeSession(t, w)
	if first.Phase != session.PhaseSetup {
		t.Errorf("expected phase setup after deep link, got %q", first.Phase)
	}

	// Re-applying the same route changes nothing.
	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/route", token, body)
	second := decodeSession(t, w)
	if second.Phase != first.Phase {
		t.Errorf("route re-apply moved phase from %q to %q", first.Phase, second.Phase)
	}
	if second.SelectedPattern.ID != "shared-pattern" {
		t.Errorf("expected pattern shared-pattern, got %q", second.SelectedPattern.ID)
	}
}

func TestAdvancePhaseBackwardIgnored(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/phase", token,
		map[string]string{"phase": "shoot"})
	if st := decodeSession(t, w); st.Phase != session.PhaseShoot {
		t.Fatalf("expected phase shoot, got %q", st.Phase)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/phase", token,
		map[string]string{"phase": "discover"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if st := decodeSession(t, w); st.Phase != session.PhaseShoot {
		t.Errorf("backward advance moved phase to %q", st.Phase)
	}
}

func TestAdvancePhaseUnknown(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/phase", token,
		map[string]string{"phase": "warp"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestQuestSecondAcceptIgnored(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/quest", token,
		map[string]any{"id": "quest-1", "rewardPoints": 500})
	st := decodeSession(t, w)
	if st.Quest == nil || st.Quest.ID != "quest-1" || !st.Quest.Accepted {
		t.Fatalf("expected accepted quest-1, got %+v", st.Quest)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/quest", token,
		map[string]any{"id": "quest-2", "rewardPoints": 900})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if st := decodeSession(t, w); st.Quest.ID != "quest-1" {
		t.Errorf("second accept replaced quest: got %q", st.Quest.ID)
	}
}

func TestRunLifecycle(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/runs", token,
		map[string]string{"forkNodeId": "node-7"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create run: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	st := decodeSession(t, w)
	if st.Run == nil || st.Run.Status != session.RunIdle {
		t.Fatalf("expected idle run, got %+v", st.Run)
	}
	if st.Phase != session.PhaseShoot {
		t.Errorf("expected phase shoot, got %q", st.Phase)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/runs/status", token,
		map[string]string{"status": "shooting"})
	if w.Code != http.StatusOK {
		t.Fatalf("advance to shooting: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Backward transition is rejected and leaves the status untouched.
	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/runs/status", token,
		map[string]string{"status": "idle"})
	if w.Code != http.StatusConflict {
		t.Fatalf("regression: expected 409, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/sessions/current", token, nil)
	if st := decodeSession(t, w); st.Run.Status != session.RunShooting {
		t.Errorf("regression changed stored status to %q", st.Run.Status)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/runs/status", token,
		map[string]string{"status": "submitted"})
	st = decodeSession(t, w)
	if st.Run.Status != session.RunSubmitted {
		t.Errorf("expected submitted, got %q", st.Run.Status)
	}
	if st.Phase != session.PhaseSubmit {
		t.Errorf("expected phase submit, got %q", st.Phase)
	}
}

func TestRunStatusWithoutRun(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/runs/status", token,
		map[string]string{"status": "shooting"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestPatchSlotUnknownIsNoop(t *testing.T) {
	r, store := testRouter(t)
	if err := store.UpsertPattern(context.Background(), demoPattern()); err != nil {
		t.Fatalf("seed pattern: %v", err)
	}
	token := newSession(t, r)

	doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/pattern", token,
		map[string]string{"patternId": "demo-transition-hook"})

	w := doJSON(t, r, http.MethodPatch, "/api/v1/sessions/current/slots/slot-topic", token,
		map[string]any{"value": "아침 루틴"})
	st := decodeSession(t, w)
	if st.Slots[0].Value != "아침 루틴" {
		t.Errorf("expected patched slot value, got %v", st.Slots[0].Value)
	}

	w = doJSON(t, r, http.MethodPatch, "/api/v1/sessions/current/slots/slot-ghost", token,
		map[string]any{"value": "x"})
	if w.Code != http.StatusOK {
		t.Fatalf("unknown slot: expected 200, got %d", w.Code)
	}
}

func TestEndSession(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/sessions/current", token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	// Ended sessions no longer resolve.
	w = doJSON(t, r, http.MethodGet, "/api/v1/sessions/current", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after end, got %d", w.Code)
	}
}

func TestLogIntervention(t *testing.T) {
	r, _ := testRouter(t)
	token := newSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/interventions", token,
		map[string]any{"kind": "retake", "elapsedMs": 4200})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions/current/interventions", token,
		map[string]any{"elapsedMs": 10})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing kind: expected 400, got %d", w.Code)
	}
}
