package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/forkreel/forkreel/internal/guide"
)

func adminRouter(t *testing.T) (*chi.Mux, func() []*http.Cookie) {
	t.Helper()
	r, store := testRouter(t)

	if err := EnsureAdmin(context.Background(), testLogger(), store, "admin@forkreel.app", "changeme"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}

	login := func() []*http.Cookie {
		body, _ := json.Marshal(map[string]string{"email": "admin@forkreel.app", "password": "changeme"})
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
		}
		return w.Result().Cookies()
	}

	return r, login
}

func doAdmin(t *testing.T, r *chi.Mux, method, path string, cookies []*http.Cookie, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminLoginGoodCredentials(t *testing.T) {
	r, login := adminRouter(t)
	cookies := login()

	found := false
	for _, c := range cookies {
		if c.Name == adminCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected admin_session cookie to be set")
	}

	w := doAdmin(t, r, http.MethodGet, "/api/admin/me", cookies, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}
	var me AdminMeResponse
	json.NewDecoder(w.Body).Decode(&me)
	if me.Email != "admin@forkreel.app" {
		t.Errorf("expected admin email, got %q", me.Email)
	}
}

func TestAdminLoginBadCredentials(t *testing.T) {
	r, _ := adminRouter(t)

	body, _ := json.Marshal(map[string]string{"email": "admin@forkreel.app", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminPatternsRequireAuth(t *testing.T) {
	r, _ := adminRouter(t)

	w := doAdmin(t, r, http.MethodGet, "/api/admin/patterns/", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", w.Code)
	}
}

func TestAdminPatternCRUD(t *testing.T) {
	r, login := adminRouter(t)
	cookies := login()

	doc := demoPattern()
	doc.ID = "crud-pattern"
	doc.Title = "테스트 패턴"

	// Create.
	w := doAdmin(t, r, http.MethodPut, "/api/admin/patterns/crud-pattern", cookies, doc)
	if w.Code != http.StatusOK {
		t.Fatalf("upsert: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Read back.
	w = doAdmin(t, r, http.MethodGet, "/api/admin/patterns/crud-pattern", cookies, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	var got guide.PatternResponse
	json.NewDecoder(w.Body).Decode(&got)
	if got.Title != "테스트 패턴" {
		t.Errorf("expected stored title, got %q", got.Title)
	}

	// Update.
	doc.Tier = "A"
	w = doAdmin(t, r, http.MethodPut, "/api/admin/patterns/crud-pattern", cookies, doc)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", w.Code)
	}

	// List shows the new tier.
	w = doAdmin(t, r, http.MethodGet, "/api/admin/patterns/", cookies, nil)
	var list []PatternSummary
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 || list[0].Tier != "A" {
		t.Errorf("expected one A-tier pattern, got %+v", list)
	}

	// Delete.
	w = doAdmin(t, r, http.MethodDelete, "/api/admin/patterns/crud-pattern", cookies, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = doAdmin(t, r, http.MethodGet, "/api/admin/patterns/crud-pattern", cookies, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestAdminLogout(t *testing.T) {
	r, login := adminRouter(t)
	cookies := login()

	w := doAdmin(t, r, http.MethodPost, "/api/admin/logout", cookies, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", w.Code)
	}

	// The old cookie no longer authenticates.
	w = doAdmin(t, r, http.MethodGet, "/api/admin/me", cookies, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}
