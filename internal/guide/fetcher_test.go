package guide

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/forkreel/forkreel/internal/directorpack"
)

func newTestFetcher(t *testing.T, handler http.Handler) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFetcher(srv.URL, slog.Default(), nil)
}

func TestFetchNoPatternID(t *testing.T) {
	f := NewFetcher("http://unused.invalid", slog.Default(), nil)

	g, err := f.Fetch(context.Background(), "")
	if !errors.Is(err, ErrNoPattern) {
		t.Errorf("err = %v, want ErrNoPattern", err)
	}
	if g.IsLive {
		t.Error("guide should not be live")
	}
	if g.Title != directorpack.FallbackTitle {
		t.Errorf("title = %q, want fallback title", g.Title)
	}
	if len(g.Steps) != 4 {
		t.Errorf("got %d steps, want the 4 fixed fallback steps", len(g.Steps))
	}
}

func TestFetchSuccess(t *testing.T) {
	f := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/for-you/pat_1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"id": "pat_1",
			"title": "트렌드 패턴",
			"analysis": {"checkpoints": [{"t_window": [0, 0.1], "note": "A"}]}
		}`))
	}))

	g, err := f.Fetch(context.Background(), "pat_1")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !g.IsLive || len(g.Steps) != 1 || g.Steps[0].Action != "A" {
		t.Errorf("unexpected guide: %+v", g)
	}
}

func TestFetchNotFound(t *testing.T) {
	f := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	g, err := f.Fetch(context.Background(), "gone")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if len(g.Steps) == 0 {
		t.Error("guide must still render on 404")
	}

	// 404 is not transient and must not burn the retry budget.
	for i := 0; i < 5; i++ {
		if _, err := f.Fetch(context.Background(), "gone"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("fetch %d: err = %v, want ErrNotFound", i, err)
		}
	}
}

func TestFetchTimeout(t *testing.T) {
	f := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	f.Timeout = 50 * time.Millisecond

	g, err := f.Fetch(context.Background(), "slow")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	if len(g.Steps) == 0 {
		t.Error("guide must still render on timeout")
	}
}

func TestFetchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	f := NewFetcher(srv.URL, slog.Default(), nil)

	_, err := f.Fetch(context.Background(), "offline")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestFetchMalformedBody(t *testing.T) {
	f := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"analysis": [not json`))
	}))

	g, err := f.Fetch(context.Background(), "broken")
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("err = %v, want ErrBadResponse", err)
	}
	if len(g.Steps) == 0 || len(g.Tips) == 0 {
		t.Error("guide must still render on malformed response")
	}
}

func TestFetchRetryExhaustion(t *testing.T) {
	f := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	var last error
	for i := 0; i < DefaultMaxRetries; i++ {
		_, last = f.Fetch(context.Background(), "flaky")
	}
	if !errors.Is(last, ErrRetryExhausted) {
		t.Errorf("after %d failures err = %v, want ErrRetryExhausted", DefaultMaxRetries, last)
	}

	// Short-circuits without touching the network once exhausted.
	_, err := f.Fetch(context.Background(), "flaky")
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("err = %v, want ErrRetryExhausted", err)
	}
	if Retryable(err) {
		t.Error("exhausted advisory must not offer a retry")
	}
}

func TestFetchSuccessResetsRetryBudget(t *testing.T) {
	var mu sync.Mutex
	fail := true
	f := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id": "p", "title": "복구됨"}`))
	}))

	f.Fetch(context.Background(), "p")
	f.Fetch(context.Background(), "p")

	mu.Lock()
	fail = false
	mu.Unlock()

	if _, err := f.Fetch(context.Background(), "p"); err != nil {
		t.Fatalf("recovered fetch: %v", err)
	}

	mu.Lock()
	fail = true
	mu.Unlock()

	// Budget is back to full: first new failure is a plain advisory.
	_, err := f.Fetch(context.Background(), "p")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork after reset", err)
	}
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (c *mapCache) Get(_ context.Context, id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[id]
	return b, ok
}

func (c *mapCache) Set(_ context.Context, id string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = body
}

func TestFetchUsesCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"id": "p", "title": "한 번만"}`))
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(srv.URL, slog.Default(), &mapCache{entries: map[string][]byte{}})

	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), "p"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if hits != 1 {
		t.Errorf("origin hit %d times, want 1", hits)
	}
}

func TestUserMessagesDistinct(t *testing.T) {
	advisories := []error{ErrNoPattern, ErrNotFound, ErrTimeout, ErrNetwork, ErrBadResponse, ErrRetryExhausted}
	seen := make(map[string]error)
	for _, adv := range advisories {
		msg := UserMessage(adv)
		if msg == "" {
			t.Errorf("%v: empty user message", adv)
		}
		if prev, dup := seen[msg]; dup {
			t.Errorf("%v and %v share a message", adv, prev)
		}
		seen[msg] = adv
	}
}
