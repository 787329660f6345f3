package guide

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/forkreel/forkreel/internal/directorpack"
)

// DefaultTimeout bounds a single pattern fetch so a stalled network cannot
// leave the pre-shoot screen in perpetual loading.
const DefaultTimeout = 10 * time.Second

// DefaultMaxRetries is the failure cap per pattern before Fetch stops
// retrying and reports ErrRetryExhausted.
const DefaultMaxRetries = 3

const maxResponseBytes = 1 << 20

// Cache is an optional byte cache for raw pattern responses. Implementations
// are best-effort; misses and errors both read as a miss.
type Cache interface {
	Get(ctx context.Context, patternID string) ([]byte, bool)
	Set(ctx context.Context, patternID string, body []byte)
}

// Fetcher retrieves pattern documents from the pattern API and normalizes
// them into GuideData. Fetch never returns an empty guide: every failure path
// degrades to the static fallback, with the failure reported as an advisory
// error alongside it.
type Fetcher struct {
	base   string
	client *http.Client
	logger *slog.Logger
	cache  Cache

	// Timeout and MaxRetries default to DefaultTimeout/DefaultMaxRetries.
	Timeout    time.Duration
	MaxRetries int

	mu       sync.Mutex
	failures map[string]int
}

// NewFetcher returns a Fetcher against the given pattern API base URL.
// cache may be nil.
func NewFetcher(baseURL string, logger *slog.Logger, cache Cache) *Fetcher {
	return &Fetcher{
		base:       baseURL,
		client:     &http.Client{},
		logger:     logger,
		cache:      cache,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		failures:   make(map[string]int),
	}
}

// Fetch returns the best guide available for patternID. The returned error is
// advisory: it classifies what degraded (see errors.go) and maps to a user
// message via UserMessage, but the guide alongside it is always renderable.
func (f *Fetcher) Fetch(ctx context.Context, patternID string) (directorpack.GuideData, error) {
	if patternID == "" {
		return directorpack.FallbackGuide(), ErrNoPattern
	}

	if f.exhausted(patternID) {
		return directorpack.FallbackGuide(), ErrRetryExhausted
	}

	if f.cache != nil {
		if body, ok := f.cache.Get(ctx, patternID); ok {
			var resp PatternResponse
			if err := json.Unmarshal(body, &resp); err == nil {
				return Normalize(resp), nil
			}
			// Poisoned cache entry: fall through to a real fetch.
			f.logger.Warn("discarding unreadable cached pattern", "pattern_id", patternID)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	reqURL := f.base + "/api/v1/for-you/" + url.PathEscape(patternID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return directorpack.FallbackGuide(), fmt.Errorf("building pattern request: %w", err)
	}

	res, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return directorpack.FallbackGuide(), f.recordFailure(patternID, ErrTimeout)
		}
		return directorpack.FallbackGuide(), f.recordFailure(patternID, ErrNetwork)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		// Not transient; does not count toward the retry cap.
		return directorpack.FallbackGuide(), ErrNotFound
	}
	if res.StatusCode != http.StatusOK {
		f.logger.Warn("pattern fetch failed", "pattern_id", patternID, "status", res.StatusCode)
		return directorpack.FallbackGuide(), f.recordFailure(patternID, ErrNetwork)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return directorpack.FallbackGuide(), f.recordFailure(patternID, ErrNetwork)
	}

	var resp PatternResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		f.logger.Warn("unparseable pattern response", "pattern_id", patternID, "error", err)
		return directorpack.FallbackGuide(), f.recordFailure(patternID, ErrBadResponse)
	}

	f.reset(patternID)
	if f.cache != nil {
		f.cache.Set(ctx, patternID, body)
	}
	return Normalize(resp), nil
}

func (f *Fetcher) exhausted(patternID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[patternID] >= f.MaxRetries
}

func (f *Fetcher) recordFailure(patternID string, advisory error) error {
	f.mu.Lock()
	f.failures[patternID]++
	count := f.failures[patternID]
	f.mu.Unlock()

	f.logger.Warn("pattern fetch degraded",
		"pattern_id", patternID, "advisory", advisory, "attempt", count)

	if count >= f.MaxRetries {
		return ErrRetryExhausted
	}
	return advisory
}

func (f *Fetcher) reset(patternID string) {
	f.mu.Lock()
	delete(f.failures, patternID)
	f.mu.Unlock()
}
