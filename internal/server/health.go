package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Checker reports whether one backend dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// NamedChecker pairs a checker with its name in the health response.
type NamedChecker struct {
	Name    string
	Checker Checker
}

// HealthResponse maps dependency name to status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

func handleHealth(logger *slog.Logger, checks []NamedChecker) http.HandlerFunc {
	type result struct {
		Status string `json:"status"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		out := make(map[string]result, len(checks))
		status := http.StatusOK

		for _, c := range checks {
			if err := c.Checker.Check(ctx); err != nil {
				logger.Error("health check failed", "name", c.Name, "error", err)
				out[c.Name] = result{Status: "error"}
				status = http.StatusServiceUnavailable
				continue
			}
			out[c.Name] = result{Status: "ok"}
		}

		writeJSON(w, status, out)
	}
}
