package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Checker verifies that a dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

type healthResult struct {
	Status string `json:"status"`
}

// HealthResponse maps dependency name to its probe result.
type HealthResponse map[string]healthResult

func handleHealth(logger *slog.Logger, checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		results := make(HealthResponse, len(checks))
		status := http.StatusOK

		for name, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.Error("health check failed", "name", name, "error", err)
				results[name] = healthResult{Status: "error"}
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = healthResult{Status: "ok"}
		}
		writeJSON(w, status, results)
	}
}
