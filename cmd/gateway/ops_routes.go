package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-bigfive/internal/archetype"
	"github.com/mind-engage/mindengage-bigfive/internal/metrics"
)

// mountOpsRoutes wires liveness, readiness and metrics. None of these
// touch visitor sessions.
func mountOpsRoutes(r chi.Router, dbh *sql.DB, cat *archetype.Catalog, m *metrics.Metrics) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := dbh.PingContext(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "ok",
			"archetypes": cat.Len(),
			"missing":    len(cat.Missing()),
		})
	})

	r.Handle("/metrics", m.Handler())
}
