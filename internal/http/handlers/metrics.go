package handlers

import (
	"net/http"

	"tennis-transform/internal/transform"
)

type metricsResponse struct {
	Pipeline string `json:"pipeline,omitempty"`
	transform.Snapshot
}

// Metrics reports request, outcome and per-stage counters since start.
func (a *App) Metrics(w http.ResponseWriter, r *http.Request) {
	if a.Stats == nil {
		a.error(w, http.StatusNotFound, "Metrics disabled", "no stats source configured")
		return
	}
	a.json(w, http.StatusOK, metricsResponse{Pipeline: a.Pipeline, Snapshot: a.Stats.Snapshot()})
}
