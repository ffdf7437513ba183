package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"tennis-transform/internal/domain"
	"tennis-transform/internal/infra"
	"tennis-transform/internal/transform"
)

// Transformer runs one photo through the transformation pipeline.
type Transformer interface {
	Transform(ctx context.Context, req transform.Request) (*domain.TransformResult, error)
}

// StatsSource exposes in-process counters for the metrics endpoint.
type StatsSource interface {
	Snapshot() transform.Snapshot
}

type App struct {
	Transformer  Transformer
	Stats        StatsSource
	Logger       *infra.Logger
	MaxBodyBytes int64
	Pipeline     string
}

func NewApp(t Transformer, stats StatsSource, logger *infra.Logger, maxUploadBytes int) *App {
	if logger == nil {
		logger = infra.NopLogger()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	// base64 inflates by 4/3, plus room for the JSON envelope.
	maxBody := int64(maxUploadBytes)/3*4 + 4<<10
	return &App{Transformer: t, Stats: stats, Logger: logger, MaxBodyBytes: maxBody}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message, details string) {
	a.json(w, code, errorResponse{Error: message, Details: details})
}
