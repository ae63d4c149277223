package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pagelens/pagelens/internal/observability"
	"github.com/pagelens/pagelens/internal/storage"
)

// Pinger checks the reachability of an upstream dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports aggregate service health.
type HealthHandler struct {
	logger     *observability.Logger
	store      storage.Store
	summarizer Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(logger *observability.Logger, store storage.Store, summarizer Pinger) *HealthHandler {
	return &HealthHandler{
		logger:     logger,
		store:      store,
		summarizer: summarizer,
	}
}

// HealthResponse describes overall and per-dependency health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Dependencies map[string]string `json:"dependencies"`
}

// Check probes the storage and summarizer backends. An unreachable
// dependency degrades status to unhealthy but the endpoint itself always
// answers 200.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:       "healthy",
		Service:      "pagelens",
		Dependencies: map[string]string{},
	}

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Storage health check failed")
		resp.Status = "unhealthy"
		resp.Dependencies["storage"] = err.Error()
	} else {
		resp.Dependencies["storage"] = "ok"
	}

	if err := h.summarizer.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Summarizer health check failed")
		resp.Status = "unhealthy"
		resp.Dependencies["summarizer"] = err.Error()
	} else {
		resp.Dependencies["summarizer"] = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}
