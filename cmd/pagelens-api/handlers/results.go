package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pagelens/pagelens/internal/observability"
	"github.com/pagelens/pagelens/internal/storage"
)

// ResultsHandler serves persisted processing history.
type ResultsHandler struct {
	logger  *observability.Logger
	history storage.History
}

// NewResultsHandler creates a new results handler. History may be nil when
// persistence is disabled.
func NewResultsHandler(logger *observability.Logger, history storage.History) *ResultsHandler {
	return &ResultsHandler{
		logger:  logger,
		history: history,
	}
}

// List returns recent results, newest first. The optional "limit" query
// parameter caps the page size.
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotImplemented, "result history is not configured", "")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit", "")
			return
		}
		limit = n
	}

	records, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("History list failed")
		writeError(w, http.StatusInternalServerError, "failed to list results", "")
		return
	}
	if records == nil {
		records = []storage.HistoryRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": records})
}

// Get returns a single persisted result by id.
func (h *ResultsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotImplemented, "result history is not configured", "")
		return
	}

	id := chi.URLParam(r, "id")
	record, err := h.history.Get(r.Context(), id)
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("History get failed")
		writeError(w, http.StatusInternalServerError, "failed to load result", "")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "result not found", "")
		return
	}

	writeJSON(w, http.StatusOK, record)
}
