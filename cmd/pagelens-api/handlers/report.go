package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"path"

	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/observability"
	"github.com/pagelens/pagelens/internal/report"
	"github.com/pagelens/pagelens/internal/storage"
)

// ReportHandler renders processed results into a downloadable PDF.
type ReportHandler struct {
	logger   *observability.Logger
	renderer *report.Renderer
	store    storage.Store
}

// NewReportHandler creates a new report handler.
func NewReportHandler(logger *observability.Logger, renderer *report.Renderer, store storage.Store) *ReportHandler {
	return &ReportHandler{
		logger:   logger,
		renderer: renderer,
		store:    store,
	}
}

// ReportRequest is the JSON body for PDF generation. Entry images are either
// inline base64 bytes or a stored object URL resolved at render time.
type ReportRequest struct {
	Results []domain.ReportEntry `json:"results"`
}

// Generate renders the submitted results as a PDF attachment.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.Results) == 0 {
		writeError(w, http.StatusBadRequest, "no results provided", "")
		return
	}

	log := h.logger.WithContext(r.Context())

	for i := range req.Results {
		entry := &req.Results[i]
		if len(entry.Image) > 0 || entry.ImageURL == "" || h.store == nil {
			continue
		}
		data, err := h.fetchImage(r, entry.ImageURL)
		if err != nil {
			log.Warn().Str("url", entry.ImageURL).Err(err).Msg("Image fetch failed, rendering without it")
			continue
		}
		entry.Image = data
	}

	pdf, err := h.renderer.Render(req.Results)
	if err != nil {
		if domain.IsType(err, domain.ErrorTypeValidation) {
			writeError(w, http.StatusBadRequest, "invalid report request", err.Error())
			return
		}
		log.Error().Err(err).Msg("Report rendering failed")
		writeError(w, http.StatusInternalServerError, "failed to generate report", "")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// fetchImage resolves a stored object URL back to its bytes. Object keys are
// flat uuid-based names, so the last path segment identifies the object.
func (h *ReportHandler) fetchImage(r *http.Request, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, domain.ValidationError("invalid image url", err)
	}
	return h.store.Get(r.Context(), path.Base(u.Path))
}
