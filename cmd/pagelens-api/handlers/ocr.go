package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/observability"
	"github.com/pagelens/pagelens/internal/pipeline"
)

// OCRHandler handles batch OCR and summarization requests.
type OCRHandler struct {
	logger   *observability.Logger
	pipeline *pipeline.Pipeline
	maxBytes int64
}

// NewOCRHandler creates a new OCR handler.
func NewOCRHandler(logger *observability.Logger, p *pipeline.Pipeline, maxBytes int64) *OCRHandler {
	return &OCRHandler{
		logger:   logger,
		pipeline: p,
		maxBytes: maxBytes,
	}
}

// OCRResponse is the aggregate response for a batch request.
type OCRResponse struct {
	Results []domain.FileResult `json:"results"`
}

// Process accepts a multipart upload under the "files" field and returns one
// result per file in upload order. Oversized or unreadable files become
// per-file errors and never fail the whole batch.
func (h *OCRHandler) Process(w http.ResponseWriter, r *http.Request) {
	// Allow some multipart framing overhead beyond the sum of file caps.
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided", "")
		return
	}

	results := make([]domain.FileResult, len(fileHeaders))
	var toProcess []domain.UploadedFile
	var indices []int

	for i, fh := range fileHeaders {
		if fh.Size > h.maxBytes {
			results[i] = domain.FileResult{
				Filename: fh.Filename,
				Error:    fmt.Sprintf("file exceeds %dMB limit", h.maxBytes/(1024*1024)),
			}
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results[i] = domain.FileResult{Filename: fh.Filename, Error: "failed to read file"}
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > h.maxBytes {
			results[i] = domain.FileResult{Filename: fh.Filename, Error: "failed to read file"}
			continue
		}

		toProcess = append(toProcess, domain.UploadedFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Data:        data,
		})
		indices = append(indices, i)
	}

	processed := h.pipeline.Process(r.Context(), toProcess)
	for j, result := range processed {
		results[indices[j]] = result
	}

	h.logger.WithContext(r.Context()).Info().
		Int("files", len(fileHeaders)).
		Int("processed", len(processed)).
		Msg("Batch complete")

	writeJSON(w, http.StatusOK, OCRResponse{Results: results})
}
