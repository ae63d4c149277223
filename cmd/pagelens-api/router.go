// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pagelens/pagelens/cmd/pagelens-api/handlers"
	"github.com/pagelens/pagelens/cmd/pagelens-api/middleware"
	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/observability"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.CorrelateRequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	ocrHandler := handlers.NewOCRHandler(logger, deps.Pipeline, cfg.MaxUploadBytes())
	reportHandler := handlers.NewReportHandler(logger, deps.Renderer, deps.Store)
	healthHandler := handlers.NewHealthHandler(logger, deps.Store, deps.Summarizer)
	resultsHandler := handlers.NewResultsHandler(logger, deps.History)

	r.Route("/api", func(r chi.Router) {
		r.Post("/ocr", ocrHandler.Process)
		r.Post("/generate-pdf", reportHandler.Generate)
		r.Get("/health", healthHandler.Check)
		r.Get("/results", resultsHandler.List)
		r.Get("/results/{id}", resultsHandler.Get)
	})

	return r
}
