package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/mediagate/internal/api/handler"
	mw "github.com/iconidentify/mediagate/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	mediaHandler *handler.MediaHandler,
	thumbnailHandler *handler.ThumbnailHandler,
	healthHandler *handler.HealthHandler,
	analyzeTimeout time.Duration,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery)

	// CORS for the browser frontend
	r.Use(mw.CORS)

	// Health endpoints
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/stats", healthHandler.Stats)

	r.Get("/", mediaHandler.Home)
	r.Get("/proxy_thumbnail", thumbnailHandler.Proxy)

	// Metadata probes are bounded; downloads stream for as long as the
	// client keeps reading.
	if analyzeTimeout > 0 {
		r.With(middleware.Timeout(analyzeTimeout)).Post("/analyze", mediaHandler.Analyze)
	} else {
		r.Post("/analyze", mediaHandler.Analyze)
	}
	r.Get("/download", mediaHandler.Download)

	return r
}
