package handler

import (
	"log/slog"
	"net/http"

	"github.com/iconidentify/mediagate/internal/downloader"
	"github.com/iconidentify/mediagate/internal/logger"
)

// ThumbnailHandler proxies remote thumbnails for the frontend.
type ThumbnailHandler struct {
	downloader downloader.Downloader
	logger     *slog.Logger
}

// NewThumbnailHandler creates a new thumbnail handler.
func NewThumbnailHandler(dl downloader.Downloader, logger *slog.Logger) *ThumbnailHandler {
	return &ThumbnailHandler{
		downloader: dl,
		logger:     logger,
	}
}

// Proxy handles GET /proxy_thumbnail?url=. Every failure is a bare 404.
func (h *ThumbnailHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	res, err := h.downloader.Download(r.Context(), url)
	if err != nil {
		logger.FromContext(r.Context(), h.logger).Debug("thumbnail fetch failed", "url", url, "error", err)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}
