package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iconidentify/mediagate/internal/domain"
	"github.com/iconidentify/mediagate/internal/logger"
	"github.com/iconidentify/mediagate/internal/service"
	"github.com/iconidentify/mediagate/internal/stream"
)

const (
	msgNoURL        = "No URL provided"
	msgAnalyzeFail  = "Could not fetch video info."
	msgInvalidBody  = "invalid request body"
	msgServerStatus = "Server is running!"
)

// MediaHandler handles analyze and download endpoints.
type MediaHandler struct {
	mediaSvc  *service.MediaService
	responder *stream.Responder
	logger    *slog.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(mediaSvc *service.MediaService, responder *stream.Responder, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		mediaSvc:  mediaSvc,
		responder: responder,
		logger:    logger,
	}
}

// AnalyzeRequest is the request body for POST /analyze.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// Home handles GET /.
func (h *MediaHandler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(msgServerStatus))
}

// Analyze handles POST /analyze.
func (h *MediaHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if req.URL == "" {
		h.writeError(w, http.StatusBadRequest, msgNoURL)
		return
	}

	meta, err := h.mediaSvc.Analyze(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, msgNoURL)
			return
		}
		logger.FromContext(r.Context(), h.logger).Error("analyze failed", "url", req.URL, "error", err)
		h.writeError(w, http.StatusInternalServerError, msgAnalyzeFail)
		return
	}

	h.writeJSON(w, http.StatusOK, meta)
}

// Download handles GET /download?url=&format=.
func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	url := r.URL.Query().Get("url")
	if url == "" {
		h.writeText(w, http.StatusBadRequest, msgNoURL)
		return
	}
	formatID := domain.ParseFormatID(r.URL.Query().Get("format"))

	dl, err := h.mediaSvc.Prepare(r.Context(), domain.DownloadRequest{
		SourceURL: url,
		Format:    formatID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			h.writeText(w, http.StatusBadRequest, msgNoURL)
			return
		}
		log.Error("download failed", "url", url, "format", formatID, "error", err)
		h.writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	if _, err := h.responder.Stream(w, r, dl.Handle, dl.Attachment); err != nil {
		if errors.Is(err, domain.ErrStreamAborted) {
			// Headers are already on the wire.
			log.Warn("download stream aborted", "url", url, "error", err)
			return
		}
		log.Error("download stream failed", "url", url, "error", err)
		h.writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
	}
}

func (h *MediaHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *MediaHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (h *MediaHandler) writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(message))
}
