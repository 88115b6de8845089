package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/iconidentify/mediagate/internal/api/handler"
	"github.com/iconidentify/mediagate/internal/artifact"
	"github.com/iconidentify/mediagate/internal/config"
	"github.com/iconidentify/mediagate/internal/downloader"
	"github.com/iconidentify/mediagate/internal/repository"
	"github.com/iconidentify/mediagate/internal/service"
	"github.com/iconidentify/mediagate/internal/stream"
	"github.com/iconidentify/mediagate/pkg/ytdlp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProvider struct{}

func (stubProvider) Probe(ctx context.Context, url string) (*ytdlp.Info, error) {
	return &ytdlp.Info{Title: "Routed", Uploader: "someone"}, nil
}

func (stubProvider) Fetch(ctx context.Context, url, selector, outputTemplate string) error {
	return os.WriteFile(strings.Replace(outputTemplate, "%(ext)s", "mp4", 1), []byte("bytes"), 0644)
}

func newTestRouter(t *testing.T) (http.Handler, *artifact.Manager) {
	t.Helper()

	storage := config.StorageConfig{TempPath: t.TempDir(), Prefix: "temp_", IDLength: 12}
	journal := repository.NewInMemoryAllocationRepository()
	manager, err := artifact.NewManager(storage, journal, testLogger())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	svc := service.NewMediaService(stubProvider{}, manager, config.ProviderConfig{}, storage, testLogger())
	thumbs := downloader.NewHTTPDownloader(config.ThumbnailConfig{Timeout: time.Second})

	r := NewRouter(
		handler.NewMediaHandler(svc, stream.NewResponder(manager, 4096, testLogger()), testLogger()),
		handler.NewThumbnailHandler(thumbs, testLogger()),
		handler.NewHealthHandler(manager, journal),
		time.Minute,
		testLogger(),
	)
	return r, manager
}

func TestRouter_Routes(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/ready", "", http.StatusOK},
		{http.MethodGet, "/stats", "", http.StatusOK},
		{http.MethodGet, "/proxy_thumbnail", "", http.StatusNotFound},
		{http.MethodPost, "/analyze", `{"url":""}`, http.StatusBadRequest},
		{http.MethodGet, "/analyze", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/download", "", http.StatusBadRequest},
		{http.MethodOptions, "/analyze", "", http.StatusNoContent},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if w.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("CORS header missing")
			}
		})
	}
}

func TestRouter_AnalyzeAndDownload(t *testing.T) {
	router, manager := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString(`{"url":"https://example.com/v"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, want 200", w.Code)
	}
	var meta map[string]any
	if err := json.NewDecoder(w.Body).Decode(&meta); err != nil {
		t.Fatalf("decode analyze: %v", err)
	}
	if meta["title"] != "Routed" {
		t.Errorf("title = %v", meta["title"])
	}

	req = httptest.NewRequest(http.MethodGet, "/download?url=https://example.com/v", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("download status = %d, want 200", w.Code)
	}
	if w.Body.String() != "bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename*=UTF-8''Routed.mp4" {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !w.Flushed {
		t.Error("download should flush through the logging middleware")
	}
	if manager.InFlight() != 0 {
		t.Error("artifact should be released")
	}
}
