package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/mediagate/internal/config"
)

var (
	// ErrUpstreamStatus is returned when the remote host answers with a non-200 status.
	ErrUpstreamStatus = errors.New("unexpected upstream status")

	// ErrTooLarge is returned when a body exceeds the configured limit.
	ErrTooLarge = errors.New("response body too large")
)

// HTTPDownloader implements Downloader using plain GET requests with a
// fixed browser User-Agent. It is used to proxy thumbnails past hosts that
// block hotlinking from the frontend.
type HTTPDownloader struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	logger    *slog.Logger
}

// NewHTTPDownloader creates a new HTTP downloader.
func NewHTTPDownloader(cfg config.ThumbnailConfig) *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger.
func (d *HTTPDownloader) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// Download fetches url once. Nothing is retried.
func (d *HTTPDownloader) Download(ctx context.Context, url string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if d.maxBytes > 0 {
		body = io.LimitReader(resp.Body, d.maxBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if d.maxBytes > 0 && int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("%w: limit %s", ErrTooLarge, humanize.Bytes(uint64(d.maxBytes)))
	}

	d.logger.Debug("resource fetched", "url", url, "size", humanize.Bytes(uint64(len(data))))

	return &Resource{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
