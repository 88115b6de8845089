package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/mediagate/internal/artifact"
	"github.com/iconidentify/mediagate/internal/config"
	"github.com/iconidentify/mediagate/internal/domain"
	"github.com/iconidentify/mediagate/internal/format"
	"github.com/iconidentify/mediagate/internal/naming"
	"github.com/iconidentify/mediagate/internal/stream"
	"github.com/iconidentify/mediagate/pkg/ytdlp"
)

const (
	unknownAuthor   = "Unknown"
	unknownDuration = "N/A"
)

// Provider extracts metadata and media for a source URL.
type Provider interface {
	Probe(ctx context.Context, url string) (*ytdlp.Info, error)
	Fetch(ctx context.Context, url, selector, outputTemplate string) error
}

// MediaService orchestrates metadata probes and download preparation.
type MediaService struct {
	provider  Provider
	artifacts *artifact.Manager
	cfg       config.ProviderConfig
	minFree   int64
	logger    *slog.Logger
}

// NewMediaService creates a new media service.
func NewMediaService(
	provider Provider,
	artifacts *artifact.Manager,
	providerCfg config.ProviderConfig,
	storageCfg config.StorageConfig,
	logger *slog.Logger,
) *MediaService {
	return &MediaService{
		provider:  provider,
		artifacts: artifacts,
		cfg:       providerCfg,
		minFree:   storageCfg.MinFreeBytes,
		logger:    logger,
	}
}

// Download is a prepared artifact ready to be streamed. The caller owns
// the handle and must release it, which Responder.Stream does.
type Download struct {
	Handle     *artifact.Handle
	Attachment stream.Attachment
}

// Analyze probes url for metadata without downloading media.
func (s *MediaService) Analyze(ctx context.Context, url string) (*domain.VideoMetadata, error) {
	if url == "" {
		return nil, domain.NewMediaError("", "analyze", domain.ErrInvalidInput)
	}

	info, err := s.probe(ctx, url)
	if err != nil {
		return nil, domain.NewMediaError("", "analyze", err)
	}

	return &domain.VideoMetadata{
		ID:            info.ID,
		Title:         naming.ResolveTitle(titleSource(info)),
		Author:        firstNonEmpty(info.Uploader, info.Channel, unknownAuthor),
		DurationLabel: firstNonEmpty(info.DurationString, unknownDuration),
		ThumbnailURL:  info.Thumbnail,
		PlatformKey:   info.ExtractorKey,
		SourceURL:     url,
		Formats:       domain.FormatCatalog(),
	}, nil
}

// Prepare fetches the requested rendition into a fresh temp artifact and
// resolves its attachment name and MIME type. On error every temp file for
// the allocation has already been removed.
func (s *MediaService) Prepare(ctx context.Context, req domain.DownloadRequest) (*Download, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sel := format.Resolve(req.Format.String())

	if err := s.checkFreeSpace(); err != nil {
		return nil, err
	}

	h, err := s.artifacts.Allocate(ctx)
	if err != nil {
		return nil, err
	}

	prepared := false
	defer func() {
		if !prepared {
			s.artifacts.Release(h)
		}
	}()

	logger := s.logger.With("artifact_id", h.ID, "format", sel.Format)

	titleCtx, cancelTitle := context.WithCancel(ctx)
	defer cancelTitle()
	titleCh := make(chan string, 1)
	go func() {
		titleCh <- s.resolveTitle(titleCtx, req.SourceURL, logger)
	}()

	if err := s.fetch(ctx, req.SourceURL, sel.Selector, h.OutputTemplate()); err != nil {
		logger.Warn("fetch failed", "error", err)
		return nil, domain.NewMediaError(h.ID, "fetch", fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err))
	}

	if _, err := s.artifacts.Locate(h); err != nil {
		logger.Warn("no usable output", "error", err)
		return nil, err
	}

	var title string
	select {
	case title = <-titleCh:
	case <-ctx.Done():
		return nil, domain.NewMediaError(h.ID, "prepare", ctx.Err())
	}

	ext := h.Extension()
	fallback := "download_" + h.ID.String()
	if ext != "" {
		fallback += "." + ext
	}

	logger.Info("download prepared",
		"title", title,
		"ext", ext,
		"size", humanize.Bytes(uint64(h.Size())),
	)

	prepared = true
	return &Download{
		Handle: h,
		Attachment: stream.Attachment{
			Filename:     sel.Filename(title, ext),
			FallbackName: fallback,
			MIMEType:     sel.MIMEType(ext),
		},
	}, nil
}

// resolveTitle never fails; a probe error yields a synthesized title.
func (s *MediaService) resolveTitle(ctx context.Context, url string, logger *slog.Logger) string {
	info, err := s.probe(ctx, url)
	if err != nil {
		logger.Warn("title probe failed, using generic title", "error", err)
		return naming.ResolveTitle(naming.TitleSource{})
	}
	return naming.ResolveTitle(titleSource(info))
}

func (s *MediaService) probe(ctx context.Context, url string) (*ytdlp.Info, error) {
	if s.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ProbeTimeout)
		defer cancel()
	}

	info, err := s.provider.Probe(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProbeFailed, err)
	}
	return info, nil
}

func (s *MediaService) fetch(ctx context.Context, url, selector, template string) error {
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}
	return s.provider.Fetch(ctx, url, selector, template)
}

func (s *MediaService) checkFreeSpace() error {
	if s.minFree <= 0 {
		return nil
	}
	free, err := s.artifacts.FreeBytes()
	if err != nil {
		s.logger.Debug("free space check unavailable", "error", err)
		return nil
	}
	if free < uint64(s.minFree) {
		s.logger.Warn("temp storage below floor",
			"free", humanize.Bytes(free),
			"required", humanize.Bytes(uint64(s.minFree)),
		)
		return domain.NewMediaError("", "allocate", domain.ErrStorageFull)
	}
	return nil
}

func titleSource(info *ytdlp.Info) naming.TitleSource {
	return naming.TitleSource{
		Title:       info.Title,
		Description: info.Description,
		Caption:     info.Caption,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
