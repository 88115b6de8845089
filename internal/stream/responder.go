// Package stream delivers resolved artifacts to HTTP clients as
// attachments.
package stream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/mediagate/internal/artifact"
	"github.com/iconidentify/mediagate/internal/domain"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 4096

// Releaser releases an artifact once it has been delivered.
type Releaser interface {
	Release(h *artifact.Handle) error
}

// Attachment describes how a file is presented to the client.
type Attachment struct {
	Filename     string
	FallbackName string
	MIMEType     string
}

// Responder streams artifacts in fixed-size chunks and releases them when
// the transfer ends, whether it completed or not.
type Responder struct {
	releaser  Releaser
	chunkSize int
	logger    *slog.Logger
}

// NewResponder creates a new Responder.
func NewResponder(releaser Releaser, chunkSize int, logger *slog.Logger) *Responder {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		releaser:  releaser,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Stream writes the handle's resolved file to w. The file is opened before
// any header is written so an unreadable artifact can still produce an
// error response. No Content-Length is sent. The handle is always released
// before Stream returns.
func (s *Responder) Stream(w http.ResponseWriter, r *http.Request, h *artifact.Handle, att Attachment) (int64, error) {
	defer s.release(h)

	f, err := os.Open(h.ResolvedPath())
	if err != nil {
		return 0, domain.NewMediaError(h.ID, "open", err)
	}
	defer f.Close()

	disposition, err := ContentDisposition(att.Filename)
	if err != nil {
		s.logger.Warn("using fallback attachment name",
			"artifact_id", h.ID,
			"fallback", att.FallbackName,
			"error", err,
		)
		disposition, err = ContentDisposition(att.FallbackName)
		if err != nil {
			return 0, domain.NewMediaError(h.ID, "stream", err)
		}
	}

	header := w.Header()
	header.Set("Content-Type", att.MIMEType)
	header.Set("Content-Disposition", disposition)
	header.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	start := time.Now()
	rc := http.NewResponseController(w)
	buf := make([]byte, s.chunkSize)
	var written int64

	for {
		if err := r.Context().Err(); err != nil {
			return written, s.aborted(h, written, err)
		}

		n, readErr := f.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return written, s.aborted(h, written, err)
			}
			written += int64(n)
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, s.aborted(h, written, err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, s.aborted(h, written, readErr)
		}
	}

	s.logger.Info("attachment streamed",
		"artifact_id", h.ID,
		"bytes", written,
		"size", humanize.Bytes(uint64(written)),
		"duration", time.Since(start),
	)
	return written, nil
}

func (s *Responder) aborted(h *artifact.Handle, written int64, cause error) error {
	s.logger.Warn("stream aborted",
		"artifact_id", h.ID,
		"sent", humanize.Bytes(uint64(written)),
		"error", cause,
	)
	return domain.NewMediaError(h.ID, "stream", fmt.Errorf("%w: %w", domain.ErrStreamAborted, cause))
}

func (s *Responder) release(h *artifact.Handle) {
	if err := s.releaser.Release(h); err != nil {
		s.logger.Error("failed to release artifact", "artifact_id", h.ID, "error", err)
	}
}

// ContentDisposition builds an attachment header carrying name as an
// RFC 5987 extended parameter.
func ContentDisposition(name string) (string, error) {
	if name == "" || !utf8.ValidString(name) {
		return "", domain.ErrFilenameEncoding
	}
	return "attachment; filename*=UTF-8''" + encodeRFC5987(name), nil
}

func encodeRFC5987(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
