// Package format maps caller format tokens to provider selectors and the
// MIME type the attachment is served with.
package format

import (
	"strings"

	"github.com/iconidentify/mediagate/internal/domain"
)

// Provider format selectors.
const (
	SelectorBestAudio = "bestaudio/best"
	SelectorBestMP4   = "best[ext=mp4]/best"
)

// AudioMIMEType is served for every audio format regardless of the container
// the provider emits.
const AudioMIMEType = "audio/mpeg"

// RingtoneSuffix is appended to the filename stem of ringtone downloads.
const RingtoneSuffix = "_Ringtone"

// Selection is the resolved download policy for one request.
type Selection struct {
	Format    domain.FormatID
	Selector  string
	AudioOnly bool
}

// Resolve maps a format token to a Selection. Unknown tokens select video.
func Resolve(token string) Selection {
	id := domain.ParseFormatID(token)
	if id.IsAudio() {
		return Selection{
			Format:    id,
			Selector:  SelectorBestAudio,
			AudioOnly: true,
		}
	}
	return Selection{
		Format:   id,
		Selector: SelectorBestMP4,
	}
}

// MIMEType returns the Content-Type for a file with the given extension.
func (s Selection) MIMEType(ext string) string {
	if s.AudioOnly {
		return AudioMIMEType
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "mp4"
	}
	return "video/" + ext
}

// Filename joins the title stem, the format suffix and the extension.
func (s Selection) Filename(title, ext string) string {
	name := title
	if s.Format == domain.FormatRingtone {
		name += RingtoneSuffix
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}
