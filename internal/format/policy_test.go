package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iconidentify/mediagate/internal/domain"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		token     string
		format    domain.FormatID
		selector  string
		audioOnly bool
	}{
		{"mp3", domain.FormatMP3, SelectorBestAudio, true},
		{"ringtone", domain.FormatRingtone, SelectorBestAudio, true},
		{"mp4", domain.FormatMP4, SelectorBestMP4, false},
		{"", domain.FormatMP4, SelectorBestMP4, false},
		{"anything-else", domain.FormatMP4, SelectorBestMP4, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			sel := Resolve(tt.token)
			assert.Equal(t, tt.format, sel.Format)
			assert.Equal(t, tt.selector, sel.Selector)
			assert.Equal(t, tt.audioOnly, sel.AudioOnly)
		})
	}
}

func TestSelection_MIMEType(t *testing.T) {
	// Audio is always reported as audio/mpeg, whatever the container.
	assert.Equal(t, "audio/mpeg", Resolve("mp3").MIMEType("m4a"))
	assert.Equal(t, "audio/mpeg", Resolve("ringtone").MIMEType("webm"))

	for _, token := range []string{"mp4", "anything-else"} {
		mime := Resolve(token).MIMEType("mp4")
		assert.True(t, strings.HasPrefix(mime, "video/"), "token %q gave %q", token, mime)
	}

	video := Resolve("mp4")
	assert.Equal(t, "video/webm", video.MIMEType("webm"))
	assert.Equal(t, "video/mp4", video.MIMEType(".MP4"))
	assert.Equal(t, "video/mp4", video.MIMEType(""))
}

func TestSelection_Filename(t *testing.T) {
	assert.Equal(t, "Song_Ringtone.mp3", Resolve("ringtone").Filename("Song", "mp3"))
	assert.Equal(t, "Song.m4a", Resolve("mp3").Filename("Song", "m4a"))
	assert.Equal(t, "Clip.mp4", Resolve("mp4").Filename("Clip", ".mp4"))
	assert.Equal(t, "Clip", Resolve("mp4").Filename("Clip", ""))
}
