// Package naming derives user-facing filename stems from provider metadata.
package naming

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxTitleLength caps the sanitized title, in characters.
	MaxTitleLength = 60

	// MaxCaptionLength caps the caption line used when no usable title exists.
	MaxCaptionLength = 50
)

// placeholderTitles are generic titles some platforms return for every post.
var placeholderTitles = map[string]struct{}{
	"Video":          {},
	"Reel":           {},
	"Instagram Reel": {},
	"Facebook Video": {},
}

var illegalChars = strings.NewReplacer(
	`\`, "",
	"/", "",
	"*", "",
	"?", "",
	":", "",
	`"`, "",
	"<", "",
	">", "",
	"|", "",
	"\n", "",
	"\r", "",
)

// TitleSource carries the provider fields a title can be derived from.
type TitleSource struct {
	Title       string
	Description string
	Caption     string
}

// ResolveTitle returns a sanitized, non-empty filename stem for src.
func ResolveTitle(src TitleSource) string {
	if title := Sanitize(pickTitle(src)); title != "" {
		return title
	}
	return Sanitize(Synthesize())
}

// Synthesize returns a generic title with a short random suffix.
func Synthesize() string {
	return "Video_" + uuid.New().String()[:4]
}

// Sanitize strips characters that are illegal in filenames, removes line
// breaks, truncates to MaxTitleLength characters and trims whitespace.
func Sanitize(title string) string {
	clean := illegalChars.Replace(title)
	clean = truncateRunes(clean, MaxTitleLength)
	return strings.TrimSpace(clean)
}

func pickTitle(src TitleSource) string {
	title := strings.TrimSpace(src.Title)
	if title != "" && !isPlaceholder(title) {
		return title
	}

	text := src.Description
	if strings.TrimSpace(text) == "" {
		text = src.Caption
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}

	line, _, _ := strings.Cut(text, "\n")
	return truncateRunes(line, MaxCaptionLength)
}

func isPlaceholder(title string) bool {
	_, ok := placeholderTitles[title]
	return ok
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
