package naming

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var synthesizedPattern = regexp.MustCompile(`^Video_[0-9a-f]{4}$`)

func TestResolveTitle(t *testing.T) {
	tests := []struct {
		name string
		src  TitleSource
		want string
	}{
		{"plain title", TitleSource{Title: "My Holiday"}, "My Holiday"},
		{"illegal characters stripped", TitleSource{Title: `a\b/c*d?e:f"g<h>i|j`}, "abcdefghij"},
		{"surrounding whitespace trimmed", TitleSource{Title: "  spaced  "}, "spaced"},
		{"placeholder uses description", TitleSource{Title: "Reel", Description: "Sunset at the beach\nmore text"}, "Sunset at the beach"},
		{"instagram placeholder", TitleSource{Title: "Instagram Reel", Description: "Cat video"}, "Cat video"},
		{"facebook placeholder", TitleSource{Title: "Facebook Video", Caption: "From caption"}, "From caption"},
		{"empty title uses caption", TitleSource{Caption: "Only caption"}, "Only caption"},
		{"description preferred over caption", TitleSource{Description: "desc", Caption: "cap"}, "desc"},
		{"unicode title kept", TitleSource{Title: "Música día ☀"}, "Música día ☀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTitle(tt.src))
		})
	}
}

func TestResolveTitle_Synthesized(t *testing.T) {
	tests := []struct {
		name string
		src  TitleSource
	}{
		{"nothing", TitleSource{}},
		{"placeholder without text", TitleSource{Title: "Video"}},
		{"whitespace only", TitleSource{Title: "   ", Description: " \n "}},
		{"only illegal characters", TitleSource{Title: `???***`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTitle(tt.src)
			assert.Regexp(t, synthesizedPattern, got)
		})
	}
}

func TestResolveTitle_CaptionLineCapped(t *testing.T) {
	long := strings.Repeat("x", 80) + "\nsecond line"
	got := ResolveTitle(TitleSource{Description: long})
	assert.Equal(t, strings.Repeat("x", MaxCaptionLength), got)
}

func TestSanitize_Properties(t *testing.T) {
	inputs := []string{
		strings.Repeat(`a/b\c`, 40),
		"line one\nline two\r\nline three",
		strings.Repeat("é", 100),
		`"quoted" <tag> |pipe| what? yes: no*`,
		"\r\n\r\n",
		strings.Repeat("日本語のタイトル", 20),
	}

	for _, in := range inputs {
		got := Sanitize(in)
		assert.NotContainsf(t, got, "\n", "input %q", in)
		assert.NotContainsf(t, got, "\r", "input %q", in)
		for _, c := range []string{`\`, "/", "*", "?", ":", `"`, "<", ">", "|"} {
			assert.NotContainsf(t, got, c, "input %q", in)
		}
		assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxTitleLength)
		assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	}
}

func TestSanitize_DropsLineBreaks(t *testing.T) {
	assert.Equal(t, "ab", Sanitize("a\r\nb"))
}

func TestSynthesize(t *testing.T) {
	a, b := Synthesize(), Synthesize()
	require.Regexp(t, synthesizedPattern, a)
	require.Regexp(t, synthesizedPattern, b)
}
