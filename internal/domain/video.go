package domain

// FormatID identifies one of the output renditions a caller can request.
type FormatID string

const (
	FormatMP4      FormatID = "mp4"
	FormatMP3      FormatID = "mp3"
	FormatRingtone FormatID = "ringtone"
)

// String returns the string representation of the FormatID.
func (f FormatID) String() string {
	return string(f)
}

// IsAudio reports whether the format is delivered as audio.
func (f FormatID) IsAudio() bool {
	return f == FormatMP3 || f == FormatRingtone
}

// ParseFormatID maps a caller-supplied token to a FormatID.
// Unknown and empty tokens fall back to FormatMP4.
func ParseFormatID(token string) FormatID {
	switch FormatID(token) {
	case FormatMP3:
		return FormatMP3
	case FormatRingtone:
		return FormatRingtone
	default:
		return FormatMP4
	}
}

// MediaKind is the kind of media a format carries.
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

// FormatDescriptor describes a selectable output format.
type FormatDescriptor struct {
	ID        FormatID  `json:"id"`
	Kind      MediaKind `json:"type"`
	Label     string    `json:"quality"`
	Extension string    `json:"ext"`
}

// FormatCatalog returns the static list of formats offered for every source.
// The list is not validated against what the provider can actually deliver.
func FormatCatalog() []FormatDescriptor {
	return []FormatDescriptor{
		{ID: FormatMP4, Kind: MediaKindVideo, Label: "Video", Extension: "mp4"},
		{ID: FormatMP3, Kind: MediaKindAudio, Label: "Audio Only", Extension: "mp3"},
		{ID: FormatRingtone, Kind: MediaKindAudio, Label: "Ringtone", Extension: "mp3"},
	}
}

// VideoMetadata is the result of a metadata-only probe.
type VideoMetadata struct {
	ID            string             `json:"id,omitempty"`
	Title         string             `json:"title"`
	Author        string             `json:"author"`
	DurationLabel string             `json:"duration"`
	ThumbnailURL  string             `json:"thumbnail,omitempty"`
	PlatformKey   string             `json:"platform,omitempty"`
	SourceURL     string             `json:"resolved_url"`
	Formats       []FormatDescriptor `json:"formats"`
}

// DownloadRequest is the input to the download pipeline.
type DownloadRequest struct {
	SourceURL string
	Format    FormatID
}

// Validate checks that the request can be processed.
func (r DownloadRequest) Validate() error {
	if r.SourceURL == "" {
		return NewMediaError("", "validate", ErrInvalidInput)
	}
	return nil
}
