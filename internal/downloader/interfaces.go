package downloader

import (
	"context"
)

// Downloader fetches small remote resources into memory.
type Downloader interface {
	// Download fetches url and returns its body and content type.
	Download(ctx context.Context, url string) (*Resource, error)
}

// Resource is a fetched remote body.
type Resource struct {
	Data        []byte
	ContentType string
}
