package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrInvalidInput is returned when a request is missing or has malformed parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProbeFailed is returned when metadata extraction fails.
	ErrProbeFailed = errors.New("metadata probe failed")

	// ErrDownloadFailed is returned when the provider fetch fails or produces no usable file.
	ErrDownloadFailed = errors.New("download failed")

	// ErrArtifactNotFound is returned when the provider wrote no file under the allocated base path.
	ErrArtifactNotFound = fmt.Errorf("%w: no output file", ErrDownloadFailed)

	// ErrEmptyArtifact is returned when the provider wrote a zero-length file.
	ErrEmptyArtifact = fmt.Errorf("%w: output file is empty", ErrDownloadFailed)

	// ErrAmbiguousArtifact is returned when more than one file exists under one base path.
	ErrAmbiguousArtifact = fmt.Errorf("%w: multiple output files", ErrDownloadFailed)

	// ErrStorageFull is returned when the temp storage root is below its free space floor.
	ErrStorageFull = fmt.Errorf("%w: insufficient storage space", ErrDownloadFailed)

	// ErrStreamAborted is returned when the transfer to the client stops before the last byte.
	ErrStreamAborted = errors.New("stream aborted")

	// ErrFilenameEncoding is returned when an attachment filename cannot be percent-encoded.
	ErrFilenameEncoding = errors.New("filename encoding failed")

	// ErrUnknownAllocation is returned for a handle the artifact manager does not track.
	ErrUnknownAllocation = errors.New("unknown allocation")

	// ErrArtifactReleased is returned when an operation targets an already released handle.
	ErrArtifactReleased = errors.New("artifact already released")
)

// MediaError wraps an error with artifact context.
type MediaError struct {
	ID  ArtifactID
	Op  string
	Err error
}

func (e *MediaError) Error() string {
	if e.ID != "" {
		return e.Op + " [" + e.ID.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

// NewMediaError creates a new MediaError.
func NewMediaError(id ArtifactID, op string, err error) *MediaError {
	return &MediaError{
		ID:  id,
		Op:  op,
		Err: err,
	}
}
