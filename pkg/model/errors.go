package model

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrResolutionUnavailable means fewer than three distinct media URLs
	// could be resolved from the listing. The request must fail as a whole,
	// no partial batch is ever composed.
	ErrResolutionUnavailable = errors.New("fewer than 3 distinct media URLs resolved")

	// ErrInvalidInputCount means the compositor was given anything other
	// than exactly three inputs.
	ErrInvalidInputCount = errors.New("compositor requires exactly 3 inputs")

	ErrAlreadyExists = errors.New("object already exists")
	ErrNotFound      = errors.New("not found")
)

// DownloadError reports a transport failure while fetching a resolved URL.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for %q: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// CompositionError reports a transcoder graph construction or execution
// failure. Output carries the transcoder's diagnostic text.
type CompositionError struct {
	Output string
	Err    error
}

func (e *CompositionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("composition failed: %v: %s", e.Err, e.Output)
	}

	return fmt.Sprintf("composition failed: %v", e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }
