package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrTrackNotFound     = errors.New("track not found")
	ErrEmptyCatalog      = errors.New("catalog is empty")
	ErrNoSource          = errors.New("no media source loaded")
	ErrInvalidVolume     = errors.New("volume must be between 0.0 and 1.0")
	ErrCatalogFetch      = errors.New("catalog fetch failed")
	ErrPlaybackRequest   = errors.New("playback request rejected")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrStreamTooLarge    = errors.New("stream exceeds size limit")
)

// PlayerError wraps errors with additional context
type PlayerError struct {
	Op    string // Operation that failed
	Track string // Track ID if applicable
	Err   error  // Underlying error
}

func (e *PlayerError) Error() string {
	if e.Track != "" {
		return fmt.Sprintf("%s failed for track %s: %v", e.Op, e.Track, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PlayerError) Unwrap() error {
	return e.Err
}

// NewPlayerError creates a new PlayerError
func NewPlayerError(op, track string, err error) *PlayerError {
	return &PlayerError{Op: op, Track: track, Err: err}
}

// CatalogFetchError is returned when the search endpoint fails or answers
// with a non-success status. Status is zero for transport failures.
type CatalogFetchError struct {
	Query  string
	Status int
	Err    error
}

func (e *CatalogFetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch catalog %q: status %d: %v", e.Query, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch catalog %q: %v", e.Query, e.Err)
}

func (e *CatalogFetchError) Unwrap() []error {
	return []error{ErrCatalogFetch, e.Err}
}

// PlaybackRequestError is returned when the media handle rejects a load or
// play request.
type PlaybackRequestError struct {
	Op    string
	Track string
	Err   error
}

func (e *PlaybackRequestError) Error() string {
	if e.Track != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Track, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PlaybackRequestError) Unwrap() []error {
	return []error{ErrPlaybackRequest, e.Err}
}

// NewPlaybackRequestError creates a new PlaybackRequestError
func NewPlaybackRequestError(op, track string, err error) *PlaybackRequestError {
	return &PlaybackRequestError{Op: op, Track: track, Err: err}
}
