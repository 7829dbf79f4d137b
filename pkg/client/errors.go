package client

import (
	"errors"
	"fmt"
)

var (
	// ErrImageTooLarge is returned for images over MaxImageSize.
	ErrImageTooLarge = errors.New("image too large")

	// ErrUnsupportedImage is returned for images that are not JPEG, PNG or WEBP.
	ErrUnsupportedImage = errors.New("unsupported image format")

	// ErrNotFound is returned when a conversation does not exist.
	ErrNotFound = errors.New("not found")
)

// APIError is a backend rejection: a non-2xx status or success=false.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Path, e.StatusCode, e.Message)
}

// Is matches ErrNotFound for 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}
