package notification

import "errors"

var (
	// ErrNotFound is returned when a notification does not exist.
	ErrNotFound = errors.New("notification not found")

	// ErrInvalidInput is returned when a notification fails validation.
	ErrInvalidInput = errors.New("invalid notification input")
)
