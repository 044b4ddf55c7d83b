package notifier

import "errors"

var (
	// ErrStorageNil is returned when the service is created without storage.
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrUserIDRequired is returned for operations without a user ID.
	ErrUserIDRequired = errors.New("user ID is required")

	// ErrNoRecipients is returned when a fan-out send has no target users.
	ErrNoRecipients = errors.New("no recipients")

	// ErrInvalidInput is returned when a notification input fails validation.
	ErrInvalidInput = errors.New("invalid notification input")
)
