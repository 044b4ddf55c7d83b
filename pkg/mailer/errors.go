package mailer

import "errors"

var (
	// ErrInvalidMessage is returned when a message fails validation.
	ErrInvalidMessage = errors.New("mailer: invalid message")

	// ErrInvalidConfig is returned when provider configuration is incomplete.
	ErrInvalidConfig = errors.New("mailer: invalid config")

	// ErrNoProviders is returned when a sender is constructed without providers.
	ErrNoProviders = errors.New("mailer: no providers configured")

	// ErrSendFailed wraps a single provider attempt failure.
	ErrSendFailed = errors.New("mailer: failed to send email")

	// ErrInvalidTemplate is returned for an unusable template registration.
	ErrInvalidTemplate = errors.New("mailer: invalid template")

	// ErrDeliveryExhausted is returned after every provider and all of its
	// local retries were spent without a successful delivery.
	ErrDeliveryExhausted = errors.New("mailer: delivery exhausted across all providers")
)
