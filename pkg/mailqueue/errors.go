package mailqueue

import "errors"

var (
	// ErrQueueFull is returned when an enqueue would exceed the configured
	// capacity. The queue is left unmodified.
	ErrQueueFull = errors.New("mail queue is full")

	// ErrSenderNil is returned when the queue is created without a sender.
	ErrSenderNil = errors.New("sender cannot be nil")

	// ErrRateLimited is returned by ProcessBatch when the send-rate check is
	// denied. No tasks were dequeued.
	ErrRateLimited = errors.New("send rate limit reached")

	// ErrInvalidPriority is returned for an unknown priority value.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("queue already started")

	// ErrNotStarted is returned when Stop is called before Start.
	ErrNotStarted = errors.New("queue not started")
)
