package mailer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/skillforge/notifykit/pkg/logger"
)

// FailoverSender tries an ordered list of providers: the primary first, then
// each backup. Every provider gets up to maxRetries local attempts with
// exponential backoff before the next provider is tried. The send fails only
// when all providers and their retries are exhausted.
type FailoverSender struct {
	providers  []Provider
	maxRetries int
	baseDelay  time.Duration
	monitor    Monitor
	logger     *slog.Logger
}

// FailoverOption configures a FailoverSender.
type FailoverOption func(*FailoverSender)

// WithMaxRetries sets the per-provider attempt budget. Default is 3.
func WithMaxRetries(n int) FailoverOption {
	return func(s *FailoverSender) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryBaseDelay sets the first backoff delay; each further retry doubles
// it (1s, 2s, 4s, ...). Default is 1s.
func WithRetryBaseDelay(d time.Duration) FailoverOption {
	return func(s *FailoverSender) {
		if d > 0 {
			s.baseDelay = d
		}
	}
}

// WithMonitor sets the delivery attempt sink. Default is NoOpMonitor.
func WithMonitor(m Monitor) FailoverOption {
	return func(s *FailoverSender) {
		if m != nil {
			s.monitor = m
		}
	}
}

// WithLogger sets the logger for the FailoverSender.
func WithLogger(log *slog.Logger) FailoverOption {
	return func(s *FailoverSender) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewFailoverSender creates a sender over an ordered provider list.
func NewFailoverSender(providers []Provider, opts ...FailoverOption) (*FailoverSender, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	s := &FailoverSender{
		providers:  providers,
		maxRetries: 3,
		baseDelay:  time.Second,
		monitor:    NoOpMonitor{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Send delivers msg through the provider chain. On success the result names
// the accepting provider and the total attempt count. Returns
// ErrDeliveryExhausted (wrapping the last provider error) when every provider
// and retry is spent.
func (s *FailoverSender) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	var (
		totalAttempts int
		lastErr       error
	)

	for _, provider := range s.providers {
		for attempt := 1; attempt <= s.maxRetries; attempt++ {
			totalAttempts++

			messageID, err := provider.Send(ctx, msg)
			s.recordAttempt(provider.Name(), msg, messageID, err)

			if err == nil {
				s.logger.LogAttrs(ctx, slog.LevelInfo, "email delivered",
					logger.Provider(provider.Name()),
					logger.Recipient(msg.To),
					logger.Attempt(totalAttempts),
				)
				return &SendResult{
					Provider:  provider.Name(),
					MessageID: messageID,
					Attempts:  totalAttempts,
				}, nil
			}

			lastErr = err
			s.logger.LogAttrs(ctx, slog.LevelWarn, "email provider attempt failed",
				logger.Provider(provider.Name()),
				logger.Recipient(msg.To),
				logger.Attempt(attempt),
				logger.Error(err),
			)

			// Back off before retrying the same provider; switching to the
			// next provider happens without delay.
			if attempt < s.maxRetries {
				if err := s.sleep(ctx, s.baseDelay<<(attempt-1)); err != nil {
					return nil, err
				}
			}
		}
	}

	s.logger.LogAttrs(ctx, slog.LevelError, "email delivery exhausted",
		logger.Recipient(msg.To),
		logger.Attempt(totalAttempts),
		logger.Error(lastErr),
	)

	return nil, errors.Join(ErrDeliveryExhausted, lastErr)
}

// recordAttempt forwards the attempt to the monitoring sink without ever
// blocking or failing the send path.
func (s *FailoverSender) recordAttempt(provider string, msg Message, messageID string, sendErr error) {
	attempt := Attempt{
		Type:              "email",
		Recipient:         msg.To,
		Provider:          provider,
		Success:           sendErr == nil,
		ProviderMessageID: messageID,
		At:                time.Now(),
	}
	if sendErr != nil {
		attempt.Err = sendErr.Error()
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("monitoring sink panicked", slog.Any("panic", r))
			}
		}()
		s.monitor.RecordAttempt(context.Background(), attempt)
	}()
}

func (s *FailoverSender) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
