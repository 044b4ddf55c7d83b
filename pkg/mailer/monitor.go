package mailer

import (
	"context"
	"log/slog"
	"time"

	"github.com/skillforge/notifykit/pkg/logger"
)

// Attempt is one delivery attempt record, successful or not.
type Attempt struct {
	Type              string    // Delivery type, e.g. "email"
	Recipient         string    // Recipient address
	Provider          string    // Provider that handled the attempt
	Success           bool      // Whether the provider accepted the message
	ProviderMessageID string    // Provider-assigned ID on success
	Err               string    // Provider error on failure
	At                time.Time // When the attempt finished
}

// Monitor is a write-only, best-effort sink for delivery attempts.
// Implementations must be safe for concurrent use; they are invoked off the
// send path and their failures are swallowed.
type Monitor interface {
	RecordAttempt(ctx context.Context, attempt Attempt)
}

// NoOpMonitor discards all attempts.
type NoOpMonitor struct{}

func (NoOpMonitor) RecordAttempt(ctx context.Context, attempt Attempt) {}

// LogMonitor records attempts to a slog logger.
type LogMonitor struct {
	logger *slog.Logger
}

// NewLogMonitor creates a monitor that logs every attempt.
func NewLogMonitor(log *slog.Logger) *LogMonitor {
	if log == nil {
		log = slog.Default()
	}
	return &LogMonitor{logger: log}
}

func (m *LogMonitor) RecordAttempt(ctx context.Context, attempt Attempt) {
	level := slog.LevelInfo
	if !attempt.Success {
		level = slog.LevelWarn
	}
	m.logger.LogAttrs(ctx, level, "email delivery attempt",
		logger.Provider(attempt.Provider),
		logger.Recipient(attempt.Recipient),
		slog.Bool("success", attempt.Success),
		slog.String("provider_message_id", attempt.ProviderMessageID),
		slog.String("attempt_error", attempt.Err),
	)
}
