package mailer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	BodyHTML string            `json:"body_html"`
	Tag      string            `json:"tag,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks the message has a deliverable recipient and content.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: To is required", ErrInvalidMessage)
	}
	if !emailRegex.MatchString(m.To) {
		return fmt.Errorf("%w: To must be a valid email address", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.BodyHTML) == "" {
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidMessage)
	}
	return nil
}

// Provider is one email delivery backend. The wire protocol is the
// provider's concern; the pipeline only needs an opaque send capability.
type Provider interface {
	// Name identifies the provider in logs and monitoring records.
	Name() string

	// Send delivers the message and returns the provider's message ID.
	Send(ctx context.Context, msg Message) (string, error)
}

// Sender is the outbound email capability the delivery queue dispatches
// through.
type Sender interface {
	Send(ctx context.Context, msg Message) (*SendResult, error)
}

// SendResult describes a successful delivery.
type SendResult struct {
	Provider  string // Name of the provider that accepted the message
	MessageID string // Provider-assigned message ID
	Attempts  int    // Total attempts across all providers
}

// Config holds mailer configuration.
// Postmark tokens are optional to support development environments where the
// DevProvider writes messages to disk instead.
type Config struct {
	PostmarkServerToken  string        `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string        `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string        `env:"SENDER_EMAIL,required"`
	SupportEmail         string        `env:"SUPPORT_EMAIL,required"`
	MaxRetries           int           `env:"MAILER_MAX_RETRIES" envDefault:"3"`
	RetryBaseDelay       time.Duration `env:"MAILER_RETRY_BASE_DELAY" envDefault:"1s"`
}
