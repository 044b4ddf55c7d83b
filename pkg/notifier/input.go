package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/skillforge/notifykit/pkg/notification"
)

// Input describes one notification to create. Everything derivable is
// optional: category, expiry and channel defaults come from the record's
// normalization rules.
type Input struct {
	Type       string
	Title      string
	Message    string
	Priority   notification.Priority
	Importance notification.Importance
	Data       map[string]any
	Actions    []notification.Action
	Channels   notification.Channels

	// SendEmail opts the notification into email delivery. An email is only
	// actually queued for high and urgent priorities; lower priorities keep
	// the channel on the record without sending.
	SendEmail bool
	EmailTo   string // Recipient address, required when SendEmail is set

	GroupID      string
	ScheduledFor *time.Time
}

// Validate checks the input is complete enough to build a record from.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Type) == "" {
		return fmt.Errorf("%w: Type is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: Title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("%w: Message is required", ErrInvalidInput)
	}
	if in.SendEmail && strings.TrimSpace(in.EmailTo) == "" {
		return fmt.Errorf("%w: EmailTo is required when SendEmail is set", ErrInvalidInput)
	}
	return nil
}

// record builds the persisted entity for userID. Derived fields are filled
// by Normalize.
func (in Input) record(userID string, now time.Time) notification.Notification {
	n := notification.Notification{
		UserID:       userID,
		Type:         in.Type,
		Title:        in.Title,
		Message:      in.Message,
		Priority:     in.Priority,
		Importance:   in.Importance,
		Data:         in.Data,
		Actions:      in.Actions,
		Channels:     in.Channels,
		GroupID:      in.GroupID,
		ScheduledFor: in.ScheduledFor,
	}
	if in.SendEmail {
		n.Channels.Email = true
	}
	n.Normalize(now)
	return n
}

// wantsEmail reports whether the input produces an email intent for the
// normalized record n.
func (in Input) wantsEmail(n notification.Notification) bool {
	if !in.SendEmail || !n.Channels.Email {
		return false
	}
	return n.Priority == notification.PriorityHigh || n.Priority == notification.PriorityUrgent
}
