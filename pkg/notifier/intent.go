package notifier

import (
	"strings"

	"github.com/skillforge/notifykit/pkg/mailer"
	"github.com/skillforge/notifykit/pkg/mailqueue"
	"github.com/skillforge/notifykit/pkg/notification"
)

// Intent is a side effect the orchestrator decided on but did not execute.
// Send persists the record and returns intents; the Dispatcher carries them
// out. Keeping the decision and the execution apart means a slow or failing
// channel can never roll back a stored notification.
type Intent interface {
	intent()
}

// RealtimeIntent asks for an in-app push of the stored record to the user's
// topic.
type RealtimeIntent struct {
	Topic        string
	Notification notification.Notification
}

func (RealtimeIntent) intent() {}

// EmailIntent asks for a rendered email to be queued for delivery.
type EmailIntent struct {
	Message  mailer.Message
	Priority mailqueue.Priority
	Template string // Template the body was rendered with, for diagnostics
}

func (EmailIntent) intent() {}

// UserTopic returns the per-user realtime topic.
func UserTopic(userID string) string {
	return "user-" + userID
}

// TemplateForType maps a notification type onto an email template name.
// Unknown types return "" which the template registry resolves to the
// fallback renderer.
func TemplateForType(notificationType string) string {
	switch {
	case strings.HasPrefix(notificationType, "module"):
		return mailer.TemplateModuleAssignment
	case strings.HasPrefix(notificationType, "achievement"), strings.HasPrefix(notificationType, "badge"):
		return mailer.TemplateAchievement
	case strings.HasPrefix(notificationType, "reminder"), strings.HasPrefix(notificationType, "deadline"),
		strings.HasPrefix(notificationType, "event"):
		return mailer.TemplateReminder
	case strings.HasPrefix(notificationType, "password"):
		return mailer.TemplatePasswordReset
	case strings.HasPrefix(notificationType, "welcome"):
		return mailer.TemplateWelcome
	default:
		return ""
	}
}

// lanePriority maps notification urgency onto a delivery queue lane.
func lanePriority(p notification.Priority) mailqueue.Priority {
	switch p {
	case notification.PriorityUrgent:
		return mailqueue.PriorityHigh
	case notification.PriorityHigh:
		return mailqueue.PriorityNormal
	default:
		return mailqueue.PriorityLow
	}
}
