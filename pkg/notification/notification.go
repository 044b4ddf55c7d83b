package notification

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a notification.
type Status string

const (
	StatusUnread    Status = "unread"
	StatusRead      Status = "read"
	StatusDismissed Status = "dismissed"
	StatusActedUpon Status = "acted_upon"
)

// Category groups notifications for filtering and preferences.
type Category string

const (
	CategoryLearning    Category = "learning"
	CategorySocial      Category = "social"
	CategorySystem      Category = "system"
	CategoryAchievement Category = "achievement"
	CategoryReminder    Category = "reminder"
	CategorySecurity    Category = "security"
)

// Priority represents the notification delivery priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Importance represents the visual severity of a notification.
type Importance string

const (
	ImportanceInfo    Importance = "info"
	ImportanceSuccess Importance = "success"
	ImportanceWarning Importance = "warning"
	ImportanceError   Importance = "error"
)

// Channel is a delivery channel for a notification.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
)

// ChannelStatus tracks per-channel delivery progress.
type ChannelStatus string

const (
	ChannelPending   ChannelStatus = "pending"
	ChannelSent      ChannelStatus = "sent"
	ChannelDelivered ChannelStatus = "delivered"
	ChannelFailed    ChannelStatus = "failed"
)

// Channels flags which delivery channels a notification targets.
type Channels struct {
	InApp bool `json:"in_app" bson:"in_app"`
	Email bool `json:"email" bson:"email"`
	Push  bool `json:"push" bson:"push"`
	SMS   bool `json:"sms" bson:"sms"`
}

// Enabled returns the list of enabled channels.
func (c Channels) Enabled() []Channel {
	var out []Channel
	if c.InApp {
		out = append(out, ChannelInApp)
	}
	if c.Email {
		out = append(out, ChannelEmail)
	}
	if c.Push {
		out = append(out, ChannelPush)
	}
	if c.SMS {
		out = append(out, ChannelSMS)
	}
	return out
}

// Analytics records user engagement with a notification.
type Analytics struct {
	Opened      bool       `json:"opened" bson:"opened"`
	OpenedAt    *time.Time `json:"opened_at,omitempty" bson:"opened_at,omitempty"`
	Clicked     bool       `json:"clicked" bson:"clicked"`
	ClickedAt   *time.Time `json:"clicked_at,omitempty" bson:"clicked_at,omitempty"`
	Dismissed   bool       `json:"dismissed" bson:"dismissed"`
	DismissedAt *time.Time `json:"dismissed_at,omitempty" bson:"dismissed_at,omitempty"`
}

// Action represents a call-to-action button in a notification.
type Action struct {
	Label string `json:"label" bson:"label"`
	URL   string `json:"url" bson:"url"`
	Style string `json:"style" bson:"style"` // primary, secondary, danger
}

// Notification is the persisted, stateful entity representing one notification.
type Notification struct {
	ID           string                    `json:"id" bson:"_id"`
	UserID       string                    `json:"user_id" bson:"user_id"`
	Type         string                    `json:"type" bson:"type"` // module_completed, achievement_unlocked, friend_request, ...
	Category     Category                  `json:"category" bson:"category"`
	Priority     Priority                  `json:"priority" bson:"priority"`
	Importance   Importance                `json:"importance" bson:"importance"`
	Title        string                    `json:"title" bson:"title"`
	Message      string                    `json:"message" bson:"message"`
	Data         map[string]any            `json:"data,omitempty" bson:"data,omitempty"`
	Actions      []Action                  `json:"actions,omitempty" bson:"actions,omitempty"`
	Status       Status                    `json:"status" bson:"status"`
	Read         bool                      `json:"read" bson:"read"`
	ReadAt       *time.Time                `json:"read_at,omitempty" bson:"read_at,omitempty"`
	Channels     Channels                  `json:"channels" bson:"channels"`
	Delivery     map[Channel]ChannelStatus `json:"delivery,omitempty" bson:"delivery,omitempty"`
	ScheduledFor *time.Time                `json:"scheduled_for,omitempty" bson:"scheduled_for,omitempty"`
	ExpiresAt    time.Time                 `json:"expires_at" bson:"expires_at"`
	GroupID      string                    `json:"group_id,omitempty" bson:"group_id,omitempty"`
	Analytics    Analytics                 `json:"analytics" bson:"analytics"`
	CreatedAt    time.Time                 `json:"created_at" bson:"created_at"`
}

// Normalize fills in derived and defaulted fields before persistence:
// identifier, timestamps, status, category inference and the expiry default.
// It is idempotent.
func (n *Notification) Normalize(now time.Time) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.Status == "" {
		n.Status = StatusUnread
	}
	n.Read = n.Status == StatusRead || n.Status == StatusActedUpon
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Importance == "" {
		n.Importance = ImportanceInfo
	}
	if n.Category == "" {
		n.Category = CategoryForType(n.Type)
	}
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = ExpiryForType(n.Type, n.CreatedAt)
	}
	if !n.Channels.InApp && !n.Channels.Email && !n.Channels.Push && !n.Channels.SMS {
		n.Channels.InApp = true
	}
	if n.Delivery == nil {
		n.Delivery = make(map[Channel]ChannelStatus)
	}
	for _, ch := range n.Channels.Enabled() {
		if _, ok := n.Delivery[ch]; !ok {
			n.Delivery[ch] = ChannelPending
		}
	}
}

// IsExpired returns true if the notification has passed its expiry time.
func (n *Notification) IsExpired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && now.After(n.ExpiresAt)
}

// MarkAsRead transitions the notification to read and records the open in
// analytics. Repeated calls are no-ops. Transitions out of dismissed or
// acted_upon back into read are deliberately allowed.
func (n *Notification) MarkAsRead(now time.Time) {
	if n.Read && n.Status == StatusRead {
		return
	}
	n.Read = true
	n.Status = StatusRead
	n.ReadAt = &now
	n.Analytics.Opened = true
	n.Analytics.OpenedAt = &now
}

// MarkActedUpon transitions the notification to acted_upon and records the
// click. An unread notification is read first, so acted_upon always implies
// read.
func (n *Notification) MarkActedUpon(now time.Time) {
	if !n.Read {
		n.MarkAsRead(now)
	}
	n.Status = StatusActedUpon
	n.Analytics.Clicked = true
	n.Analytics.ClickedAt = &now
}

// Dismiss transitions the notification to dismissed and records the dismissal.
// Read is derived from status, so it drops with the transition; ReadAt and
// the open analytics stay as history.
func (n *Notification) Dismiss(now time.Time) {
	n.Status = StatusDismissed
	n.Read = false
	n.Analytics.Dismissed = true
	n.Analytics.DismissedAt = &now
}
