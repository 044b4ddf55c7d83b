package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillforge/notifykit/pkg/cache"
	"github.com/skillforge/notifykit/pkg/logger"
	"github.com/skillforge/notifykit/pkg/mailer"
	"github.com/skillforge/notifykit/pkg/notification"
)

// Service orchestrates notification creation and reads. Writes go straight
// to storage; hot read paths (unread count, recent list) are served through
// short-lived caches that every write invalidates.
type Service struct {
	storage   notification.Storage
	templates *mailer.Registry
	logger    *slog.Logger

	unreadTTL   time.Duration
	recentTTL   time.Duration
	unreadCache *cache.TTLCache[string, int64]
	recentCache *cache.TTLCache[string, []notification.Notification]
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTemplates sets the email template registry. Default is the built-in
// registry.
func WithTemplates(r *mailer.Registry) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.templates = r
		}
	}
}

// WithServiceLogger sets the logger for the service.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithUnreadCacheTTL sets how long unread counts are served from cache.
// Default is 60s.
func WithUnreadCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.unreadTTL = ttl
		}
	}
}

// WithRecentCacheTTL sets how long recent lists are served from cache.
// Default is 120s.
func WithRecentCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.recentTTL = ttl
		}
	}
}

// NewService creates a notification orchestrator over storage.
func NewService(storage notification.Storage, opts ...ServiceOption) (*Service, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	s := &Service{
		storage:   storage,
		templates: mailer.NewRegistry(),
		logger:    slog.Default(),
		unreadTTL: time.Minute,
		recentTTL: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unreadCache = cache.NewTTLCache[string, int64]()
	s.recentCache = cache.NewTTLCache[string, []notification.Notification]()

	return s, nil
}

// Close releases cache resources.
func (s *Service) Close() {
	s.unreadCache.Close()
	s.recentCache.Close()
}

// Send persists one notification and returns the stored record plus the
// delivery intents it implies. Persistence is the only failure surfaced:
// intents are decisions, not executed effects.
func (s *Service) Send(ctx context.Context, userID string, in Input) (*notification.Notification, []Intent, error) {
	if userID == "" {
		return nil, nil, ErrUserIDRequired
	}
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	n := in.record(userID, time.Now())
	if err := s.storage.Create(ctx, n); err != nil {
		return nil, nil, fmt.Errorf("failed to store notification: %w", err)
	}
	s.invalidate(userID)

	s.logger.LogAttrs(ctx, slog.LevelDebug, "notification stored",
		logger.UserID(userID),
		logger.NotificationID(n.ID),
		slog.String("type", n.Type),
	)

	return &n, s.intents(ctx, userID, n, in), nil
}

// intents derives the delivery side effects for a stored record.
func (s *Service) intents(ctx context.Context, userID string, n notification.Notification, in Input) []Intent {
	out := []Intent{RealtimeIntent{
		Topic:        UserTopic(userID),
		Notification: n,
	}}

	if !in.wantsEmail(n) {
		return out
	}

	tmplName := TemplateForType(n.Type)
	body, err := s.templates.Get(tmplName).RenderBody(ctx, mailer.TemplateData{
		Title:       n.Title,
		Message:     n.Message,
		ActionURL:   firstActionURL(n.Actions),
		ActionLabel: firstActionLabel(n.Actions),
		Fields:      n.Data,
	})
	if err != nil {
		// The fallback template cannot fail on plain title and message, so
		// a render error never blocks the email.
		s.logger.LogAttrs(ctx, slog.LevelWarn, "template render failed, using fallback",
			logger.NotificationID(n.ID),
			slog.String("template", tmplName),
			logger.Error(err),
		)
		body, _ = mailer.FallbackTemplate{}.RenderBody(ctx, mailer.TemplateData{
			Title:   n.Title,
			Message: n.Message,
		})
		tmplName = ""
	}

	return append(out, EmailIntent{
		Message: mailer.Message{
			To:       in.EmailTo,
			Subject:  n.Title,
			BodyHTML: body,
			Tag:      n.Type,
			Metadata: map[string]string{
				"notification_id": n.ID,
				"user_id":         userID,
			},
		},
		Priority: lanePriority(n.Priority),
		Template: tmplName,
	})
}

// SendToUsers fans one input out to many users. Each user is independent: a
// failure for one never blocks the rest, and the joined error reports every
// failed user.
func (s *Service) SendToUsers(ctx context.Context, userIDs []string, in Input) ([]notification.Notification, []Intent, error) {
	if len(userIDs) == 0 {
		return nil, nil, ErrNoRecipients
	}

	var (
		records []notification.Notification
		intents []Intent
		errs    []error
	)
	for _, userID := range userIDs {
		n, ni, err := s.Send(ctx, userID, in)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		records = append(records, *n)
		intents = append(intents, ni...)
	}

	return records, intents, errors.Join(errs...)
}

// Get returns a single notification.
func (s *Service) Get(ctx context.Context, userID, id string) (*notification.Notification, error) {
	return s.storage.Get(ctx, userID, id)
}

// List returns a filtered page of the user's notifications, uncached.
func (s *Service) List(ctx context.Context, userID string, opts notification.ListOptions) ([]notification.Notification, error) {
	return s.storage.List(ctx, userID, opts)
}

// Recent returns the user's newest notifications, served from a short-lived
// cache.
func (s *Service) Recent(ctx context.Context, userID string) ([]notification.Notification, error) {
	if cached, ok := s.recentCache.Get(userID); ok {
		return cached, nil
	}

	list, err := s.storage.List(ctx, userID, notification.ListOptions{})
	if err != nil {
		return nil, err
	}
	s.recentCache.Set(userID, list, s.recentTTL)
	return list, nil
}

// UnreadCount returns the user's unread total, served from a short-lived
// cache.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if cached, ok := s.unreadCache.Get(userID); ok {
		return cached, nil
	}

	count, err := s.storage.CountUnread(ctx, userID, "")
	if err != nil {
		return 0, err
	}
	s.unreadCache.Set(userID, count, s.unreadTTL)
	return count, nil
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) (*notification.Notification, error) {
	n, err := s.storage.MarkRead(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return n, nil
}

// MarkActedUpon marks one notification as acted upon, reading it first when
// needed.
func (s *Service) MarkActedUpon(ctx context.Context, userID, id string) (*notification.Notification, error) {
	n, err := s.storage.MarkActedUpon(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return n, nil
}

// Dismiss dismisses one notification.
func (s *Service) Dismiss(ctx context.Context, userID, id string) (*notification.Notification, error) {
	n, err := s.storage.Dismiss(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return n, nil
}

// MarkAllRead marks the user's unread notifications as read, optionally
// scoped to a category. Returns the number of records updated.
func (s *Service) MarkAllRead(ctx context.Context, userID string, category notification.Category) (int64, error) {
	count, err := s.storage.MarkAllRead(ctx, userID, category)
	if err != nil {
		return 0, err
	}
	s.invalidate(userID)
	return count, nil
}

// Stats returns grouped counts for the user.
func (s *Service) Stats(ctx context.Context, userID string) (*notification.Stats, error) {
	return s.storage.Stats(ctx, userID)
}

// DeleteExpired removes notifications past their expiry.
func (s *Service) DeleteExpired(ctx context.Context) (int64, error) {
	return s.storage.DeleteExpired(ctx, time.Now())
}

// invalidate drops the user's cached reads after any write.
func (s *Service) invalidate(userID string) {
	s.unreadCache.Delete(userID)
	s.recentCache.Delete(userID)
}

func firstActionURL(actions []notification.Action) string {
	if len(actions) == 0 {
		return ""
	}
	return actions[0].URL
}

func firstActionLabel(actions []notification.Action) string {
	if len(actions) == 0 {
		return ""
	}
	return actions[0].Label
}
