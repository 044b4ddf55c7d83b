package notification

import (
	"context"
	"time"
)

// SortOrder controls list ordering.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// ListOptions provides filtering and pagination for listing notifications.
type ListOptions struct {
	Category  Category  // Empty matches all categories
	Status    Status    // Empty matches all statuses
	Read      *bool     // Nil matches both read and unread
	Limit     int       // Defaults to 20 when <= 0
	Offset    int       // Number of notifications to skip
	SortBy    string    // "created_at" or "expires_at"; anything else falls back to "created_at"
	SortOrder SortOrder // Defaults to SortDesc
}

// DefaultListLimit bounds a single page when the caller does not ask for one.
const DefaultListLimit = 20

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	// Whitelisted so every Storage implementation sorts the same fields.
	switch o.SortBy {
	case "created_at", "expires_at":
	default:
		o.SortBy = "created_at"
	}
	if o.SortOrder == "" {
		o.SortOrder = SortDesc
	}
	return o
}

// Stats is the grouped aggregation over one user's notifications.
type Stats struct {
	Total      int64              `json:"total"`
	Unread     int64              `json:"unread"`
	ByCategory map[Category]int64 `json:"by_category"`
	ByStatus   map[Status]int64   `json:"by_status"`
}

// Storage is the authoritative record store for notifications. It is the
// sole owner of notification state; callers orchestrate but never mutate
// records outside of it.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, n Notification) error

	// CreateBatch stores many notifications in one operation (fan-out insert).
	CreateBatch(ctx context.Context, ns []Notification) error

	// Get retrieves a single notification.
	Get(ctx context.Context, userID, id string) (*Notification, error)

	// List returns an ordered, paginated slice of a user's notifications.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// MarkRead performs the read transition and returns the updated record.
	MarkRead(ctx context.Context, userID, id string) (*Notification, error)

	// MarkActedUpon performs the acted-upon transition (reading first when
	// needed) and returns the updated record.
	MarkActedUpon(ctx context.Context, userID, id string) (*Notification, error)

	// Dismiss performs the dismissed transition and returns the updated record.
	Dismiss(ctx context.Context, userID, id string) (*Notification, error)

	// MarkAllRead marks every unread notification of the user as read,
	// optionally scoped to a category. Returns the number of records updated.
	MarkAllRead(ctx context.Context, userID string, category Category) (int64, error)

	// CountUnread returns the unread count, optionally scoped to a category.
	CountUnread(ctx context.Context, userID string, category Category) (int64, error)

	// Stats returns grouped counts per category and status.
	Stats(ctx context.Context, userID string) (*Stats, error)

	// DeleteExpired removes notifications whose expiry passed, regardless of
	// state. Returns the number of records removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
