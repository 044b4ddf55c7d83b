package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of Storage.
// Suitable for development and testing.
type MemoryStorage struct {
	records map[string][]*Notification // userID -> notifications
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory notification store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string][]*Notification),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, n Notification) error {
	if n.UserID == "" {
		return ErrInvalidInput
	}

	n.Normalize(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := n
	s.records[n.UserID] = append(s.records[n.UserID], &stored)
	return nil
}

func (s *MemoryStorage) CreateBatch(ctx context.Context, ns []Notification) error {
	for _, n := range ns {
		if err := s.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, userID, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.find(userID, id)
	if err != nil {
		return nil, err
	}

	out := *n
	return &out, nil
}

func (s *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	opts = opts.normalized()
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Notification
	for _, n := range s.records[userID] {
		if n.IsExpired(now) {
			continue
		}
		if opts.Category != "" && n.Category != opts.Category {
			continue
		}
		if opts.Status != "" && n.Status != opts.Status {
			continue
		}
		if opts.Read != nil && n.Read != *opts.Read {
			continue
		}
		filtered = append(filtered, *n)
	}

	key := func(n Notification) time.Time {
		if opts.SortBy == "expires_at" {
			return n.ExpiresAt
		}
		return n.CreatedAt
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if opts.SortOrder == SortAsc {
			return key(filtered[i]).Before(key(filtered[j]))
		}
		return key(filtered[j]).Before(key(filtered[i]))
	})

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}
	end := start + opts.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, userID, id string) (*Notification, error) {
	return s.mutate(userID, id, func(n *Notification, now time.Time) {
		n.MarkAsRead(now)
	})
}

func (s *MemoryStorage) MarkActedUpon(ctx context.Context, userID, id string) (*Notification, error) {
	return s.mutate(userID, id, func(n *Notification, now time.Time) {
		n.MarkActedUpon(now)
	})
}

func (s *MemoryStorage) Dismiss(ctx context.Context, userID, id string) (*Notification, error) {
	return s.mutate(userID, id, func(n *Notification, now time.Time) {
		n.Dismiss(now)
	})
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, userID string, category Category) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, n := range s.records[userID] {
		// Only the unread backlog; dismissed records keep their state.
		if n.Status != StatusUnread {
			continue
		}
		if category != "" && n.Category != category {
			continue
		}
		n.MarkAsRead(now)
		updated++
	}

	return updated, nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string, category Category) (int64, error) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.records[userID] {
		if n.Status != StatusUnread || n.IsExpired(now) {
			continue
		}
		if category != "" && n.Category != category {
			continue
		}
		count++
	}

	return count, nil
}

func (s *MemoryStorage) Stats(ctx context.Context, userID string) (*Stats, error) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		ByCategory: make(map[Category]int64),
		ByStatus:   make(map[Status]int64),
	}
	for _, n := range s.records[userID] {
		if n.IsExpired(now) {
			continue
		}
		stats.Total++
		if n.Status == StatusUnread {
			stats.Unread++
		}
		stats.ByCategory[n.Category]++
		stats.ByStatus[n.Status]++
	}

	return stats, nil
}

func (s *MemoryStorage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for userID, ns := range s.records {
		kept := ns[:0]
		for _, n := range ns {
			if n.IsExpired(now) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		s.records[userID] = kept
	}

	return removed, nil
}

// find expects the read or write lock to be held.
func (s *MemoryStorage) find(userID, id string) (*Notification, error) {
	for _, n := range s.records[userID] {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) mutate(userID, id string, fn func(*Notification, time.Time)) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.find(userID, id)
	if err != nil {
		return nil, err
	}

	fn(n, time.Now())

	out := *n
	return &out, nil
}
