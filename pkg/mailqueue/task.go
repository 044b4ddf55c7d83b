package mailqueue

import (
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/notifykit/pkg/mailer"
)

// Priority selects the lane a task waits in. Lanes drain strictly in
// priority order: high empties before normal, normal before low.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Task is one queued email delivery.
type Task struct {
	ID          uuid.UUID
	Message     mailer.Message
	Priority    Priority
	Attempts    int       // Completed delivery attempts
	MaxRetries  int       // Attempts before the task is dropped
	ScheduledAt time.Time // Earliest dispatch time; zero means immediately
	AddedAt     time.Time
	LastErr     string // Error from the most recent failed attempt
}

// Ready reports whether the task may be dispatched at now.
func (t *Task) Ready(now time.Time) bool {
	return t.ScheduledAt.IsZero() || !t.ScheduledAt.After(now)
}
