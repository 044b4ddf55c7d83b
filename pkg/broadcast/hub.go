package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message wraps a payload published to a topic.
type Message[T any] struct {
	ID        string
	Topic     string
	Payload   T
	Timestamp time.Time
}

// Subscriber receives messages published to one topic.
// Implementations are safe for concurrent use.
type Subscriber[T any] interface {
	// Messages returns the channel delivering published messages.
	// The channel is closed when the subscriber is closed.
	Messages() <-chan Message[T]

	// Topic returns the subscribed topic name.
	Topic() string

	// Close unsubscribes and releases resources. Idempotent.
	Close() error
}

// Hub is a topic-keyed in-memory publish/subscribe fan-out.
// Publishing is non-blocking: when a subscriber's buffer is full the message
// is dropped for that subscriber rather than stalling the publisher.
type Hub[T any] struct {
	topics     map[string]map[string]*subscriber[T]
	bufferSize int
	closed     bool
	mu         sync.RWMutex
}

// NewHub creates a hub whose subscribers buffer up to bufferSize messages.
// A minimum buffer of 1 is enforced so sends never block.
func NewHub[T any](bufferSize int) *Hub[T] {
	return &Hub[T]{
		topics:     make(map[string]map[string]*subscriber[T]),
		bufferSize: max(bufferSize, 1),
	}
}

type subscriber[T any] struct {
	id     string
	topic  string
	ch     chan Message[T]
	hub    *Hub[T]
	closed bool
	mu     sync.Mutex
}

func (s *subscriber[T]) Messages() <-chan Message[T] { return s.ch }

func (s *subscriber[T]) Topic() string { return s.topic }

func (s *subscriber[T]) Close() error {
	s.hub.remove(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// Subscribe registers a new subscriber on topic. The subscription is cleaned
// up automatically when ctx is cancelled. Subscribing on a closed hub returns
// an already-closed subscriber.
func (h *Hub[T]) Subscribe(ctx context.Context, topic string) Subscriber[T] {
	sub := &subscriber[T]{
		id:    uuid.New().String(),
		topic: topic,
		ch:    make(chan Message[T], h.bufferSize),
		hub:   h,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = sub.Close()
		return sub
	}

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]*subscriber[T])
		h.topics[topic] = subs
	}
	subs[sub.id] = sub
	h.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			_ = sub.Close()
		}()
	}

	return sub
}

// Publish delivers payload to every subscriber of topic.
// A topic without subscribers is not an error. Slow subscribers miss the
// message instead of blocking the caller.
func (h *Hub[T]) Publish(ctx context.Context, topic string, payload T) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}

	subs := make([]*subscriber[T], 0, len(h.topics[topic]))
	for _, sub := range h.topics[topic] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	msg := Message[T]{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sub.send(msg)
	}

	return nil
}

// SubscriberCount returns the number of active subscribers on topic.
func (h *Hub[T]) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[topic])
}

// Close shuts down the hub and closes every subscriber. Idempotent.
func (h *Hub[T]) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	topics := h.topics
	h.topics = make(map[string]map[string]*subscriber[T])
	h.mu.Unlock()

	for _, subs := range topics {
		for _, sub := range subs {
			sub.mu.Lock()
			if !sub.closed {
				sub.closed = true
				close(sub.ch)
			}
			sub.mu.Unlock()
		}
	}

	return nil
}

func (h *Hub[T]) remove(sub *subscriber[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[sub.topic]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(h.topics, sub.topic)
		}
	}
}
