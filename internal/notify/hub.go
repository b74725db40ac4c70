// Package notify delivers timer events to the collaborators that present
// them: live web clients and the chat bot.
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/focus-backend/internal/domain"
)

const defaultBuffer = 8

// Hub is an in-process pub/sub of timer events keyed by user.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	buffer int
}

// Subscription receives the events of one user until closed.
type Subscription struct {
	hub    *Hub
	userID uuid.UUID
	ch     chan domain.TimerEvent
	once   sync.Once
}

// NewHub creates a Hub whose subscriptions buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[uuid.UUID]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscription for userID.
func (h *Hub) Subscribe(userID uuid.UUID) *Subscription {
	s := &Subscription{
		hub:    h,
		userID: userID,
		ch:     make(chan domain.TimerEvent, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][s] = struct{}{}

	return s
}

// Events returns the receive channel. It is closed by Close.
func (s *Subscription) Events() <-chan domain.TimerEvent {
	return s.ch
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()

		delete(h.subs[s.userID], s)
		if len(h.subs[s.userID]) == 0 {
			delete(h.subs, s.userID)
		}
		close(s.ch)
	})
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) Publish(_ context.Context, e domain.TimerEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[e.UserID] {
		select {
		case s.ch <- e:
		default:
		}
	}
	return nil
}

// Subscribers returns the number of open subscriptions of userID.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
