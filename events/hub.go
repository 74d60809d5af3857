// Package events fans report changes out to stream subscribers.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"ecobhandu-be/models"
)

// Hub is an in-process fan-out of report events. A subscriber that falls
// behind loses events instead of blocking publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
	log    *zap.Logger
}

type Subscription struct {
	C <-chan models.ReportEvent

	ch   chan models.ReportEvent
	hub  *Hub
	once sync.Once
}

func NewHub(buffer int, log *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer, log: log}
}

// Subscribe registers a new subscriber. Callers must Close it when done.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan models.ReportEvent, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if _, ok := s.hub.subs[s]; ok {
			delete(s.hub.subs, s)
			close(s.ch)
		}
	})
}

// Publish delivers ev to every subscriber with room in its buffer.
func (h *Hub) Publish(_ context.Context, ev models.ReportEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			h.log.Debug("dropping event for slow subscriber",
				zap.String("type", string(ev.Type)), zap.String("report_id", ev.ReportID))
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}
