package hub

import (
	"sync"
	"sync/atomic"

	"invito/internal/model"

	"go.uber.org/zap"
)

// Subscription is one live connection's private view into the hub's
// event stream. Events arrive on a bounded channel; when the channel
// is full the oldest undelivered events are discarded and counted.
type Subscription struct {
	events  chan model.RegistrationEvent
	dropped atomic.Uint64

	hub    *Hub
	closed bool // guarded by hub.mu
}

// Events returns the receive channel. It is closed when the
// subscription or the hub is closed.
func (s *Subscription) Events() <-chan model.RegistrationEvent {
	return s.events
}

// Dropped reports how many events have been discarded because this
// subscriber lagged behind.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unregisters the subscription and closes its channel. Safe to
// call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.remove(s)
}

// Hub fans each published RegistrationEvent out to every active
// subscription. Publishing never blocks on a subscriber: each
// subscription has its own bounded queue and slow consumers lose
// their oldest events instead of stalling the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool

	buffer int
	log    *zap.Logger
}

const defaultBuffer = 32

func New(subscriberBuffer int, log *zap.Logger) *Hub {
	if subscriberBuffer <= 0 {
		subscriberBuffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: subscriberBuffer,
		log:    log,
	}
}

func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		events: make(chan model.RegistrationEvent, h.buffer),
		hub:    h,
	}

	h.mu.Lock()
	if h.closed {
		// Late subscriber during shutdown: hand back an already
		// closed subscription instead of one that would leak.
		s.closed = true
		close(s.events)
		h.mu.Unlock()
		return s
	}
	h.subs[s] = struct{}{}
	total := len(h.subs)
	h.mu.Unlock()

	h.log.Info("new subscriber registered", zap.Int("total_subscribers", total))
	return s
}

// Subscribers reports the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers the event to every active subscription. With no
// subscribers it is a no-op. Publishes are serialized by the hub
// lock, so each subscriber sees events in publish order.
func (h *Hub) Publish(ev model.RegistrationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		select {
		case s.events <- ev:
			continue
		default:
		}

		// Queue is full: make room by dropping the oldest unread
		// event. The subscriber stays registered and keeps receiving
		// everything that follows.
		select {
		case <-s.events:
			s.dropped.Add(1)
		default:
		}

		select {
		case s.events <- ev:
		default:
		}
	}
}

// Close tears down every remaining subscription. Intended for
// process shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for s := range h.subs {
		h.remove(s)
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(s *Subscription) {
	if s.closed {
		return
	}
	s.closed = true
	delete(h.subs, s)
	close(s.events)

	h.log.Info("subscriber unregistered", zap.Int("total_subscribers", len(h.subs)))
}
