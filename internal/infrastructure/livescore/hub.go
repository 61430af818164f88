package livescore

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/frozenbet/scoring-engine/internal/domain/livescore"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
)

const defaultSubscriberBuffer = 16

// Hub fans live-score events out to in-process subscribers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]*Subscription
	nextID  atomic.Uint64
	dropped atomic.Uint64
	logger  *logging.Logger
}

// Subscription receives events for its match filter. An empty filter receives everything.
type Subscription struct {
	id       uint64
	matchIDs map[string]struct{}
	events   chan livescore.Event
}

func (s *Subscription) Events() <-chan livescore.Event {
	return s.events
}

func (s *Subscription) wants(matchID string) bool {
	if len(s.matchIDs) == 0 {
		return true
	}
	_, ok := s.matchIDs[matchID]
	return ok
}

func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		logger: logger,
	}
}

// Subscribe registers a subscriber; the returned func unregisters it and closes its channel.
func (h *Hub) Subscribe(matchIDs []string) (*Subscription, func()) {
	filter := make(map[string]struct{}, len(matchIDs))
	for _, id := range matchIDs {
		if id = strings.TrimSpace(id); id != "" {
			filter[id] = struct{}{}
		}
	}
	sub := &Subscription{
		id:       h.nextID.Add(1),
		matchIDs: filter,
		events:   make(chan livescore.Event, defaultSubscriberBuffer),
	}

	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub.id)
			h.mu.Unlock()
			close(sub.events)
		})
	}
}

// Publish delivers the event to every interested subscriber without blocking.
// A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(ctx context.Context, event livescore.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !sub.wants(event.Update.MatchID) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			h.dropped.Add(1)
			h.logger.WarnContext(ctx, "live score subscriber is slow, event dropped", "subscriber", sub.id, "match_id", event.Update.MatchID)
		}
	}
	return nil
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
