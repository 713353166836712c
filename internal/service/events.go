package service

import (
	"sync"
	"time"

	"mathdrill/internal/logger"
	"mathdrill/internal/models"
)

// EventType names something that happened during practice
type EventType string

const (
	EventAttemptRecorded     EventType = "attempt-recorded"
	EventAchievementUnlocked EventType = "achievement-unlocked"
)

// Event is a notification for observers such as the dashboard stream.
// Events are advisory: losing one never affects stored state.
type Event struct {
	Type        EventType           `json:"type"`
	SessionID   string              `json:"sessionId,omitempty"`
	Attempt     *models.Attempt     `json:"attempt,omitempty"`
	Correct     bool                `json:"correct,omitempty"`
	Achievement *models.Achievement `json:"achievement,omitempty"`
	At          time.Time           `json:"at"`
}

// Publisher accepts events for delivery to subscribers
type Publisher interface {
	Publish(e Event)
}

// Hub fans events out to in-process subscribers. Each subscriber receives events
// in publish order; a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	log    *logger.Logger
}

// NewHub creates an event hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subs: make(map[uint64]chan Event),
		log:  log.With("component", "EventHub"),
	}
}

// Subscribe registers a subscriber with the given buffer size.
// The returned cancel func unregisters it and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers e to every subscriber without blocking
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.log.Warn("Dropping event; subscriber buffer full", "subscriber", id, "type", e.Type)
		}
	}
}

// Subscribers returns the number of registered subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
