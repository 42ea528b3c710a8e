package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// Event is a storefront domain event, typically a coordinator effect.
type Event struct {
	Type        string          `json:"type"`
	SessionID   string          `json:"session_id"`
	FranchiseID string          `json:"franchise_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type or Wildcard.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type, then wildcard subscribers.
// Handlers run synchronously; their errors are joined.
func (b *EventBus) Publish(event Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[Wildcard]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithPayload marshals v into the event payload.
func (e Event) WithPayload(v any) Event {
	if raw, err := json.Marshal(v); err == nil {
		e.Payload = raw
	}
	return e
}
