// Package events is the in-process publish/subscribe seam between the review
// processor and downstream consumers. Dispatch is fire-and-forget: a slow or
// panicking subscriber never blocks or fails the emitting call, and one
// failing subscriber never stops the others.
package events

import (
	"log"
	"sync"
)

// Handler receives the payload published under an event name.
type Handler func(payload interface{})

// Bus fans events out to subscribers, one goroutine per handler.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for an event name. Safe for concurrent use.
func (b *Bus) Subscribe(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

// Emit dispatches the payload to every subscriber of the event and returns
// immediately. Panics are recovered and logged per handler.
func (b *Bus) Emit(event string, payload interface{}) {
	b.mu.RLock()
	subscribers := make([]Handler, len(b.handlers[event]))
	copy(subscribers, b.handlers[event])
	b.mu.RUnlock()

	for _, h := range subscribers {
		h := h
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[events] subscriber panic on %q: %v", event, r)
				}
			}()
			h(payload)
		}()
	}
}

// SubscriberCount reports how many handlers are registered for an event.
func (b *Bus) SubscriberCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}
