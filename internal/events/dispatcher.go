package events

import (
	"context"
	"sync"
)

// EventHandler consumes one published event.
type EventHandler func(context.Context, Event) error

// Dispatcher decouples ticket and user mutations from their side
// effects. Services publish, the notification layer subscribes.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type memoryDispatcher struct {
	mu   sync.RWMutex
	subs map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a synchronous in-process dispatcher.
func NewInMemoryDispatcher() Dispatcher {
	return &memoryDispatcher{subs: make(map[EventType][]EventHandler)}
}

// Publish delivers the event to every subscriber in registration
// order. A failing handler does not stop delivery to the rest.
func (d *memoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.subs[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for one event type.
func (d *memoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs[eventType] = append(d.subs[eventType], handler)
}
