package events

import (
	"sync"

	"github.com/jscyril/sonicstream/api"
)

// EventBus distributes media events using channels
type EventBus struct {
	subscribers map[api.EventType][]chan api.MediaEvent
	mu          sync.RWMutex
	closed      bool
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[api.EventType][]chan api.MediaEvent),
	}
}

// Subscribe returns a channel for receiving events of the specified type
func (b *EventBus) Subscribe(eventType api.EventType) <-chan api.MediaEvent {
	return b.subscribe(16, eventType)
}

// SubscribeAll returns a channel for receiving all event types
func (b *EventBus) SubscribeAll() <-chan api.MediaEvent {
	return b.subscribe(32, api.AllEventTypes()...)
}

func (b *EventBus) subscribe(size int, types ...api.EventType) <-chan api.MediaEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan api.MediaEvent, size)
	if b.closed {
		close(ch)
		return ch
	}
	for _, eventType := range types {
		b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	}
	return ch
}

// Publish broadcasts an event to all subscribers of that event type
func (b *EventBus) Publish(event api.MediaEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
			// Subscriber full, drop rather than block the publisher
		}
	}
}

// Unsubscribe removes a subscriber channel and closes it
func (b *EventBus) Unsubscribe(ch <-chan api.MediaEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var found chan api.MediaEvent
	for eventType, subs := range b.subscribers {
		for i, sub := range subs {
			if sub == ch {
				found = sub
				b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
	if found != nil {
		close(found)
	}
}

// Close closes all subscriber channels
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A channel subscribed to several types must only be closed once
	closed := make(map[chan api.MediaEvent]bool)
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			if !closed[ch] {
				close(ch)
				closed[ch] = true
			}
		}
	}
	b.subscribers = make(map[api.EventType][]chan api.MediaEvent)
	b.closed = true
}
