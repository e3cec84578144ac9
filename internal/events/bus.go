package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler receives emitted events. Handlers run on the emitting goroutine
// and must not block; slow consumers should hand off through a buffered
// channel and drop when it is full.
type Handler func(event *Event)

// SubscriptionID identifies a subscription for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	nextID SubscriptionID
	byType map[EventType][]subscription
	all    []subscription
	log    zerolog.Logger
}

// NewBus creates an empty event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		byType: make(map[EventType][]subscription),
		log:    log.With().Str("service", "events").Logger(),
	}
}

// Subscribe registers handler for one event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.byType[eventType] = append(b.byType[eventType], subscription{id: b.nextID, handler: handler})
	return b.nextID
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.all = append(b.all, subscription{id: b.nextID, handler: handler})
	return b.nextID
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.byType {
		b.byType[eventType] = removeSubscription(subs, id)
	}
	b.all = removeSubscription(b.all, id)
}

func removeSubscription(subs []subscription, id SubscriptionID) []subscription {
	for i, s := range subs {
		if s.id == id {
			out := make([]subscription, 0, len(subs)-1)
			out = append(out, subs[:i]...)
			return append(out, subs[i+1:]...)
		}
	}
	return subs
}

// Emit publishes typed data from module to all matching subscribers.
func (b *Bus) Emit(module string, data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Timestamp: time.Now(),
		Module:    module,
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.byType[event.Type])+len(b.all))
	for _, s := range b.byType[event.Type] {
		handlers = append(handlers, s.handler)
	}
	for _, s := range b.all {
		handlers = append(handlers, s.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(h, event)
	}

	if event.Type != TrainingProgress {
		b.log.Debug().
			Str("event_type", string(event.Type)).
			Str("module", module).
			Int("subscribers", len(handlers)).
			Msg("Event emitted")
	}
}

func (b *Bus) dispatch(h Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Msg("Event handler panicked")
		}
	}()
	h(event)
}

// EmitError emits an ErrorOccurred event
func (b *Bus) EmitError(module string, err error, context map[string]interface{}) {
	b.Emit(module, &ErrorEventData{
		Error:   err.Error(),
		Context: context,
	})
}
