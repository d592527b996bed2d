// Package eventbus delivers session and patch events to in-process observers.
package eventbus

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// SyncEventBus calls handlers on the publishing goroutine.
//
// Handlers for the event's type run first, in subscription order, followed
// by wildcard handlers in subscription order. Unsubscribing keeps the order
// of the remaining handlers.
//
// Thread-safety: every method may be called from any goroutine, including
// from inside a handler.
type SyncEventBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	closed bool
}

type subscription struct {
	id       domain.SubscriptionID
	kind     domain.EventType
	wildcard bool
	handler  domain.EventHandler
	filter   ports.EventFilter
}

// NewSyncEventBus creates an empty bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{}
}

// SetLogger sets the logger handler and filter panics are reported to.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish delivers event. Nil events and events published after Close are
// dropped. A panicking handler is logged and the remaining handlers still run.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	typed := make([]subscription, 0, len(bus.subs))
	var wildcard []subscription
	for _, sub := range bus.subs {
		switch {
		case sub.wildcard:
			wildcard = append(wildcard, sub)
		case sub.kind == event.Type():
			typed = append(typed, sub)
		}
	}
	logger := bus.logger
	bus.mu.RUnlock()

	for _, sub := range append(typed, wildcard...) {
		if sub.filter != nil && !passes(logger, sub.filter, event) {
			continue
		}
		deliver(logger, sub, event)
	}
}

// passes runs a filter. A panicking filter rejects the event.
func passes(logger *slog.Logger, filter ports.EventFilter, event domain.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if logger != nil {
				logger.Error("event filter panicked",
					slog.Any("panic", r),
					slog.String("event_type", string(event.Type())))
			}
		}
	}()
	return filter(event)
}

func deliver(logger *slog.Logger, sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()
	sub.handler(event)
}

func (bus *SyncEventBus) add(prefix string, sub subscription) domain.SubscriptionID {
	if sub.handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		if bus.logger != nil {
			bus.logger.Warn("subscribe on closed event bus", slog.String("event_type", string(sub.kind)))
		}
		return ""
	}

	bus.nextID++
	sub.id = domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.nextID))
	bus.subs = append(bus.subs, sub)
	return sub.id
}

// Subscribe registers handler for events of eventType. Subscribing to a
// closed bus returns an empty ID.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("sub", subscription{kind: eventType, handler: handler})
}

// SubscribeFiltered is Subscribe for events that also pass filter. A nil
// filter behaves like Subscribe.
func (bus *SyncEventBus) SubscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("sub-filtered", subscription{kind: eventType, handler: handler, filter: filter})
}

// SubscribeAll registers handler for every event.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("sub-all", subscription{wildcard: true, handler: handler})
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.subs = slices.DeleteFunc(bus.subs, func(sub subscription) bool {
		return sub.id == id
	})
}

// HasSubscribers reports whether publishing an event of eventType would
// reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	return slices.ContainsFunc(bus.subs, func(sub subscription) bool {
		return sub.wildcard || sub.kind == eventType
	})
}

// Close drops every subscription. Closing twice is an error.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return fmt.Errorf("event bus already closed")
	}
	bus.closed = true
	bus.subs = nil
	return nil
}

// SubscriberCount returns the number of live subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

var _ ports.FilteringEventBus = (*SyncEventBus)(nil)
