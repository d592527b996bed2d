package ports

import (
	"github.com/tejashwikalptaru/gosketch/internal/domain"
)

// EventBus carries session and patch events from the services to observers
// such as the application logger and the window title.
//
// Publishers never know who listens:
//
//	bus.Publish(domain.NewPatchActivatedEvent(info, updaters))
//
//	id := bus.Subscribe(domain.EventPatchActivated, func(event domain.Event) {
//	    display.SetTitle(event.(domain.PatchActivatedEvent).Patch.Name)
//	})
//	defer bus.Unsubscribe(id)
//
// Thread-safety: implementations must allow every method to be called from
// any goroutine, including from inside a handler.
type EventBus interface {
	// Publish delivers event to its subscribers. Handlers must return
	// quickly; the switcher publishes while a transition is being finished.
	Publish(event domain.Event)

	// Subscribe registers handler for one event type.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// SubscribeAll registers handler for every event type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a subscription. Unknown IDs are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// HasSubscribers reports whether an event of eventType would reach anyone.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops every subscription. Later publishes are ignored.
	Close() error
}

// EventFilter decides whether a filtered subscription sees an event.
type EventFilter func(event domain.Event) bool

// FilteringEventBus is an EventBus with filtered subscriptions.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers handler for events of eventType that pass
	// filter, e.g. only patch errors that carry an error:
	//
	//	bus.SubscribeFiltered(domain.EventPatchError, func(e domain.Event) bool {
	//	    return e.(domain.PatchErrorEvent).Error != nil
	//	}, logPatchError)
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
