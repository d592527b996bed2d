// Package domain defines events for the event-driven architecture.
// Events let the session, the switcher and the display adapters stay decoupled.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Patch lifecycle events
	EventPatchActivated   EventType = "patch.activated"
	EventPatchDeactivated EventType = "patch.deactivated"
	EventPatchError       EventType = "patch.error"
	EventSwitchDropped    EventType = "patch.switch_dropped"

	// Session events
	EventSessionStarted        EventType = "session.started"
	EventSurfaceResized        EventType = "surface.resized"
	EventFullscreenEntered     EventType = "fullscreen.entered"
	EventFullscreenUnavailable EventType = "fullscreen.unavailable"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// PatchActivatedEvent is published after a patch finished activating.
type PatchActivatedEvent struct {
	baseEvent
	Patch    PatchInfo
	Updaters int // Periodic updaters started by the patch
}

// Type returns the event type.
func (e PatchActivatedEvent) Type() EventType {
	return EventPatchActivated
}

// NewPatchActivatedEvent creates a new PatchActivatedEvent.
func NewPatchActivatedEvent(patch PatchInfo, updaters int) PatchActivatedEvent {
	return PatchActivatedEvent{
		baseEvent: newBaseEvent(),
		Patch:     patch,
		Updaters:  updaters,
	}
}

// PatchDeactivatedEvent is published after a patch was torn down.
type PatchDeactivatedEvent struct {
	baseEvent
	Patch PatchInfo
}

// Type returns the event type.
func (e PatchDeactivatedEvent) Type() EventType {
	return EventPatchDeactivated
}

// NewPatchDeactivatedEvent creates a new PatchDeactivatedEvent.
func NewPatchDeactivatedEvent(patch PatchInfo) PatchDeactivatedEvent {
	return PatchDeactivatedEvent{
		baseEvent: newBaseEvent(),
		Patch:     patch,
	}
}

// PatchErrorEvent is published when a patch fails to activate or deactivate.
type PatchErrorEvent struct {
	baseEvent
	Patch PatchInfo
	Error error
}

// Type returns the event type.
func (e PatchErrorEvent) Type() EventType {
	return EventPatchError
}

// NewPatchErrorEvent creates a new PatchErrorEvent.
func NewPatchErrorEvent(patch PatchInfo, err error) PatchErrorEvent {
	return PatchErrorEvent{
		baseEvent: newBaseEvent(),
		Patch:     patch,
		Error:     err,
	}
}

// SwitchDroppedEvent is published when a switch request arrives during a transition.
type SwitchDroppedEvent struct {
	baseEvent
	Requested int // Index the dropped request would have activated
}

// Type returns the event type.
func (e SwitchDroppedEvent) Type() EventType {
	return EventSwitchDropped
}

// NewSwitchDroppedEvent creates a new SwitchDroppedEvent.
func NewSwitchDroppedEvent(requested int) SwitchDroppedEvent {
	return SwitchDroppedEvent{
		baseEvent: newBaseEvent(),
		Requested: requested,
	}
}

// SessionStartedEvent is published on the first user interaction of a session.
type SessionStartedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e SessionStartedEvent) Type() EventType {
	return EventSessionStarted
}

// NewSessionStartedEvent creates a new SessionStartedEvent.
func NewSessionStartedEvent() SessionStartedEvent {
	return SessionStartedEvent{baseEvent: newBaseEvent()}
}

// SurfaceResizedEvent is published after the renderer was rebuilt for a new surface size.
type SurfaceResizedEvent struct {
	baseEvent
	Size Size
}

// Type returns the event type.
func (e SurfaceResizedEvent) Type() EventType {
	return EventSurfaceResized
}

// NewSurfaceResizedEvent creates a new SurfaceResizedEvent.
func NewSurfaceResizedEvent(size Size) SurfaceResizedEvent {
	return SurfaceResizedEvent{
		baseEvent: newBaseEvent(),
		Size:      size,
	}
}

// FullscreenEnteredEvent is published when a fullscreen request was granted.
type FullscreenEnteredEvent struct {
	baseEvent
	Capability string // Name of the capability that was used
}

// Type returns the event type.
func (e FullscreenEnteredEvent) Type() EventType {
	return EventFullscreenEntered
}

// NewFullscreenEnteredEvent creates a new FullscreenEnteredEvent.
func NewFullscreenEnteredEvent(capability string) FullscreenEnteredEvent {
	return FullscreenEnteredEvent{
		baseEvent:  newBaseEvent(),
		Capability: capability,
	}
}

// FullscreenUnavailableEvent is published when fullscreen could not be entered.
// The session continues in a window.
type FullscreenUnavailableEvent struct {
	baseEvent
	Error error
}

// Type returns the event type.
func (e FullscreenUnavailableEvent) Type() EventType {
	return EventFullscreenUnavailable
}

// NewFullscreenUnavailableEvent creates a new FullscreenUnavailableEvent.
func NewFullscreenUnavailableEvent(err error) FullscreenUnavailableEvent {
	return FullscreenUnavailableEvent{
		baseEvent: newBaseEvent(),
		Error:     err,
	}
}
