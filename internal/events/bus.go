package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(ButtonActionEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case ConnectionStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case PlaybackStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case ButtonActionEvent:
		event.Publish(b.dispatcher, e)
	case DeviceErrorEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e ConnectionStateChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ConnectionStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlaybackStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ButtonActionEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
