// Package eventbus provides event-driven communication between the execution
// engine and any consumer (UI layers, the API's event stream, the CLI).
package eventbus

import (
	"context"

	"github.com/flowcanvas/flowcanvas/pkg/events"
)

// Event is anything the engine emits: every typed struct in pkg/events
// satisfies it through its embedded BaseEvent.
type Event interface {
	GetType() events.EventType
}

// EventPublisher is the engine-facing half of the bus. The key groups
// related messages (runners use the deployment or workflow id) so ordering
// is preserved per entity on partitioned transports.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber is the consumer-facing half. Handle registers a handler
// for one event type; Subscribe then starts the delivery loop. Handlers
// receive pointers to the structs in pkg/events.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler processes one delivered event.
type EventHandler func(ctx context.Context, event interface{}) error

// EventBus is the full publish/subscribe surface plus lifecycle.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
