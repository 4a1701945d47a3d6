package ports

import "context"

const (
	// EventHydrationStarted is emitted when a hydration run begins.
	EventHydrationStarted = "hydration.started"
	// EventHydrationCompleted is emitted once every slot has resolved and the
	// value store was replaced.
	EventHydrationCompleted = "hydration.completed"
	// EventHydrationCancelled is emitted when a run is discarded by teardown.
	EventHydrationCancelled = "hydration.cancelled"
	// EventSlotFallback is emitted when a slot hydrates to its default value.
	EventSlotFallback = "slot.fallback"
	// EventSlotUpdated is emitted after a live update was applied.
	EventSlotUpdated = "slot.updated"
	// EventSlotPersisted is emitted after a live update was written to storage.
	EventSlotPersisted = "slot.persisted"
	// EventSlotPersistFailed is emitted when a storage write fails.
	EventSlotPersistFailed = "slot.persist_failed"
)

// DomainEvent represents a significant occurrence inside the sync core.
type DomainEvent interface {
	EventType() string
	Payload() interface{}
}

// EventPublisher distributes events to interested subscribers. Dispatch is
// synchronous: Publish blocks until all handlers run. Implementations must be
// thread-safe.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
}

// EventHandler processes an event of a specific type. Failures are returned so
// publishers can log them and continue delivering to remaining subscribers.
type EventHandler func(context.Context, DomainEvent) error

// Subscription represents a registered handler. Callers must invoke
// Unsubscribe to stop receiving events.
type Subscription interface {
	Unsubscribe()
}

// Event is the plain DomainEvent implementation used by the sync core.
type Event struct {
	Type   string
	Fields map[string]interface{}
}

// EventType implements DomainEvent.
func (e Event) EventType() string { return e.Type }

// Payload implements DomainEvent.
func (e Event) Payload() interface{} { return e.Fields }
