package events

import (
	"context"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
)

// AnyEvent subscribes a handler to every event type.
const AnyEvent = "*"

// LoggingPublisher logs sync-core events and routes them to handlers keyed by
// event type and, for slot events, by slot.
type LoggingPublisher struct {
	logger ports.Logger
	subs   map[string][]subscriptionEntry
	nextID int
	mu     sync.RWMutex
}

// NewLoggingPublisher creates a publisher that writes each event as a
// structured log entry.
func NewLoggingPublisher(logger ports.Logger) *LoggingPublisher {
	return &LoggingPublisher{
		logger: logger,
		subs:   make(map[string][]subscriptionEntry),
	}
}

// SlotOf returns the slot key an event refers to. Hydration lifecycle events
// carry no slot.
func SlotOf(event ports.DomainEvent) (string, bool) {
	fields, ok := event.Payload().(map[string]interface{})
	if !ok {
		return "", false
	}
	slot, ok := fields["slot"].(string)
	return slot, ok && slot != ""
}

// Publish logs the event at a level derived from its type, then invokes the
// handlers matching it in subscription order.
func (p *LoggingPublisher) Publish(ctx context.Context, event ports.DomainEvent) error {
	if p == nil || event == nil {
		return nil
	}

	p.mu.RLock()
	handlers := make([]subscriptionEntry, 0, len(p.subs[event.EventType()])+len(p.subs[AnyEvent]))
	handlers = append(handlers, p.subs[event.EventType()]...)
	handlers = append(handlers, p.subs[AnyEvent]...)
	p.mu.RUnlock()
	sort.Slice(handlers, func(i, j int) bool { return handlers[i].id < handlers[j].id })

	if p.logger != nil {
		p.log(ctx, event)
	}

	slot, hasSlot := SlotOf(event)
	for _, entry := range handlers {
		if entry.handler == nil {
			continue
		}
		if entry.slot != "" && (!hasSlot || entry.slot != slot) {
			continue
		}
		if err := entry.handler(ctx, event); err != nil && p.logger != nil {
			p.logger.Warn(ctx, "event handler failed", "event_type", event.EventType(), "error", err)
		}
	}

	return nil
}

func (p *LoggingPublisher) log(ctx context.Context, event ports.DomainEvent) {
	fields := []interface{}{"event_type", event.EventType()}
	payload, isMap := event.Payload().(map[string]interface{})
	switch {
	case isMap:
		keys := make([]string, 0, len(payload))
		for key := range payload {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fields = append(fields, key, payload[key])
		}
	case event.Payload() != nil:
		fields = append(fields, "payload", event.Payload())
	}

	switch {
	case event.EventType() == ports.EventSlotPersistFailed:
		p.logger.Warn(ctx, "sync event", fields...)
	case event.EventType() == ports.EventSlotFallback && payload["reason"] == "error":
		p.logger.Warn(ctx, "sync event", fields...)
	default:
		p.logger.Debug(ctx, "sync event", fields...)
	}
}

// Subscribe registers a handler for eventType, or for every event when
// eventType is AnyEvent.
func (p *LoggingPublisher) Subscribe(eventType string, handler ports.EventHandler) (ports.Subscription, error) {
	return p.subscribe(eventType, "", handler)
}

// SubscribeSlot registers a handler for eventType events about one slot.
func (p *LoggingPublisher) SubscribeSlot(eventType, slot string, handler ports.EventHandler) (ports.Subscription, error) {
	if slot == "" {
		return noopSubscription{}, nil
	}
	return p.subscribe(eventType, slot, handler)
}

func (p *LoggingPublisher) subscribe(eventType, slot string, handler ports.EventHandler) (ports.Subscription, error) {
	if p == nil || handler == nil {
		return noopSubscription{}, nil
	}
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[eventType] = append(p.subs[eventType], subscriptionEntry{id: id, slot: slot, handler: handler})
	p.mu.Unlock()

	return subscription{
		cancel: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			handlers := p.subs[eventType]
			for i, entry := range handlers {
				if entry.id == id {
					p.subs[eventType] = append(handlers[:i:i], handlers[i+1:]...)
					break
				}
			}
		},
	}, nil
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type subscription struct {
	cancel func()
}

func (s subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

type subscriptionEntry struct {
	id      int
	slot    string
	handler ports.EventHandler
}

var _ ports.EventPublisher = (*LoggingPublisher)(nil)
