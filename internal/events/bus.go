// internal/events/bus.go
package events

import (
	"context"
	"log/slog"
	"sync"
)

// subscription is one listener channel plus the predicate that selects
// events for it.
type subscription struct {
	ch    chan Event
	match func(Event) bool
}

// Bus fans published events out to subscribers and, when an EventLog is
// attached, persists them first.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	log    *EventLog // may be nil
	logger *slog.Logger
	closed bool
}

// NewBus creates a new event bus. Pass a nil EventLog to disable persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		log:    log,
		logger: logger,
	}
}

// Publish persists e and delivers it to every matching subscriber.
// Delivery never blocks; a full subscriber channel drops the event.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if b.log != nil {
		if _, err := b.log.Append(ctx, e); err != nil {
			b.logger.Error("failed to persist event", "type", e.EventType(), "error", err)
		}
	}

	// Hold the read lock while sending so Unsubscribe cannot close a
	// channel mid-delivery. Sends never block.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, s := range b.subs {
		if !s.match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				"type", e.EventType(),
				"entity_type", e.EntityType(),
				"entity_id", e.EntityID())
		}
	}
	return nil
}

func (b *Bus) subscribe(bufferSize int, match func(Event) bool) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, &subscription{ch: ch, match: match})
	return ch
}

// Subscribe returns a channel for events of the given types.
func (b *Bus) Subscribe(bufferSize int, eventTypes ...string) <-chan Event {
	want := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		want[t] = true
	}
	return b.subscribe(bufferSize, func(e Event) bool { return want[e.EventType()] })
}

// SubscribeAll returns a channel for every event.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	return b.subscribe(bufferSize, func(Event) bool { return true })
}

// SubscribeEntity returns a channel for events about one entity.
func (b *Bus) SubscribeEntity(entityType string, entityID int64, bufferSize int) <-chan Event {
	return b.subscribe(bufferSize, func(e Event) bool {
		return e.EntityType() == entityType && e.EntityID() == entityID
	})
}

// Unsubscribe removes and closes a subscription channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.ch == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
