// Package event provides the in-memory pub/sub bus that decouples the
// chat handler from metrics and other completion listeners.
package event

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Event is a single published occurrence.
type Event struct {
	Topic   string // Dotted topic name, e.g. "chat.completed".
	Source  string // Publishing component.
	Payload any
}

// Handler processes one event. Handlers must not block for long when
// invoked via Publish; use PublishAsync for slow consumers.
type Handler func(ctx context.Context, ev Event)

// Bus is an in-memory event bus. Publish is synchronous (handlers run in
// the caller's goroutine); PublishAsync dispatches each handler in its
// own goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]handlerEntry // topic -> handlers
	nextID   uint64
	logger   *zap.Logger
}

type handlerEntry struct {
	id      uint64
	handler Handler
}

// NewBus creates a new in-memory event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]handlerEntry),
		logger:   logger,
	}
}

// Publish dispatches an event synchronously to all handlers of its topic.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	for _, h := range b.snapshot(ev.Topic) {
		b.safeCall(ctx, h.handler, ev)
	}
}

// PublishAsync dispatches an event asynchronously to all handlers of its
// topic.
func (b *Bus) PublishAsync(ctx context.Context, ev Event) {
	for _, h := range b.snapshot(ev.Topic) {
		go b.safeCall(ctx, h.handler, ev)
	}
}

// Subscribe registers a handler for a topic. Returns an unsubscribe
// function.
func (b *Bus) Subscribe(topic string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[topic] = append(b.handlers[topic], handlerEntry{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.handlers[topic]
		for i, e := range entries {
			if e.id == id {
				b.handlers[topic] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) snapshot(topic string) []handlerEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]handlerEntry, len(b.handlers[topic]))
	copy(out, b.handlers[topic])
	return out
}

func (b *Bus) safeCall(ctx context.Context, handler Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", ev.Topic),
				zap.String("source", ev.Source),
				zap.Any("panic", r),
			)
		}
	}()
	handler(ctx, ev)
}
