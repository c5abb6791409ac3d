package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
)

// Bus fans out events to registered subscribers without blocking the
// publisher. Each subscriber runs in its own goroutine; a subscriber panic
// or error is logged, never propagated back to the caller of Publish.
type Bus struct {
	subscribers []Subscriber
	logger      *logger.Logger
	mu          sync.RWMutex
	bufferSize  int
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for subscriber failures.
func WithLogger(l *logger.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithBufferSize sets the async notification buffer size (reserved for a
// future channel-backed implementation; kept for parity with the ambient
// observer-manager shape this is grounded on).
func WithBufferSize(size int) Option {
	return func(b *Bus) { b.bufferSize = size }
}

// New creates a Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subscribers: make([]Subscriber, 0),
		bufferSize:  100,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds a subscriber. Names must be unique.
func (b *Bus) Register(sub Subscriber) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subscribers {
		if s.Name() == sub.Name() {
			return fmt.Errorf("subscriber with name %q already registered", sub.Name())
		}
	}
	b.subscribers = append(b.subscribers, sub)
	return nil
}

// Unregister removes a subscriber by name.
func (b *Bus) Unregister(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subscribers {
		if s.Name() == name {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("subscriber %q not found", name)
}

// Publish fans event out to every subscriber whose filter admits it, on
// the named topic (spec.md §6's `publish(topic, event)`).
func (b *Bus) Publish(ctx context.Context, topic string, event Event) {
	event.Topic = topic

	b.mu.RLock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subs {
		go b.notify(ctx, s, event)
	}
}

func (b *Bus) notify(ctx context.Context, sub Subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.ErrorContext(ctx, "eventbus subscriber panic recovered",
				"subscriber", sub.Name(),
				"topic", event.Topic,
				"panic", r,
			)
		}
	}()

	if filter := sub.Filter(); filter != nil && !filter.ShouldNotify(event) {
		return
	}

	if err := sub.OnEvent(ctx, event); err != nil && b.logger != nil {
		b.logger.ErrorContext(ctx, "eventbus subscriber notification failed",
			"subscriber", sub.Name(),
			"topic", event.Topic,
			"error", err,
		)
	}
}

// Count returns the number of registered subscribers.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
