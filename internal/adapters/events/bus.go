package events

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/ports"
	"github.com/google/uuid"
)

// Bus is an in-process event bus. Every matching handler runs for every published event,
// each on its own goroutine, so a slow handler never delays another one.
type Bus struct {
	logger *slog.Logger

	mu            sync.RWMutex
	subscriptions []*subscription
	running       bool
	ctx           context.Context
	cancel        context.CancelFunc

	inflight sync.WaitGroup
}

type subscription struct {
	id      string
	pattern string
	handler ports.EventHandler
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bus{
		logger: logger.With("component", "event-bus"),
	}
}

func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return domain.NewComponentError("event-bus", "start", domain.ErrAlreadyStarted)
	}

	b.ctx, b.cancel = context.WithCancel(ctx)
	b.running = true

	b.logger.Debug("event bus started")
	return nil
}

// Stop rejects further publishes and waits for the handlers already dispatched.
func (b *Bus) Stop() error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return domain.NewComponentError("event-bus", "stop", domain.ErrNotStarted)
	}
	b.running = false
	b.cancel()
	b.mu.Unlock()

	b.inflight.Wait()
	b.logger.Debug("event bus stopped")
	return nil
}

func (b *Bus) Publish(event domain.Event) error {
	if event.Type == "" {
		return domain.NewComponentError("event-bus", "publish", domain.ErrInvalidInput)
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	if !b.running {
		b.mu.RUnlock()
		return domain.NewComponentError("event-bus", "publish", domain.ErrNotStarted)
	}

	var handlers []ports.EventHandler
	for _, sub := range b.subscriptions {
		if patternMatches(sub.pattern, event.Type) {
			handlers = append(handlers, sub.handler)
		}
	}
	b.inflight.Add(len(handlers))
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h ports.EventHandler) {
			defer b.inflight.Done()
			b.safeCall(event, h)
		}(handler)
	}

	b.logger.Debug("event published", "type", event.Type, "id", event.ID, "handlers", len(handlers))
	return nil
}

func (b *Bus) Subscribe(pattern string, handler ports.EventHandler) (func(), error) {
	if pattern == "" || handler == nil {
		return nil, domain.NewComponentError("event-bus", "subscribe", domain.ErrInvalidInput)
	}

	sub := &subscription{
		id:      uuid.New().String(),
		pattern: pattern,
		handler: handler,
	}

	b.mu.Lock()
	b.subscriptions = append(b.subscriptions, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(sub.id) })
	}, nil
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	filtered := b.subscriptions[:0]
	for _, sub := range b.subscriptions {
		if sub.id != id {
			filtered = append(filtered, sub)
		}
	}
	b.subscriptions = filtered
}

func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}

func patternMatches(pattern, eventType string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(eventType, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == eventType
}

func (b *Bus) safeCall(event domain.Event, handler ports.EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "panic", r, "type", event.Type)
		}
	}()
	handler(event)
}
