// Package event is an in-process event bus. Listeners run off the caller's
// goroutine so publishing never blocks a request on a slow listener.
package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Event names.
const (
	OrderConfirmed = "order.confirmed"
	ReviewAdded    = "review.added"
	ReviewUpdated  = "review.updated"
)

type Event struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Key     string    `json:"key"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// Handler receives a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, name, key string, payload any)
}

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}, timeout: 10 * time.Second}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// ListenAll registers a handler for every event.
func (b *Bus) ListenAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish dispatches the event to its listeners concurrently and returns
// immediately. Handler errors are logged. The request id logger on ctx is
// kept but its cancellation is not.
func (b *Bus) Publish(ctx context.Context, name, key string, payload any) {
	e := Event{ID: uuid.NewString(), Name: name, Key: key, Payload: payload, At: time.Now().UTC()}

	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[name])+len(b.all))
	hs = append(hs, b.handlers[name]...)
	hs = append(hs, b.all...)
	b.mu.RUnlock()

	base := context.WithoutCancel(ctx)
	for _, h := range hs {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			hctx, cancel := context.WithTimeout(base, b.timeout)
			defer cancel()
			if err := h(hctx, e); err != nil {
				logger.WithCtx(ctx).Warn("event: handler failed", "event", name, "event_id", e.ID, "error", err)
			}
		}(h)
	}
}

// Wait blocks until every in-flight handler has returned.
func (b *Bus) Wait() { b.wg.Wait() }
