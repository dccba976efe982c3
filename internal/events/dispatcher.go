package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher delivers events synchronously on the publishing goroutine.
type inMemoryDispatcher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
	now         func() time.Time
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		subscribers: make(map[EventType][]EventHandler),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Publish stamps the event with an id and a timestamp when missing and hands it to
// every subscriber of its type. All subscribers run; their errors are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now()
	}

	d.mu.RLock()
	subscribers := d.subscribers[event.Type]
	d.mu.RUnlock()

	var errs []error
	for i, handle := range subscribers {
		if err := handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s subscriber %d (event %s): %w", event.Type, i, event.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// copy on write; Publish iterates a snapshot
	next := make([]EventHandler, len(d.subscribers[eventType]), len(d.subscribers[eventType])+1)
	copy(next, d.subscribers[eventType])
	d.subscribers[eventType] = append(next, handler)
}
