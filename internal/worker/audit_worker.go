package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/events"
	"github.com/spec-kit/ticket-assistant/internal/service"
)

const (
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

// AuditWorker takes audit writes off the request path. Published events are queued
// and recorded by one goroutine; a full queue or a stopped worker records inline.
type AuditWorker struct {
	audit  *service.AuditService
	logger *zap.Logger
	queue  chan events.Event

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// StartAuditWorker subscribes the worker to every audited event type and starts draining.
func StartAuditWorker(audit *service.AuditService, dispatcher events.Dispatcher, logger *zap.Logger, queueSize int) *AuditWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	w := &AuditWorker{
		audit:  audit,
		logger: logger,
		queue:  make(chan events.Event, queueSize),
		done:   make(chan struct{}),
	}
	for _, eventType := range service.AuditedEvents {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
	go w.run()
	return w
}

func (w *AuditWorker) enqueue(ctx context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.stopped {
		select {
		case w.queue <- event:
			return nil
		default:
			w.logger.Warn("audit queue full; recording inline", zap.String("event", string(event.Type)))
		}
	}
	return w.audit.Handle(context.WithoutCancel(ctx), event)
}

func (w *AuditWorker) run() {
	defer close(w.done)
	for event := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := w.audit.Handle(ctx, event); err != nil {
			w.logger.Warn("audit write failed",
				zap.String("event", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
		cancel()
	}
}

// Stop drains the queue and waits for pending writes or ctx, whichever comes first.
func (w *AuditWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
