package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/mq"
)

// DefaultQueueSize is the number of events buffered ahead of the broker
const DefaultQueueSize = 256

// ErrQueueFull is returned when an event is dropped because the queue is full
var ErrQueueFull = errors.New("event queue full")

// EventQueue is an EventPublisher that never blocks its caller. Store and
// heartbeat listeners run while the store holds its notify lock, so events
// are buffered here and sent to the broker by Run.
type EventQueue struct {
	publisher EventPublisher
	events    chan mq.Event
	timeout   time.Duration
	logger    *zap.Logger
	dropped   atomic.Uint64
}

// NewEventQueue creates a queue of size events in front of publisher. Each
// publish is bounded by timeout when it is positive.
func NewEventQueue(publisher EventPublisher, size int, timeout time.Duration, logger *zap.Logger) *EventQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventQueue{
		publisher: publisher,
		events:    make(chan mq.Event, size),
		timeout:   timeout,
		logger:    logger,
	}
}

// Publish enqueues event, or drops it with ErrQueueFull
func (q *EventQueue) Publish(_ context.Context, event mq.Event) error {
	select {
	case q.events <- event:
		return nil
	default:
		q.dropped.Add(1)
		return ErrQueueFull
	}
}

// Dropped returns the number of events dropped so far
func (q *EventQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// Run sends queued events until ctx is cancelled
func (q *EventQueue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(q.events); n > 0 {
				q.logger.Warn("event queue stopped with unsent events", zap.Int("pending", n))
			}
			return
		case event := <-q.events:
			q.send(ctx, event)
		}
	}
}

func (q *EventQueue) send(ctx context.Context, event mq.Event) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	if err := q.publisher.Publish(ctx, event); err != nil {
		q.logger.Error("failed to publish event",
			zap.Error(err),
			zap.String("type", event.Type),
			zap.String("event_id", event.ID),
		)
	}
}
