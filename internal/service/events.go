package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/health"
	"github.com/septivank/trackmyfish-client/internal/mq"
	"github.com/septivank/trackmyfish-client/internal/store"
)

// EventPublisher sends change events
type EventPublisher interface {
	Publish(ctx context.Context, event mq.Event) error
}

var eventTypes = map[string]map[store.OpKind]string{
	store.FishResource.Name: {
		store.OpList:   mq.EventFishListed,
		store.OpCreate: mq.EventFishCreated,
		store.OpRemove: mq.EventFishRemoved,
	},
	store.TankStatisticResource.Name: {
		store.OpList:   mq.EventTankStatisticListed,
		store.OpCreate: mq.EventTankStatisticCreated,
		store.OpRemove: mq.EventTankStatisticRemoved,
	},
}

// EventType returns the event published for a successful op, or "" when
// the op publishes nothing
func EventType(op store.Operation) string {
	if !op.Succeeded {
		return ""
	}
	return eventTypes[op.Resource][op.Kind]
}

// listedData is the payload of a *.listed event
type listedData struct {
	Items int `json:"items"`
}

// removedData is the payload of a *.removed event
type removedData struct {
	ID int64 `json:"id"`
}

// EventRecorder publishes store mutations and heartbeat changes.
// Publish failures are logged only. ObserveHeartbeat runs inside the
// monitor's notification, so publisher should be an EventQueue.
type EventRecorder struct {
	publisher EventPublisher
	logger    *zap.Logger

	mu         sync.Mutex
	lastStatus *string
}

// NewEventRecorder creates a recorder publishing through publisher
func NewEventRecorder(publisher EventPublisher, logger *zap.Logger) *EventRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventRecorder{publisher: publisher, logger: logger}
}

// RecordOperation implements store.Recorder
func (r *EventRecorder) RecordOperation(ctx context.Context, op store.Operation) {
	eventType := EventType(op)
	if eventType == "" {
		return
	}

	var data any
	switch op.Kind {
	case store.OpList:
		data = listedData{Items: op.Items}
	case store.OpCreate:
		data = op.Entity
	case store.OpRemove:
		data = removedData{ID: int64(op.EntityID)}
	}

	r.publish(ctx, mq.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Resource:   op.Resource,
		RequestID:  op.ID.String(),
		OccurredAt: op.StartedAt.Add(op.Duration),
		Data:       data,
	})
}

// ObserveHeartbeat matches health.Listener and publishes only when the
// reported status differs from the previous one
func (r *EventRecorder) ObserveHeartbeat(snap health.Snapshot) {
	r.mu.Lock()
	changed := r.lastStatus == nil || *r.lastStatus != snap.Status
	status := snap.Status
	r.lastStatus = &status
	r.mu.Unlock()

	if !changed {
		return
	}

	r.publish(context.Background(), mq.Event{
		ID:         uuid.NewString(),
		Type:       mq.EventHeartbeatChanged,
		Resource:   "heartbeat",
		OccurredAt: snap.CheckedAt,
		Data:       snap,
	})
}

func (r *EventRecorder) publish(ctx context.Context, event mq.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := r.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		r.logger.Error("failed to publish event",
			zap.Error(err),
			zap.String("type", event.Type),
			zap.String("event_id", event.ID),
		)
	}
}
