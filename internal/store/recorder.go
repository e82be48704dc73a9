package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/septivank/trackmyfish-client/internal/model"
)

// OpKind names a store operation
type OpKind string

const (
	OpList       OpKind = "list"
	OpCreate     OpKind = "create"
	OpRemove     OpKind = "remove"
	OpResetError OpKind = "reset_error"
)

// Operation describes one completed store operation
type Operation struct {
	ID        uuid.UUID
	Resource  string
	Kind      OpKind
	Succeeded bool
	// Message is the retained (or, for lists, logged) failure message
	Message string
	// EntityID is set for create and remove
	EntityID model.ID
	// Entity is the server-returned record of a successful create
	Entity any
	// Items is the collection size after the operation
	Items     int
	Duration  time.Duration
	StartedAt time.Time
}

// Recorder observes completed operations (metrics, journal, events)
type Recorder interface {
	RecordOperation(ctx context.Context, op Operation)
}

// RecorderFunc adapts a function to Recorder
type RecorderFunc func(ctx context.Context, op Operation)

// RecordOperation implements Recorder
func (f RecorderFunc) RecordOperation(ctx context.Context, op Operation) {
	f(ctx, op)
}

// Recorders fans an operation out to every recorder in order
type Recorders []Recorder

// RecordOperation implements Recorder
func (rs Recorders) RecordOperation(ctx context.Context, op Operation) {
	for _, r := range rs {
		if r != nil {
			r.RecordOperation(ctx, op)
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(context.Context, Operation) {}
