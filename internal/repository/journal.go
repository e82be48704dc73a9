package repository

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/septivank/trackmyfish-client/internal/db"
	"github.com/septivank/trackmyfish-client/internal/logging"
	"github.com/septivank/trackmyfish-client/internal/store"
)

// Journal records store operations in the database. Write failures are
// logged and never reach the store.
type Journal struct {
	repo   *Repository
	logger *zap.Logger
}

// NewJournal creates a journal backed by repo
func NewJournal(repo *Repository, logger *zap.Logger) *Journal {
	return &Journal{repo: repo, logger: logger}
}

// RecordOperation implements store.Recorder
func (j *Journal) RecordOperation(ctx context.Context, op store.Operation) {
	rec := NewOperationRecord(op)
	if err := j.repo.InsertOperation(context.WithoutCancel(ctx), rec); err != nil {
		logging.WithRequestID(j.logger, op.ID.String()).Error("failed to journal store operation",
			zap.Error(err),
			zap.String("resource", op.Resource),
			zap.String("op", string(op.Kind)),
		)
	}
}

// NewOperationRecord converts a store operation into a journal row
func NewOperationRecord(op store.Operation) *db.OperationRecord {
	rec := &db.OperationRecord{
		ID:         op.ID,
		Resource:   op.Resource,
		Operation:  string(op.Kind),
		Status:     "success",
		ItemCount:  op.Items,
		DurationMS: op.Duration.Milliseconds(),
		StartedAt:  op.StartedAt,
	}

	if !op.Succeeded {
		rec.Status = "error"
	}
	if op.Message != "" {
		msg := op.Message
		rec.Message = &msg
	}
	if op.Kind == store.OpRemove || (op.Kind == store.OpCreate && op.Succeeded) {
		id := int64(op.EntityID)
		rec.EntityID = &id
	}
	if op.Entity != nil {
		// the entity came off the wire as JSON, so it always marshals
		rec.Entity, _ = json.Marshal(op.Entity)
	}

	return rec
}
