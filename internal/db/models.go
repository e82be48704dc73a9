package db

import (
	"time"

	"github.com/google/uuid"
)

// OperationRecord is one row of the store operation journal
type OperationRecord struct {
	ID         uuid.UUID
	Resource   string
	Operation  string
	Status     string
	Message    *string
	EntityID   *int64
	ItemCount  int
	DurationMS int64
	StartedAt  time.Time
	// Entity is the created record as JSON, nil for other operations
	Entity []byte
}

// Schema creates the journal table when it does not exist
const Schema = `
CREATE TABLE IF NOT EXISTS store_operations (
	id          UUID PRIMARY KEY,
	resource    TEXT        NOT NULL,
	operation   TEXT        NOT NULL,
	status      TEXT        NOT NULL,
	message     TEXT,
	entity_id   BIGINT,
	item_count  INTEGER     NOT NULL,
	duration_ms BIGINT      NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	entity      JSONB
);
CREATE INDEX IF NOT EXISTS store_operations_resource_started_at_idx
	ON store_operations (resource, started_at DESC);
`
