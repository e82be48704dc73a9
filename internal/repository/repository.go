package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/septivank/trackmyfish-client/internal/db"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx the repository uses
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository handles journal database operations
type Repository struct {
	db DBTX
}

// NewRepository creates a new repository
func NewRepository(conn DBTX) *Repository {
	return &Repository{db: conn}
}

// InsertOperation appends one store operation to the journal
func (r *Repository) InsertOperation(ctx context.Context, rec *db.OperationRecord) error {
	query := `
		INSERT INTO store_operations (
			id, resource, operation, status, message,
			entity_id, item_count, duration_ms, started_at, entity
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		rec.ID,
		rec.Resource,
		rec.Operation,
		rec.Status,
		rec.Message,
		rec.EntityID,
		rec.ItemCount,
		rec.DurationMS,
		rec.StartedAt,
		rec.Entity,
	)
	if err != nil {
		return fmt.Errorf("failed to insert store operation: %w", err)
	}

	return nil
}

// RecentOperations returns the latest journal rows, newest first. An empty
// resource matches every resource.
func (r *Repository) RecentOperations(ctx context.Context, resource string, limit int) ([]db.OperationRecord, error) {
	query := `
		SELECT id, resource, operation, status, message,
			entity_id, item_count, duration_ms, started_at, entity
		FROM store_operations
		WHERE $1 = '' OR resource = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, resource, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query store operations: %w", err)
	}
	defer rows.Close()

	records := []db.OperationRecord{}
	for rows.Next() {
		var rec db.OperationRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Resource,
			&rec.Operation,
			&rec.Status,
			&rec.Message,
			&rec.EntityID,
			&rec.ItemCount,
			&rec.DurationMS,
			&rec.StartedAt,
			&rec.Entity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan store operation: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
