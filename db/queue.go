// ABOUTME: Durable operation queue backed by the sync_queue table
// ABOUTME: Maintains priority ordering, retry bookkeeping, and sync counters
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/focusden/focusden/models"
)

// ServiceBackend is the sync_state row key for the gamification backend.
const ServiceBackend = "backend"

// Queue is the durable queue of pending sync operations. All methods are
// synchronous; every mutation is committed to SQLite before returning.
type Queue struct {
	db *sql.DB
}

// NewQueue wraps an open database as an operation queue.
func NewQueue(database *sql.DB) *Queue {
	return &Queue{db: database}
}

// QueueItem is one entry of an EnqueueBatch call.
type QueueItem struct {
	Type     models.OperationType
	Payload  any
	Priority int
}

// Enqueue creates a new operation and persists it. The payload is stored as
// JSON with a queued_at stamp attached; the queue never inspects it further.
func (q *Queue) Enqueue(opType models.OperationType, payload any, priority int) (string, error) {
	now := time.Now().UTC()
	id := ulid.Make().String()

	data, err := marshalPayload(payload, now)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = q.db.Exec(`
		INSERT INTO sync_queue (id, type, payload, priority, retry_count, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, id, string(opType), string(data), priority, now)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue operation: %w", err)
	}

	return id, nil
}

// EnqueueBatch enqueues several operations in one transaction so a crash
// cannot persist half the batch.
func (q *Queue) EnqueueBatch(items []QueueItem) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := q.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id := ulid.Make().String()
		data, err := marshalPayload(item.Payload, now)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO sync_queue (id, type, payload, priority, retry_count, created_at)
			VALUES (?, ?, ?, ?, 0, ?)
		`, id, string(item.Type), string(data), item.Priority, now)
		if err != nil {
			return nil, fmt.Errorf("failed to enqueue operation: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return ids, nil
}

// Remove deletes a delivered operation. Removing an unknown id is a no-op;
// the total_synced counter is bumped only when a row was actually deleted.
func (q *Queue) Remove(id string) error {
	res, err := q.db.Exec(`DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove operation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n > 0 {
		if err := IncrementSynced(q.db, ServiceBackend, int(n)); err != nil {
			return err
		}
	}
	return nil
}

// RemoveBatch removes several operations; unknown ids are skipped.
func (q *Queue) RemoveBatch(ids []string) error {
	for _, id := range ids {
		if err := q.Remove(id); err != nil {
			return err
		}
	}
	return nil
}

// IncrementRetry bumps the retry count and stamps the attempt time.
// No-op if the id is absent.
func (q *Queue) IncrementRetry(id string) error {
	_, err := q.db.Exec(`
		UPDATE sync_queue SET retry_count = retry_count + 1, last_retry_at = ?
		WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to increment retry: %w", err)
	}
	return nil
}

// RetryableOperations returns all operations still below the retry cap,
// ordered by priority descending then insertion order.
func (q *Queue) RetryableOperations() ([]models.SyncOperation, error) {
	rows, err := q.db.Query(`
		SELECT id, type, payload, priority, retry_count, last_retry_at, created_at
		FROM sync_queue
		WHERE retry_count < ?
		ORDER BY priority DESC, created_at ASC, rowid ASC
	`, models.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to query retryable operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanOperations(rows)
}

// OperationsByType returns all queued operations of the given type,
// including ones past the retry cap.
func (q *Queue) OperationsByType(opType models.OperationType) ([]models.SyncOperation, error) {
	rows, err := q.db.Query(`
		SELECT id, type, payload, priority, retry_count, last_retry_at, created_at
		FROM sync_queue
		WHERE type = ?
	`, string(opType))
	if err != nil {
		return nil, fmt.Errorf("failed to query operations by type: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanOperations(rows)
}

// PendingCount returns the number of queued operations, exhausted ones included.
func (q *Queue) PendingCount() (int, error) {
	var count int
	if err := q.db.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending operations: %w", err)
	}
	return count, nil
}

// FailedCount returns the number of operations past the retry cap.
func (q *Queue) FailedCount() (int, error) {
	var count int
	err := q.db.QueryRow(`SELECT COUNT(*) FROM sync_queue WHERE retry_count >= ?`, models.MaxRetries).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count failed operations: %w", err)
	}
	return count, nil
}

// Clear drops every queued operation. Used on logout and account switch.
func (q *Queue) Clear() error {
	if _, err := q.db.Exec(`DELETE FROM sync_queue`); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}

// marshalPayload serializes an arbitrary payload and attaches a queued_at
// stamp without otherwise inspecting its shape.
func marshalPayload(payload any, queuedAt time.Time) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		// Non-object payloads are stored as-is.
		return data, nil
	}
	fields["queued_at"] = queuedAt.Format(time.RFC3339)
	return json.Marshal(fields)
}

func scanOperations(rows *sql.Rows) ([]models.SyncOperation, error) {
	var ops []models.SyncOperation
	for rows.Next() {
		var op models.SyncOperation
		var opType string
		var payload string
		var lastRetryAt sql.NullTime

		err := rows.Scan(&op.ID, &opType, &payload, &op.Priority, &op.RetryCount, &lastRetryAt, &op.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}

		op.Type = models.OperationType(opType)
		op.Payload = json.RawMessage(payload)
		if lastRetryAt.Valid {
			op.LastRetryAt = &lastRetryAt.Time
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}
	return ops, nil
}
