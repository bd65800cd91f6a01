// ABOUTME: Database operations for the sync_state table
// ABOUTME: Manages sync status, timestamps, and synced/failed counters
package db

import (
	"database/sql"
	"fmt"

	"github.com/focusden/focusden/models"
)

// GetSyncState retrieves the sync state for a service.
func GetSyncState(db *sql.DB, service string) (*models.SyncState, error) {
	var state models.SyncState
	var lastSyncTime sql.NullTime
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT service, last_sync_time, status, error_message, total_synced, total_failed, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(
		&state.Service,
		&lastSyncTime,
		&state.Status,
		&errorMessage,
		&state.TotalSynced,
		&state.TotalFailed,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if errorMessage.Valid {
		state.ErrorMessage = errorMessage.String
	}

	return &state, nil
}

// UpdateSyncStatus updates the sync status for a service. A nil errorMsg
// clears any previous error.
func UpdateSyncStatus(db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// MarkSyncComplete stamps the last sync time and returns the service to idle.
func MarkSyncComplete(db *sql.DB, service string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (service, last_sync_time, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service)

	if err != nil {
		return fmt.Errorf("failed to mark sync complete: %w", err)
	}

	return nil
}

// IncrementSynced bumps the monotonic total_synced counter.
func IncrementSynced(db *sql.DB, service string, n int) error {
	return incrementCounter(db, service, "total_synced", n)
}

// IncrementFailed bumps the monotonic total_failed counter.
func IncrementFailed(db *sql.DB, service string, n int) error {
	return incrementCounter(db, service, "total_failed", n)
}

func incrementCounter(db *sql.DB, service, column string, n int) error {
	query := fmt.Sprintf(`
		INSERT INTO sync_state (service, status, %s, created_at, updated_at)
		VALUES (?, 'idle', ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			%s = %s + excluded.%s,
			updated_at = CURRENT_TIMESTAMP
	`, column, column, column, column)

	if _, err := db.Exec(query, service, n); err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return nil
}
