// ABOUTME: Database operations for the local focus session log
// ABOUTME: Append-only record of completed sessions plus daily totals
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/focusden/focusden/models"
)

// RecordSession appends a completed session to the local log. A zero ID is
// assigned before insert.
func RecordSession(db *sql.DB, session *models.FocusSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CompletedAt.IsZero() {
		session.CompletedAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT INTO focus_sessions (id, duration, xp_earned, coins_earned, session_type, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session.ID.String(), session.Duration, session.XPEarned, session.CoinsEarned,
		session.SessionType, session.CompletedAt)

	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// SessionsSince returns sessions completed at or after the given time,
// newest first.
func SessionsSince(db *sql.DB, since time.Time) ([]models.FocusSession, error) {
	rows, err := db.Query(`
		SELECT id, duration, xp_earned, coins_earned, session_type, completed_at
		FROM focus_sessions
		WHERE completed_at >= ?
		ORDER BY completed_at DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []models.FocusSession
	for rows.Next() {
		var s models.FocusSession
		var id string
		if err := rows.Scan(&id, &s.Duration, &s.XPEarned, &s.CoinsEarned, &s.SessionType, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse session ID: %w", err)
		}
		s.ID = parsed
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// DayTotals summarizes sessions completed on a single day.
type DayTotals struct {
	Sessions    int
	Minutes     int
	XPEarned    int
	CoinsEarned int
}

// TotalsForDay aggregates the session log for the day containing t (local time).
func TotalsForDay(db *sql.DB, t time.Time) (*DayTotals, error) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1)

	var totals DayTotals
	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(duration), 0), COALESCE(SUM(xp_earned), 0), COALESCE(SUM(coins_earned), 0)
		FROM focus_sessions
		WHERE completed_at >= ? AND completed_at < ?
	`, start.UTC(), end.UTC()).Scan(&totals.Sessions, &totals.Minutes, &totals.XPEarned, &totals.CoinsEarned)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sessions: %w", err)
	}

	return &totals, nil
}
