// ABOUTME: Tests for the focus session log
// ABOUTME: Covers recording, listing, and daily totals
package db

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/focusden/focusden/models"
)

func TestRecordSession(t *testing.T) {
	database := setupTestDB(t)

	session := &models.FocusSession{
		Duration:    25,
		XPEarned:    100,
		CoinsEarned: 8,
		SessionType: models.SessionDeep,
	}
	if err := RecordSession(database, session); err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}
	if session.ID == uuid.Nil {
		t.Error("Session ID was not set")
	}
	if session.CompletedAt.IsZero() {
		t.Error("CompletedAt was not set")
	}
}

func TestTotalsForDay(t *testing.T) {
	database := setupTestDB(t)
	now := time.Now()

	for _, d := range []int{25, 50} {
		session := &models.FocusSession{
			Duration:    d,
			XPEarned:    d * 4,
			CoinsEarned: d / 3,
			SessionType: models.SessionDeep,
			CompletedAt: now.UTC(),
		}
		if err := RecordSession(database, session); err != nil {
			t.Fatalf("RecordSession failed: %v", err)
		}
	}

	// Yesterday's session must not count.
	old := &models.FocusSession{
		Duration:    30,
		XPEarned:    120,
		CoinsEarned: 10,
		SessionType: models.SessionDeep,
		CompletedAt: now.AddDate(0, 0, -1).UTC(),
	}
	if err := RecordSession(database, old); err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}

	totals, err := TotalsForDay(database, now)
	if err != nil {
		t.Fatalf("TotalsForDay failed: %v", err)
	}
	if totals.Sessions != 2 {
		t.Errorf("Expected 2 sessions, got %d", totals.Sessions)
	}
	if totals.Minutes != 75 {
		t.Errorf("Expected 75 minutes, got %d", totals.Minutes)
	}
	if totals.XPEarned != 300 {
		t.Errorf("Expected 300 XP, got %d", totals.XPEarned)
	}
}

func TestSessionsSince(t *testing.T) {
	database := setupTestDB(t)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		session := &models.FocusSession{
			Duration:    25,
			XPEarned:    100,
			CoinsEarned: 8,
			SessionType: models.SessionDeep,
			CompletedAt: now.Add(time.Duration(-i) * time.Hour),
		}
		if err := RecordSession(database, session); err != nil {
			t.Fatalf("RecordSession failed: %v", err)
		}
	}

	sessions, err := SessionsSince(database, now.Add(-90*time.Minute))
	if err != nil {
		t.Fatalf("SessionsSince failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}
	if !sessions[0].CompletedAt.After(sessions[1].CompletedAt) {
		t.Error("Sessions not ordered newest first")
	}
}
