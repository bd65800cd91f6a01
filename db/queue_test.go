// ABOUTME: Tests for the durable operation queue
// ABOUTME: Covers priority ordering, idempotent removal, retry cap, and counters
package db

import (
	"encoding/json"
	"testing"

	"github.com/focusden/focusden/models"
)

func TestEnqueueAssignsID(t *testing.T) {
	q := NewQueue(setupTestDB(t))

	id, err := q.Enqueue(models.OpFocusSession, models.FocusSessionPayload{Duration: 25}, models.PriorityNormal)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if id == "" {
		t.Fatal("Enqueue returned empty id")
	}

	count, err := q.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 pending operation, got %d", count)
	}
}

func TestPayloadGetsQueuedAtStamp(t *testing.T) {
	q := NewQueue(setupTestDB(t))

	if _, err := q.Enqueue(models.OpQuestUpdate, models.QuestUpdatePayload{QuestID: "daily-1", Progress: 3}, models.PriorityNormal); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	ops, err := q.RetryableOperations()
	if err != nil {
		t.Fatalf("RetryableOperations failed: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("Expected 1 operation, got %d", len(ops))
	}

	var fields map[string]any
	if err := json.Unmarshal(ops[0].Payload, &fields); err != nil {
		t.Fatalf("Payload is not valid JSON: %v", err)
	}
	if fields["queued_at"] == "" || fields["queued_at"] == nil {
		t.Error("Payload missing queued_at stamp")
	}
	if fields["quest_id"] != "daily-1" {
		t.Errorf("Payload fields not preserved: %v", fields)
	}
}

func TestPriorityOrdering(t *testing.T) {
	q := NewQueue(setupTestDB(t))

	// Enqueue with priorities 1, 10, 5; expect drain order 10, 5, 1.
	for _, prio := range []int{1, 10, 5} {
		if _, err := q.Enqueue(models.OpProgressUpdate, models.ProgressUpdatePayload{Value: prio}, prio); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	ops, err := q.RetryableOperations()
	if err != nil {
		t.Fatalf("RetryableOperations failed: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("Expected 3 operations, got %d", len(ops))
	}

	want := []int{10, 5, 1}
	for i, op := range ops {
		if op.Priority != want[i] {
			t.Errorf("Position %d: expected priority %d, got %d", i, want[i], op.Priority)
		}
	}
}

func TestInsertionOrderWithinPriority(t *testing.T) {
	q := NewQueue(setupTestDB(t))

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := q.Enqueue(models.OpPetInteraction, models.PetInteractionPayload{PetID: "fox"}, models.PriorityNormal)
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		ids = append(ids, id)
	}

	ops, err := q.RetryableOperations()
	if err != nil {
		t.Fatalf("RetryableOperations failed: %v", err)
	}
	for i, op := range ops {
		if op.ID != ids[i] {
			t.Errorf("Position %d: expected %s, got %s", i, ids[i], op.ID)
		}
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	database := setupTestDB(t)
	q := NewQueue(database)

	id, err := q.Enqueue(models.OpCoinUpdate, models.CoinUpdatePayload{Coins: 10}, models.PriorityHigh)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if err := q.Remove(id); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	// Second removal is a no-op, not an error.
	if err := q.Remove(id); err != nil {
		t.Fatalf("Second Remove failed: %v", err)
	}
	if err := q.Remove("no-such-id"); err != nil {
		t.Fatalf("Remove of unknown id failed: %v", err)
	}

	count, err := q.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty queue, got %d", count)
	}

	// total_synced is bumped exactly once.
	state, err := GetSyncState(database, ServiceBackend)
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state == nil || state.TotalSynced != 1 {
		t.Errorf("Expected total_synced == 1, got %+v", state)
	}
}

func TestRetryCapExcludesOperation(t *testing.T) {
	q := NewQueue(setupTestDB(t))

	id, err := q.Enqueue(models.OpStreakUpdate, models.StreakUpdatePayload{CurrentStreak: 4}, models.PriorityNormal)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	for i := 0; i < models.MaxRetries; i++ {
		if err := q.IncrementRetry(id); err != nil {
			t.Fatalf("IncrementRetry failed: %v", err)
		}
	}

	ops, err := q.RetryableOperations()
	if err != nil {
		t.Fatalf("RetryableOperations failed: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("Exhausted operation still retryable: %v", ops)
	}

	// Still in the queue until Clear.
	count, err := q.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exhausted operation retained, got count %d", count)
	}

	failed, err := q.FailedCount()
	if err != nil {
		t.Fatalf("FailedCount failed: %v", err)
	}
	if failed != 1 {
		t.Errorf("Expected 1 exhausted operation, got %d", failed)
	}
}

func TestIncrementRetryStampsAttempt(t *testing.T) {
	q := NewQueue(setupTestDB(t))

	id, err := q.Enqueue(models.OpXPUpdate, models.XPUpdatePayload{TotalXP: 100}, models.PriorityHigh)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.IncrementRetry(id); err != nil {
		t.Fatalf("IncrementRetry failed: %v", err)
	}

	ops, err := q.RetryableOperations()
	if err != nil {
		t.Fatalf("RetryableOperations failed: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("Expected 1 operation, got %d", len(ops))
	}
	if ops[0].RetryCount != 1 {
		t.Errorf("Expected retry count 1, got %d", ops[0].RetryCount)
	}
	if ops[0].LastRetryAt == nil {
		t.Error("LastRetryAt was not stamped")
	}
}

func TestEnqueueBatch(t *testing.T) {
	q := NewQueue(setupTestDB(t))

	ids, err := q.EnqueueBatch([]QueueItem{
		{Type: models.OpFocusSession, Payload: models.FocusSessionPayload{Duration: 25}, Priority: models.PriorityNormal},
		{Type: models.OpXPUpdate, Payload: models.XPUpdatePayload{TotalXP: 100}, Priority: models.PriorityHigh},
		{Type: models.OpCoinUpdate, Payload: models.CoinUpdatePayload{Coins: 8}, Priority: models.PriorityHigh},
	})
	if err != nil {
		t.Fatalf("EnqueueBatch failed: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("Expected 3 ids, got %d", len(ids))
	}

	count, err := q.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 pending operations, got %d", count)
	}
}

func TestOperationsByType(t *testing.T) {
	q := NewQueue(setupTestDB(t))

	if _, err := q.Enqueue(models.OpFocusSession, models.FocusSessionPayload{Duration: 25}, models.PriorityNormal); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := q.Enqueue(models.OpCoinUpdate, models.CoinUpdatePayload{Coins: 5}, models.PriorityHigh); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	ops, err := q.OperationsByType(models.OpCoinUpdate)
	if err != nil {
		t.Fatalf("OperationsByType failed: %v", err)
	}
	if len(ops) != 1 || ops[0].Type != models.OpCoinUpdate {
		t.Errorf("Expected one coin_update, got %v", ops)
	}
}

func TestClear(t *testing.T) {
	q := NewQueue(setupTestDB(t))

	for i := 0; i < 4; i++ {
		if _, err := q.Enqueue(models.OpAchievementUnlock, models.AchievementUnlockPayload{AchievementID: "early-bird"}, models.PriorityNormal); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	if err := q.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	count, err := q.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty queue after Clear, got %d", count)
	}
}
