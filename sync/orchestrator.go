// ABOUTME: Sync orchestrator draining the operation queue against the backend
// ABOUTME: Handles dispatch by type, retry bookkeeping, and store reconciliation
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/focusden/focusden/db"
	"github.com/focusden/focusden/economy"
	"github.com/focusden/focusden/events"
	"github.com/focusden/focusden/models"
)

// DefaultOperationTimeout bounds each backend call so a hung request counts
// as a failure instead of stalling the batch.
const DefaultOperationTimeout = 15 * time.Second

// Orchestrator drives delivery of queued operations and keeps the economy
// stores eventually consistent with server truth. Only one SyncNow runs at a
// time; overlapping calls collapse into the in-flight attempt.
type Orchestrator struct {
	database *sql.DB
	queue    *db.Queue
	coins    *economy.CoinStore
	xp       *economy.XPStore
	backend  Backend
	monitor  *Monitor
	bus      *events.Bus

	syncing   atomic.Bool
	opTimeout time.Duration
}

// NewOrchestrator wires the queue, stores, backend, and connectivity monitor
// together and registers the reconnect trigger.
func NewOrchestrator(database *sql.DB, queue *db.Queue, coins *economy.CoinStore, xp *economy.XPStore, backend Backend, monitor *Monitor, bus *events.Bus) *Orchestrator {
	o := &Orchestrator{
		database:  database,
		queue:     queue,
		coins:     coins,
		xp:        xp,
		backend:   backend,
		monitor:   monitor,
		bus:       bus,
		opTimeout: DefaultOperationTimeout,
	}

	monitor.OnReconnect(func() {
		go func() {
			if err := o.SyncNow(context.Background()); err != nil {
				log.Printf("sync: reconnect sync failed: %v", err)
			}
		}()
	})

	return o
}

// QueueOperation enqueues a mutation for later delivery. It never blocks on
// network I/O. Economy-critical writes default to high priority.
func (o *Orchestrator) QueueOperation(opType models.OperationType, payload any) (string, error) {
	if !opType.IsValid() {
		return "", fmt.Errorf("unknown operation type: %s", opType)
	}
	return o.queue.Enqueue(opType, payload, PriorityForType(opType))
}

// QueueUrgent enqueues like QueueOperation, then kicks an asynchronous sync
// attempt (used right after purchases and other user-visible writes).
func (o *Orchestrator) QueueUrgent(opType models.OperationType, payload any) (string, error) {
	id, err := o.QueueOperation(opType, payload)
	if err != nil {
		return "", err
	}
	go func() {
		if err := o.SyncNow(context.Background()); err != nil {
			log.Printf("sync: urgent sync failed: %v", err)
		}
	}()
	return id, nil
}

// PriorityForType returns the default queue priority for an operation type.
func PriorityForType(opType models.OperationType) int {
	switch opType {
	case models.OpCoinUpdate, models.OpXPUpdate:
		return models.PriorityHigh
	default:
		return models.PriorityNormal
	}
}

// SyncNow attempts delivery of all currently retryable operations. It is a
// no-op while offline, when the queue is empty, or when a sync is already in
// flight. Individual failures are converted into retry bookkeeping and never
// abort the batch.
func (o *Orchestrator) SyncNow(ctx context.Context) error {
	if !o.monitor.Online() {
		return nil
	}
	if !o.syncing.CompareAndSwap(false, true) {
		return nil
	}
	defer o.syncing.Store(false)

	ops, err := o.queue.RetryableOperations()
	if err != nil {
		return fmt.Errorf("failed to load retryable operations: %w", err)
	}
	if len(ops) == 0 {
		return nil
	}

	o.setStatus(models.SyncStatusSyncing, nil)

	var lastErr error
	for i := range ops {
		op := &ops[i]
		if err := o.deliver(ctx, op); err != nil {
			lastErr = err
		}
	}

	// Stamp the attempt regardless of partial failure, then record the
	// terminal status. The error state is not sticky: the next clean pass
	// returns to idle.
	if err := db.MarkSyncComplete(o.database, db.ServiceBackend); err != nil {
		log.Printf("sync: failed to stamp sync time: %v", err)
	}
	if lastErr != nil {
		msg := lastErr.Error()
		o.setStatus(models.SyncStatusError, &msg)
	} else {
		o.setStatus(models.SyncStatusIdle, nil)
	}

	return nil
}

// deliver dispatches one operation and applies the outcome to the queue and
// stores. Only transient failures are returned; rejections are terminal.
func (o *Orchestrator) deliver(ctx context.Context, op *models.SyncOperation) error {
	opCtx, cancel := context.WithTimeout(ctx, o.opTimeout)
	snapshot, err := o.dispatch(opCtx, op)
	cancel()

	switch {
	case err == nil:
		if removeErr := o.queue.Remove(op.ID); removeErr != nil {
			return removeErr
		}
		o.reconcile(snapshot)
		return nil

	case IsRejection(err):
		// The server refused this mutation; retrying can never succeed.
		// Pull authoritative state so the optimistic local mutation is
		// corrected, then drop the operation.
		log.Printf("sync: operation %s (%s) rejected: %v", op.ID, op.Type, err)
		o.forceReconcile(ctx)
		if removeErr := o.queue.Remove(op.ID); removeErr != nil {
			return removeErr
		}
		return nil

	default:
		log.Printf("sync: operation %s (%s) failed (attempt %d): %v", op.ID, op.Type, op.RetryCount+1, err)
		if retryErr := o.queue.IncrementRetry(op.ID); retryErr != nil {
			return retryErr
		}
		if op.RetryCount+1 >= models.MaxRetries {
			if countErr := db.IncrementFailed(o.database, db.ServiceBackend, 1); countErr != nil {
				log.Printf("sync: failed to count exhausted operation: %v", countErr)
			}
		}
		return err
	}
}

// dispatch maps an operation type to its backend write. The switch is
// exhaustive over the closed operation type set.
func (o *Orchestrator) dispatch(ctx context.Context, op *models.SyncOperation) (*models.EconomySnapshot, error) {
	switch op.Type {
	case models.OpFocusSession:
		var p models.FocusSessionPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal focus session payload: %w", err)
		}
		return o.backend.InsertFocusSession(ctx, p)

	case models.OpXPUpdate:
		var p models.XPUpdatePayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal xp payload: %w", err)
		}
		return o.backend.UpdateXP(ctx, p)

	case models.OpCoinUpdate:
		var p models.CoinUpdatePayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal coin payload: %w", err)
		}
		return o.backend.UpdateCoins(ctx, p)

	case models.OpStreakUpdate:
		var p models.StreakUpdatePayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal streak payload: %w", err)
		}
		return o.backend.UpdateStreak(ctx, p)

	case models.OpAchievementUnlock:
		var p models.AchievementUnlockPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal achievement payload: %w", err)
		}
		return o.backend.UnlockAchievement(ctx, p)

	case models.OpPetInteraction:
		var p models.PetInteractionPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pet interaction payload: %w", err)
		}
		return o.backend.InsertPetInteraction(ctx, p)

	case models.OpQuestUpdate:
		var p models.QuestUpdatePayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quest payload: %w", err)
		}
		return o.backend.UpsertQuest(ctx, p)

	case models.OpProgressUpdate:
		var p models.ProgressUpdatePayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal progress payload: %w", err)
		}
		return o.backend.UpsertProgress(ctx, p)

	default:
		// Unknown types are dropped by the caller via rejection semantics.
		return nil, &RejectionError{Reason: fmt.Sprintf("unhandled operation type %s", op.Type)}
	}
}

// reconcile forwards authoritative server values to the economy stores.
func (o *Orchestrator) reconcile(snapshot *models.EconomySnapshot) {
	if snapshot == nil {
		return
	}
	if snapshot.Coins != nil {
		o.coins.SyncFromServer(snapshot.Coins.Balance, snapshot.Coins.TotalEarned, snapshot.Coins.TotalSpent)
	}
	if snapshot.XP != nil {
		o.xp.SyncFromServer(snapshot.XP.TotalXP, snapshot.XP.Level)
	}
}

// forceReconcile pulls the full economy state after a rejection.
func (o *Orchestrator) forceReconcile(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, o.opTimeout)
	defer cancel()

	snapshot, err := o.backend.FetchEconomy(fetchCtx)
	if err != nil {
		log.Printf("sync: forced reconciliation pull failed: %v", err)
		return
	}
	o.reconcile(snapshot)
}

func (o *Orchestrator) setStatus(status string, errMsg *string) {
	if err := db.UpdateSyncStatus(o.database, db.ServiceBackend, status, errMsg); err != nil {
		log.Printf("sync: failed to update status: %v", err)
	}
	o.bus.Publish(events.Event{Kind: events.KindSyncStateChanged, Payload: status})
}

// Status is the UI-facing view of sync progress.
type Status struct {
	Online        bool
	IsSyncing     bool
	PendingCount  int
	FailedCount   int
	TotalSynced   int
	TotalFailed   int
	LastSyncAt    *time.Time
	LastSyncError string
}

// Status reports queue depth, counters, and the persisted sync state.
func (o *Orchestrator) Status() (*Status, error) {
	pending, err := o.queue.PendingCount()
	if err != nil {
		return nil, err
	}
	failed, err := o.queue.FailedCount()
	if err != nil {
		return nil, err
	}

	st := &Status{
		Online:       o.monitor.Online(),
		IsSyncing:    o.syncing.Load(),
		PendingCount: pending,
		FailedCount:  failed,
	}

	state, err := db.GetSyncState(o.database, db.ServiceBackend)
	if err != nil {
		return nil, err
	}
	if state != nil {
		st.LastSyncAt = state.LastSyncTime
		st.LastSyncError = state.ErrorMessage
		st.TotalSynced = state.TotalSynced
		st.TotalFailed = state.TotalFailed
	}
	return st, nil
}

// Run drives periodic syncs until ctx is cancelled. The connectivity probe
// runs separately; reconnect-triggered syncs arrive via the monitor callback.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.SyncNow(ctx); err != nil {
				log.Printf("sync: periodic sync failed: %v", err)
			}
		}
	}
}

// Reset clears the queue and restores both economy stores to initial values.
// Used on logout and account switch.
func (o *Orchestrator) Reset() error {
	if err := o.queue.Clear(); err != nil {
		return err
	}
	if err := o.coins.Reset(); err != nil {
		return err
	}
	return o.xp.Reset()
}
