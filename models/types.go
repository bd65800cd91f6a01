// ABOUTME: Data models for sync operations and economy state
// ABOUTME: Defines SyncOperation, typed payloads, CoinState, and XPState structs
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OperationType identifies the kind of mutation a queued operation carries.
type OperationType string

const (
	OpFocusSession      OperationType = "focus_session"
	OpXPUpdate          OperationType = "xp_update"
	OpCoinUpdate        OperationType = "coin_update"
	OpStreakUpdate      OperationType = "streak_update"
	OpAchievementUnlock OperationType = "achievement_unlock"
	OpPetInteraction    OperationType = "pet_interaction"
	OpQuestUpdate       OperationType = "quest_update"
	OpProgressUpdate    OperationType = "progress_update"
)

// IsValid reports whether t is a known operation type.
func (t OperationType) IsValid() bool {
	switch t {
	case OpFocusSession, OpXPUpdate, OpCoinUpdate, OpStreakUpdate,
		OpAchievementUnlock, OpPetInteraction, OpQuestUpdate, OpProgressUpdate:
		return true
	default:
		return false
	}
}

// Operation priorities. Higher drains first.
const (
	PriorityNormal = 0
	PriorityHigh   = 10
)

// MaxRetries is the delivery attempt cap; operations at or beyond it are
// excluded from retryable selection but retained until Clear.
const MaxRetries = 5

// SyncOperation is a queued, typed, retryable mutation awaiting delivery.
type SyncOperation struct {
	ID          string          `json:"id"`
	Type        OperationType   `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Priority    int             `json:"priority"`
	RetryCount  int             `json:"retry_count"`
	LastRetryAt *time.Time      `json:"last_retry_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Retryable reports whether the operation may still be attempted.
func (op *SyncOperation) Retryable() bool {
	return op.RetryCount < MaxRetries
}

// Typed payloads, one per operation type.

type FocusSessionPayload struct {
	Duration    int       `json:"duration"` // minutes
	XPEarned    int       `json:"xp_earned"`
	CoinsEarned int       `json:"coins_earned"`
	SessionType string    `json:"session_type"`
	CompletedAt time.Time `json:"completed_at"`
	QueuedAt    time.Time `json:"queued_at,omitempty"`
}

type XPUpdatePayload struct {
	TotalXP  int       `json:"total_xp"`
	Level    int       `json:"current_level"`
	QueuedAt time.Time `json:"queued_at,omitempty"`
}

type CoinUpdatePayload struct {
	Coins       int       `json:"coins"`
	TotalEarned int       `json:"total_earned"`
	TotalSpent  int       `json:"total_spent"`
	QueuedAt    time.Time `json:"queued_at,omitempty"`
}

type StreakUpdatePayload struct {
	CurrentStreak   int       `json:"current_streak"`
	LongestStreak   int       `json:"longest_streak"`
	LastSessionDate string    `json:"last_session_date"`
	QueuedAt        time.Time `json:"queued_at,omitempty"`
}

type AchievementUnlockPayload struct {
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
	QueuedAt      time.Time `json:"queued_at,omitempty"`
}

type PetInteractionPayload struct {
	PetID       string    `json:"pet_id"`
	Interaction string    `json:"interaction"`
	OccurredAt  time.Time `json:"occurred_at"`
	QueuedAt    time.Time `json:"queued_at,omitempty"`
}

type QuestUpdatePayload struct {
	QuestID   string    `json:"quest_id"`
	Progress  int       `json:"progress"`
	Completed bool      `json:"completed"`
	QueuedAt  time.Time `json:"queued_at,omitempty"`
}

type ProgressUpdatePayload struct {
	Metric     string    `json:"metric"`
	Value      int       `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
	QueuedAt   time.Time `json:"queued_at,omitempty"`
}

// Session type constants.
const (
	SessionDeep  = "deep"
	SessionBreak = "break"
)

// FocusSession is a completed session recorded in the local log.
type FocusSession struct {
	ID          uuid.UUID `json:"id"`
	Duration    int       `json:"duration"`
	XPEarned    int       `json:"xp_earned"`
	CoinsEarned int       `json:"coins_earned"`
	SessionType string    `json:"session_type"`
	CompletedAt time.Time `json:"completed_at"`
}

// CoinState is the persisted coin economy snapshot.
type CoinState struct {
	Balance                 int        `json:"balance"`
	TotalEarned             int        `json:"total_earned"`
	TotalSpent              int        `json:"total_spent"`
	StreakFreezes           int        `json:"streak_freezes"`
	PendingServerValidation bool       `json:"pending_server_validation"`
	LastServerSync          *time.Time `json:"last_server_sync,omitempty"`
}

// XPState is the persisted XP/level snapshot. Level is always derived from XP.
type XPState struct {
	CurrentXP       int        `json:"current_xp"`
	CurrentLevel    int        `json:"current_level"`
	UnlockedAnimals []string   `json:"unlocked_animals"`
	CurrentBiome    string     `json:"current_biome"`
	LastServerSync  *time.Time `json:"last_server_sync,omitempty"`
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// SyncState mirrors the sync_state table row for the backend service.
type SyncState struct {
	Service      string     `json:"service"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	TotalSynced  int        `json:"total_synced"`
	TotalFailed  int        `json:"total_failed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// EconomySnapshot carries authoritative server values returned by a backend
// write. Nil sub-snapshots mean the server reported nothing for that store.
type EconomySnapshot struct {
	Coins *CoinSnapshot `json:"coins,omitempty"`
	XP    *XPSnapshot   `json:"xp,omitempty"`
}

// CoinSnapshot is the server's authoritative coin state.
type CoinSnapshot struct {
	Balance     int `json:"balance"`
	TotalEarned int `json:"total_earned"`
	TotalSpent  int `json:"total_spent"`
}

// XPSnapshot is the server's authoritative XP state.
type XPSnapshot struct {
	TotalXP int `json:"total_xp"`
	Level   int `json:"current_level"`
}
