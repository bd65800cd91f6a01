// ABOUTME: Session completion service tying rewards, optimistic state, and queueing together
// ABOUTME: One completed session produces a log row plus queued backend operations
package sync

import (
	"fmt"
	"time"

	"github.com/focusden/focusden/db"
	"github.com/focusden/focusden/models"
)

// Reward rates per minute of focus.
const (
	DeepXPPerMinute  = 4
	BreakXPPerMinute = 1

	// One coin per three minutes of deep focus; breaks earn none.
	DeepMinutesPerCoin = 3
)

// SessionRewards computes the XP and coins earned by a session.
func SessionRewards(duration int, sessionType string) (xp, coins int) {
	if duration <= 0 {
		return 0, 0
	}
	switch sessionType {
	case models.SessionBreak:
		return duration * BreakXPPerMinute, 0
	default:
		return duration * DeepXPPerMinute, duration / DeepMinutesPerCoin
	}
}

// CompleteSession applies a finished focus session: optimistic economy
// mutations, the local session log, and one durable batch of queued
// operations. The focus_session operation carries the combined record so
// its ordering relative to the economy updates never matters.
func (o *Orchestrator) CompleteSession(duration int, sessionType string) (*models.FocusSession, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("session duration must be positive, got %d", duration)
	}
	if sessionType == "" {
		sessionType = models.SessionDeep
	}

	xpEarned, coinsEarned := SessionRewards(duration, sessionType)
	completedAt := time.Now().UTC()

	// Optimistic local state first: the UI must reflect the reward
	// immediately, before any network delivery.
	o.xp.AddXP(xpEarned)
	o.coins.AddCoins(coinsEarned)

	session := &models.FocusSession{
		Duration:    duration,
		XPEarned:    xpEarned,
		CoinsEarned: coinsEarned,
		SessionType: sessionType,
		CompletedAt: completedAt,
	}
	if err := db.RecordSession(o.database, session); err != nil {
		return nil, err
	}

	xpState := o.xp.State()
	coinState := o.coins.State()

	items := []db.QueueItem{
		{
			Type: models.OpFocusSession,
			Payload: models.FocusSessionPayload{
				Duration:    duration,
				XPEarned:    xpEarned,
				CoinsEarned: coinsEarned,
				SessionType: sessionType,
				CompletedAt: completedAt,
			},
			Priority: models.PriorityNormal,
		},
		{
			Type: models.OpXPUpdate,
			Payload: models.XPUpdatePayload{
				TotalXP: xpState.CurrentXP,
				Level:   xpState.CurrentLevel,
			},
			Priority: models.PriorityHigh,
		},
		{
			Type: models.OpCoinUpdate,
			Payload: models.CoinUpdatePayload{
				Coins:       coinState.Balance,
				TotalEarned: coinState.TotalEarned,
				TotalSpent:  coinState.TotalSpent,
			},
			Priority: models.PriorityHigh,
		},
	}
	if _, err := o.queue.EnqueueBatch(items); err != nil {
		return nil, err
	}

	return session, nil
}
