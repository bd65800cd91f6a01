// ABOUTME: Coin balance store with optimistic mutators and server reconciliation
// ABOUTME: Maintains balance == totalEarned - totalSpent under local mutation
package economy

import (
	"log"
	"sync"
	"time"

	"github.com/focusden/focusden/models"
	"github.com/focusden/focusden/store"
)

const (
	coinStateKey     = "economy.coins"
	coinStateVersion = 1

	// DefaultStreakFreezes is the starting allotment for a new account.
	DefaultStreakFreezes = 3
)

// CoinStore holds the user-facing coin economy. Mutators apply optimistically
// and persist write-through; SyncFromServer replaces local state wholesale.
type CoinStore struct {
	mu    sync.Mutex
	kv    *store.Store
	state models.CoinState
}

// NewCoinStore rehydrates the coin store from the state store, falling back
// to defaults for a fresh install or a schema version bump.
func NewCoinStore(kv *store.Store) (*CoinStore, error) {
	s := &CoinStore{kv: kv, state: defaultCoinState()}

	var saved models.CoinState
	ok, err := kv.Get(coinStateKey, coinStateVersion, &saved)
	if err != nil {
		return nil, err
	}
	if ok {
		s.state = saved
	}
	return s, nil
}

func defaultCoinState() models.CoinState {
	return models.CoinState{StreakFreezes: DefaultStreakFreezes}
}

// State returns a copy of the current coin state.
func (s *CoinStore) State() models.CoinState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Balance returns the current spendable balance.
func (s *CoinStore) Balance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Balance
}

// Pending reports whether local state has diverged from the last confirmed
// server snapshot.
func (s *CoinStore) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PendingServerValidation
}

// AddCoins credits the balance. Zero or negative amounts are a no-op.
func (s *CoinStore) AddCoins(amount int) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Balance += amount
	s.state.TotalEarned += amount
	s.state.PendingServerValidation = true
	s.persistLocked()
}

// SpendCoins debits the balance. Returns false without mutating when the
// amount is non-positive or exceeds the balance.
func (s *CoinStore) SpendCoins(amount int) bool {
	if amount <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount > s.state.Balance {
		return false
	}
	s.state.Balance -= amount
	s.state.TotalSpent += amount
	s.state.PendingServerValidation = true
	s.persistLocked()
	return true
}

// SetBalance forces the balance to amount, booking the difference against
// totalEarned or totalSpent so the local invariant keeps holding. Negative
// amounts are a no-op.
func (s *CoinStore) SetBalance(amount int) {
	if amount < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := amount - s.state.Balance
	if delta == 0 {
		return
	}
	if delta > 0 {
		s.state.TotalEarned += delta
	} else {
		s.state.TotalSpent += -delta
	}
	s.state.Balance = amount
	s.state.PendingServerValidation = true
	s.persistLocked()
}

// CanAfford reports whether amount is payable from the current balance.
func (s *CoinStore) CanAfford(amount int) bool {
	if amount < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return amount <= s.state.Balance
}

// UseStreakFreeze consumes one streak freeze if any remain.
func (s *CoinStore) UseStreakFreeze() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.StreakFreezes <= 0 {
		return false
	}
	s.state.StreakFreezes--
	s.state.PendingServerValidation = true
	s.persistLocked()
	return true
}

// AddStreakFreezes grants additional streak freezes.
func (s *CoinStore) AddStreakFreezes(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.StreakFreezes += n
	s.state.PendingServerValidation = true
	s.persistLocked()
}

// SyncFromServer replaces local state with the server's authoritative values.
// No merge, no version check: the server always wins, even when a stale
// response erases a newer local mutation (known, documented behavior).
func (s *CoinStore) SyncFromServer(balance, totalEarned, totalSpent int) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Balance = balance
	s.state.TotalEarned = totalEarned
	s.state.TotalSpent = totalSpent
	s.state.PendingServerValidation = false
	s.state.LastServerSync = &now
	s.persistLocked()
}

// Reset restores initial values, including the default streak freeze
// allotment. Used on logout and account deletion.
func (s *CoinStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = defaultCoinState()
	return s.kv.Put(coinStateKey, coinStateVersion, s.state)
}

// persistLocked writes the current state through to disk. Callers hold the
// mutex. Persistence failures are logged, not surfaced: gameplay must keep
// working even if the write-through fails.
func (s *CoinStore) persistLocked() {
	if err := s.kv.Put(coinStateKey, coinStateVersion, s.state); err != nil {
		log.Printf("coin store: persist failed: %v", err)
	}
}
