// ABOUTME: XP/level store with derived leveling, biome switching, and unlocks
// ABOUTME: Level is recomputed from XP on every mutation, never stored independently
package economy

import (
	"log"
	"sync"
	"time"

	"github.com/focusden/focusden/events"
	"github.com/focusden/focusden/models"
	"github.com/focusden/focusden/store"
)

const (
	xpStateKey     = "economy.xp"
	xpStateVersion = 1
)

// XPStore holds XP, the derived level, and unlocked content. Level-ups and
// unlocks publish on the event bus.
type XPStore struct {
	mu    sync.Mutex
	kv    *store.Store
	bus   *events.Bus
	state models.XPState
}

// NewXPStore rehydrates the XP store from the state store, falling back to
// defaults for a fresh install or a schema version bump.
func NewXPStore(kv *store.Store, bus *events.Bus) (*XPStore, error) {
	s := &XPStore{kv: kv, bus: bus, state: defaultXPState()}

	var saved models.XPState
	ok, err := kv.Get(xpStateKey, xpStateVersion, &saved)
	if err != nil {
		return nil, err
	}
	if ok {
		saved.CurrentLevel = LevelForXP(saved.CurrentXP)
		s.state = saved
	}
	return s, nil
}

func defaultXPState() models.XPState {
	return models.XPState{CurrentBiome: DefaultBiome}
}

// State returns a copy of the current XP state.
func (s *XPStore) State() models.XPState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.UnlockedAnimals = append([]string(nil), s.state.UnlockedAnimals...)
	return st
}

// Level returns the current derived level.
func (s *XPStore) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentLevel
}

// AddXP credits experience. Zero or negative amounts are a no-op.
func (s *XPStore) AddXP(amount int) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	level, leveledUp := s.setXPLocked(s.state.CurrentXP + amount)
	s.mu.Unlock()

	if leveledUp {
		s.bus.Publish(events.Event{Kind: events.KindLevelUp, Payload: level})
	}
}

// SetXP forces total XP to amount. Negative amounts are a no-op.
func (s *XPStore) SetXP(amount int) {
	if amount < 0 {
		return
	}
	s.mu.Lock()
	level, leveledUp := s.setXPLocked(amount)
	s.mu.Unlock()

	if leveledUp {
		s.bus.Publish(events.Event{Kind: events.KindLevelUp, Payload: level})
	}
}

// setXPLocked assigns XP, rederives level, and reports whether the level
// rose. Callers hold the mutex and publish the level-up event after
// releasing it, so subscribers are free to read the store back.
func (s *XPStore) setXPLocked(xp int) (level int, leveledUp bool) {
	prevLevel := s.state.CurrentLevel
	s.state.CurrentXP = xp
	s.state.CurrentLevel = LevelForXP(xp)
	s.persistLocked()

	return s.state.CurrentLevel, s.state.CurrentLevel > prevLevel
}

// AddAnimal adds an animal to the unlocked set. Duplicates are a no-op.
func (s *XPStore) AddAnimal(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	for _, a := range s.state.UnlockedAnimals {
		if a == id {
			s.mu.Unlock()
			return
		}
	}
	s.state.UnlockedAnimals = append(s.state.UnlockedAnimals, id)
	s.persistLocked()
	s.mu.Unlock()

	s.bus.Publish(events.Event{Kind: events.KindAnimalUnlocked, Payload: id})
}

// SwitchBiome moves the pet to another biome. Returns false when the biome
// is unknown or not yet unlocked at the current level.
func (s *XPStore) SwitchBiome(id string) bool {
	s.mu.Lock()
	if !BiomeAvailable(id, s.state.CurrentLevel) {
		s.mu.Unlock()
		return false
	}
	if s.state.CurrentBiome == id {
		s.mu.Unlock()
		return true
	}
	s.state.CurrentBiome = id
	s.persistLocked()
	s.mu.Unlock()

	s.bus.Publish(events.Event{Kind: events.KindBiomeChanged, Payload: id})
	return true
}

// LevelProgress returns the percentage of progress within the current level
// band, 0..100. At MaxLevel it reports 100.
func (s *XPStore) LevelProgress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	level := s.state.CurrentLevel
	if level >= MaxLevel {
		return 100
	}
	floor := XPRequiredForLevel(level)
	ceil := XPRequiredForLevel(level + 1)
	if ceil <= floor {
		return 100
	}
	return float64(s.state.CurrentXP-floor) / float64(ceil-floor) * 100
}

// SyncFromServer replaces local XP with the server's authoritative total.
// Level is rederived from XP so it can never go inconsistent; a server level
// that disagrees with the curve is logged and ignored.
func (s *XPStore) SyncFromServer(totalXP, level int) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentXP = totalXP
	s.state.CurrentLevel = LevelForXP(totalXP)
	if level != s.state.CurrentLevel {
		log.Printf("xp store: server level %d disagrees with curve level %d for xp=%d", level, s.state.CurrentLevel, totalXP)
	}
	s.state.LastServerSync = &now
	s.persistLocked()
}

// Reset restores initial values. Used on logout and account deletion.
func (s *XPStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = defaultXPState()
	return s.kv.Put(xpStateKey, xpStateVersion, s.state)
}

func (s *XPStore) persistLocked() {
	if err := s.kv.Put(xpStateKey, xpStateVersion, s.state); err != nil {
		log.Printf("xp store: persist failed: %v", err)
	}
}
