// ABOUTME: In-process publish/subscribe bus for cross-component notifications
// ABOUTME: Carries level-up, unlock, and sync-state events to UI subscribers
package events

import "sync"

// Kind names a category of event.
type Kind string

const (
	KindLevelUp             Kind = "level_up"
	KindAnimalUnlocked      Kind = "animal_unlocked"
	KindBiomeChanged        Kind = "biome_changed"
	KindAchievementUnlocked Kind = "achievement_unlocked"
	KindSyncStateChanged    Kind = "sync_state_changed"
)

// Event is a single published notification.
type Event struct {
	Kind    Kind
	Payload any
}

// Bus fans events out to subscribers. Delivery is synchronous and in
// subscription order; handlers must not block.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]func(Event)
	next int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers a handler for all events and returns a cancel func.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers an event to every current subscriber. A nil bus is a
// no-op so components can treat the bus as optional.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(e)
	}
}
