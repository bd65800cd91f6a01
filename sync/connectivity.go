// ABOUTME: Connectivity monitor maintaining a single online flag
// ABOUTME: Pure signal plumbing; no retry or backoff policy lives here
package sync

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor tracks whether the backend is reachable. Inputs are explicit
// SetOnline calls (platform signals) and an optional health probe loop.
// OnReconnect callbacks fire on the offline-to-online edge.
type Monitor struct {
	online atomic.Bool

	mu          sync.Mutex
	onReconnect []func()
}

// NewMonitor creates a monitor with the given initial state.
func NewMonitor(initiallyOnline bool) *Monitor {
	m := &Monitor{}
	m.online.Store(initiallyOnline)
	return m
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// SetOnline updates the flag and fires reconnect callbacks when the state
// moved from offline to online.
func (m *Monitor) SetOnline(online bool) {
	was := m.online.Swap(online)
	if online && !was {
		m.mu.Lock()
		callbacks := append([]func(){}, m.onReconnect...)
		m.mu.Unlock()

		for _, fn := range callbacks {
			fn()
		}
	}
}

// OnReconnect registers a callback for offline-to-online transitions.
func (m *Monitor) OnReconnect(fn func()) {
	m.mu.Lock()
	m.onReconnect = append(m.onReconnect, fn)
	m.mu.Unlock()
}

// Probe checks the backend once and updates the flag.
func (m *Monitor) Probe(ctx context.Context, backend Backend) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := backend.Healthz(probeCtx)
	if err != nil && m.Online() {
		log.Printf("connectivity: backend unreachable: %v", err)
	}
	m.SetOnline(err == nil)
}

// StartProbing polls the backend health endpoint until ctx is cancelled.
func (m *Monitor) StartProbing(ctx context.Context, backend Backend, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Probe(ctx, backend)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx, backend)
		}
	}
}
