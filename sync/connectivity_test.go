// ABOUTME: Tests for the connectivity monitor
// ABOUTME: Verifies reconnect callbacks fire only on the offline-to-online edge
package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconnectFiresOnEdgeOnly(t *testing.T) {
	m := NewMonitor(false)

	fired := 0
	m.OnReconnect(func() { fired++ })

	m.SetOnline(true)
	assert.Equal(t, 1, fired)

	// Already online: no edge, no callback.
	m.SetOnline(true)
	assert.Equal(t, 1, fired)

	m.SetOnline(false)
	assert.Equal(t, 1, fired)

	m.SetOnline(true)
	assert.Equal(t, 2, fired)
}

func TestGoingOfflineNeverFires(t *testing.T) {
	m := NewMonitor(true)

	fired := 0
	m.OnReconnect(func() { fired++ })

	m.SetOnline(false)
	m.SetOnline(false)
	assert.Zero(t, fired)
	assert.False(t, m.Online())
}

func TestMultipleCallbacksAllFire(t *testing.T) {
	m := NewMonitor(false)

	var a, b bool
	m.OnReconnect(func() { a = true })
	m.OnReconnect(func() { b = true })

	m.SetOnline(true)
	assert.True(t, a)
	assert.True(t, b)
}
