// ABOUTME: Tests for the versioned state store
// ABOUTME: Covers roundtrips, version mismatches, and deletion
package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type demoState struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundtrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("demo", 1, demoState{Name: "fox", Count: 3}))

	var got demoState
	ok, err := s.Get("demo", 1, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fox", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	var got demoState
	ok, err := s.Get("absent", 1, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVersionMismatchIsAMiss(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("demo", 1, demoState{Name: "fox"}))

	var got demoState
	ok, err := s.Get("demo", 2, &got)
	require.NoError(t, err)
	assert.False(t, ok, "a version bump should rehydrate defaults, not decode old state")
}

func TestOverwrite(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("demo", 1, demoState{Count: 1}))
	require.NoError(t, s.Put("demo", 1, demoState{Count: 2}))

	var got demoState
	ok, err := s.Get("demo", 1, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.Count)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("demo", 1, demoState{Count: 1}))
	require.NoError(t, s.Delete("demo"))
	require.NoError(t, s.Delete("demo"), "deleting a missing key is a no-op")

	var got demoState
	ok, err := s.Get("demo", 1, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
