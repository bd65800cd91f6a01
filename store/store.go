// ABOUTME: Badger-backed key-value store for versioned state records
// ABOUTME: Persists each logical store as a { state, version } JSON document
package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

// Store persists versioned JSON state records keyed per logical store.
type Store struct {
	db *badger.DB
}

// record is the on-disk envelope. A version bump with no migration path
// causes Get to report a miss so the caller rehydrates defaults.
type record struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Open opens (creating if needed) a badger database at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(nil) // Badger's own logging is too chatty for a client app

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put writes state under key wrapped in a versioned envelope. The write is
// committed before Put returns.
func (s *Store) Put(key string, version int, state any) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	data, err := json.Marshal(record{State: raw, Version: version})
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

// Get loads the state stored under key into out. It returns false when the
// key is absent or was written with a different schema version.
func (s *Store) Get(key string, version int, out any) (bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return false, fmt.Errorf("failed to decode record for %s: %w", key, err)
	}
	if rec.Version != version {
		return false, nil
	}
	if err := json.Unmarshal(rec.State, out); err != nil {
		return false, fmt.Errorf("failed to decode state for %s: %w", key, err)
	}
	return true, nil
}

// Delete removes the record stored under key. Missing keys are a no-op.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
