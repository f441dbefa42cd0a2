// Package snapshot persists the field values of bound models so a channel
// survives a restart.
//
// A State maps server field names to their JSON encoding. Stores load and
// save whole states keyed by channel:
//
//   - MemoryStore keeps states in process memory.
//   - PebbleStore writes to a local Pebble database.
//   - PostgresStore upserts rows in a Postgres table through pgx.
//   - S3Store writes one object per channel to an S3 bucket.
//   - RedisStore keeps one key per channel in redis.
//
// Writer batches change notifications and saves at most once per interval.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ErrNotFound is returned by Load when no state was saved for a channel.
var ErrNotFound = errors.New("snapshot: not found")

// State holds the JSON encoding of each field, keyed by server field name.
type State map[string]json.RawMessage

// Store loads and saves channel states.
type Store interface {
	Load(ctx context.Context, channel string) (State, error)
	Save(ctx context.Context, channel string, state State) error
	Close() error
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, channel string) (State, error) {
	s.mu.RLock()
	data, ok := s.states[channel]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeState(data)
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, channel string, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.states[channel] = data
	s.mu.Unlock()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

func decodeState(data []byte) (State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return st, nil
}
