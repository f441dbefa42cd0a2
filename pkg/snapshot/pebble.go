package snapshot

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cockroachdb/pebble"
)

// PebbleStore is a Store backed by a Pebble database.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a Pebble database at path.
func OpenPebble(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func pebbleKey(channel string) []byte {
	return []byte("snapshot:" + channel)
}

// Load implements Store.
func (s *PebbleStore) Load(_ context.Context, channel string) (State, error) {
	value, closer, err := s.db.Get(pebbleKey(channel))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	// value is only valid until closer.Close.
	return decodeState(append([]byte(nil), value...))
}

// Save implements Store.
func (s *PebbleStore) Save(_ context.Context, channel string, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Set(pebbleKey(channel), data, pebble.Sync)
}

// Close closes the database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
