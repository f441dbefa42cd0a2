package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix prefixes snapshot keys in redis.
const DefaultRedisPrefix = "tether:snapshot:"

// RedisAPI is the subset of redis.UniversalClient used by RedisStore.
type RedisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps one string key per channel. It suits deployments that
// already share redis for the transport.
type RedisStore struct {
	client RedisAPI
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a RedisStore. An empty prefix uses
// DefaultRedisPrefix; a zero ttl keeps snapshots forever. The store does not
// own client and Close leaves it open.
func NewRedisStore(client RedisAPI, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, channel string) (State, error) {
	data, err := s.client.Get(ctx, s.prefix+channel).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeState(data)
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, channel string, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+channel, data, s.ttl).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error { return nil }
