package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"byteme-assistant-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps each conversation window in a Redis list,
// trimmed to the window size on every append and expiring after the TTL.
type RedisSessionStore struct {
	client *redis.Client
	window int
	ttl    time.Duration
}

var _ SessionStore = &RedisSessionStore{}

func NewRedisSessionStore(client *redis.Client, window int, ttl time.Duration) *RedisSessionStore {
	if window <= 0 {
		window = 10
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSessionStore{
		client: client,
		window: window,
		ttl:    ttl,
	}
}

func (s *RedisSessionStore) Append(ctx context.Context, key store.SessionKey, turn store.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	k := SessionKeyString(key)

	// RPush + LTrim keeps the list a FIFO window; Expire refreshes the
	// inactivity TTL on every write.
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, k, data)
	pipe.LTrim(ctx, k, int64(-s.window), -1)
	pipe.Expire(ctx, k, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append turn to session window: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Recent(ctx context.Context, key store.SessionKey, n int) ([]store.Turn, error) {
	if n <= 0 {
		n = s.window
	}

	raw, err := s.client.LRange(ctx, SessionKeyString(key), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session window: %w", err)
	}

	turns := make([]store.Turn, 0, len(raw))
	for _, item := range raw {
		var turn store.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			// Skip entries written by an incompatible version.
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, key store.SessionKey) error {
	return s.client.Del(ctx, SessionKeyString(key)).Err()
}
