package memory

import (
	"context"
	"sync"
	"time"

	"byteme-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// LocalSessionStore is the in-process fallback for the fast session tier.
// It mirrors the Redis store's window/TTL behavior using go-cache, so a
// Redis outage degrades to per-instance memory instead of losing the tier.
type LocalSessionStore struct {
	cache  *cache.Cache
	window int
	mu     sync.Mutex
}

var _ SessionStore = &LocalSessionStore{}

func NewLocalSessionStore(window int, ttl time.Duration) *LocalSessionStore {
	if window <= 0 {
		window = 10
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	// Purge expired windows every 10 minutes.
	c := cache.New(ttl, 10*time.Minute)
	return &LocalSessionStore{
		cache:  c,
		window: window,
	}
}

func (s *LocalSessionStore) Append(_ context.Context, key store.SessionKey, turn store.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := SessionKeyString(key)

	var turns []store.Turn
	if x, found := s.cache.Get(k); found {
		turns = x.([]store.Turn)
	}

	turns = append(turns, turn)
	if len(turns) > s.window {
		turns = turns[len(turns)-s.window:]
	}

	// Set resets the item's TTL, matching the Redis store's per-write Expire.
	s.cache.Set(k, turns, cache.DefaultExpiration)
	return nil
}

func (s *LocalSessionStore) Recent(_ context.Context, key store.SessionKey, n int) ([]store.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, found := s.cache.Get(SessionKeyString(key))
	if !found {
		return nil, nil
	}

	turns := x.([]store.Turn)
	if n <= 0 || n >= len(turns) {
		out := make([]store.Turn, len(turns))
		copy(out, turns)
		return out, nil
	}

	out := make([]store.Turn, n)
	copy(out, turns[len(turns)-n:])
	return out, nil
}

func (s *LocalSessionStore) Clear(_ context.Context, key store.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(SessionKeyString(key))
	return nil
}
