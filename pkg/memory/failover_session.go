package memory

import (
	"context"
	"log"

	"byteme-assistant-be/pkg/store"
)

// FailoverSessionStore fronts a primary session store with an in-process
// fallback. Reads and writes go to the primary first; on error they fall
// through to the fallback so the conversation window survives a Redis
// outage, at the cost of becoming instance-local until the primary returns.
type FailoverSessionStore struct {
	primary  SessionStore
	fallback SessionStore
	logger   *log.Logger
}

var _ SessionStore = &FailoverSessionStore{}

func NewFailoverSessionStore(primary, fallback SessionStore, logger *log.Logger) *FailoverSessionStore {
	return &FailoverSessionStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FailoverSessionStore) Append(ctx context.Context, key store.SessionKey, turn store.Turn) error {
	if s.primary != nil {
		if err := s.primary.Append(ctx, key, turn); err == nil {
			return nil
		} else if s.logger != nil {
			s.logger.Printf("[MEMORY] session primary append failed, using fallback: %v", err)
		}
	}
	if s.fallback == nil {
		return ErrSessionUnavailable
	}
	return s.fallback.Append(ctx, key, turn)
}

func (s *FailoverSessionStore) Recent(ctx context.Context, key store.SessionKey, n int) ([]store.Turn, error) {
	if s.primary != nil {
		turns, err := s.primary.Recent(ctx, key, n)
		if err == nil {
			return turns, nil
		}
		if s.logger != nil {
			s.logger.Printf("[MEMORY] session primary read failed, using fallback: %v", err)
		}
	}
	if s.fallback == nil {
		return nil, ErrSessionUnavailable
	}
	return s.fallback.Recent(ctx, key, n)
}

func (s *FailoverSessionStore) Clear(ctx context.Context, key store.SessionKey) error {
	var primaryErr error
	if s.primary != nil {
		primaryErr = s.primary.Clear(ctx, key)
	}
	// Clear both tiers: stale fallback entries must not resurface after a
	// primary outage ends.
	if s.fallback != nil {
		if err := s.fallback.Clear(ctx, key); err != nil && primaryErr == nil {
			primaryErr = err
		}
	}
	return primaryErr
}
