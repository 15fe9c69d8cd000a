package memory

import (
	"context"
	"log"

	"byteme-assistant-be/internal/entity"

	"github.com/google/uuid"
)

// FailoverDurableStore fronts the pgvector tier with the file-backed tier.
// A promotion that cannot reach the database lands in the file store instead
// of being dropped; searches fall back the same way.
type FailoverDurableStore struct {
	primary  DurableStore
	fallback DurableStore
	logger   *log.Logger
}

var _ DurableStore = &FailoverDurableStore{}

func NewFailoverDurableStore(primary, fallback DurableStore, logger *log.Logger) *FailoverDurableStore {
	return &FailoverDurableStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FailoverDurableStore) Promote(ctx context.Context, memory *entity.DurableMemory) (bool, error) {
	if s.primary != nil {
		promoted, err := s.primary.Promote(ctx, memory)
		if err == nil {
			return promoted, nil
		}
		if s.logger != nil {
			s.logger.Printf("[MEMORY] durable primary promote failed, using fallback: %v", err)
		}
	}
	if s.fallback == nil {
		return false, ErrDurableUnavailable
	}
	return s.fallback.Promote(ctx, memory)
}

func (s *FailoverDurableStore) Search(ctx context.Context, userId uuid.UUID, embedding []float32, limit int) ([]*entity.DurableMemory, error) {
	if s.primary != nil {
		memories, err := s.primary.Search(ctx, userId, embedding, limit)
		if err == nil {
			return memories, nil
		}
		if s.logger != nil {
			s.logger.Printf("[MEMORY] durable primary search failed, using fallback: %v", err)
		}
	}
	if s.fallback == nil {
		return nil, ErrDurableUnavailable
	}
	return s.fallback.Search(ctx, userId, embedding, limit)
}

func (s *FailoverDurableStore) Forget(ctx context.Context, userId uuid.UUID) error {
	var primaryErr error
	if s.primary != nil {
		primaryErr = s.primary.Forget(ctx, userId)
		if primaryErr != nil && s.logger != nil {
			s.logger.Printf("[MEMORY] durable primary forget failed: %v", primaryErr)
		}
	}
	// Forget both tiers so fallback copies do not outlive the user's request.
	if s.fallback != nil {
		if err := s.fallback.Forget(ctx, userId); err != nil && primaryErr == nil {
			primaryErr = err
		}
	}
	return primaryErr
}
