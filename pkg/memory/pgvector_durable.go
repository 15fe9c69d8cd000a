package memory

import (
	"context"

	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// durableSearchThreshold drops memories that are barely related to the query.
// The durable tier recalls prior conversations, so it can afford to be
// stricter than document retrieval.
const durableSearchThreshold = 0.3

// PgvectorDurableStore keeps consolidated memories in Postgres with pgvector
// similarity search. This is the primary durable tier.
type PgvectorDurableStore struct {
	repositoryFactory unitofwork.RepositoryFactory
}

var _ DurableStore = &PgvectorDurableStore{}

func NewPgvectorDurableStore(repositoryFactory unitofwork.RepositoryFactory) *PgvectorDurableStore {
	return &PgvectorDurableStore{
		repositoryFactory: repositoryFactory,
	}
}

func (s *PgvectorDurableStore) Promote(ctx context.Context, memory *entity.DurableMemory) (bool, error) {
	uow := s.repositoryFactory.NewUnitOfWork(ctx)
	return uow.MemoryRepository().Upsert(ctx, memory)
}

func (s *PgvectorDurableStore) Search(ctx context.Context, userId uuid.UUID, embedding []float32, limit int) ([]*entity.DurableMemory, error) {
	uow := s.repositoryFactory.NewUnitOfWork(ctx)

	scored, err := uow.MemoryRepository().SearchSimilarWithScore(ctx, embedding, limit, userId, durableSearchThreshold)
	if err != nil {
		return nil, err
	}

	memories := make([]*entity.DurableMemory, 0, len(scored))
	for _, s := range scored {
		memories = append(memories, s.Memory)
	}
	return memories, nil
}

func (s *PgvectorDurableStore) Forget(ctx context.Context, userId uuid.UUID) error {
	uow := s.repositoryFactory.NewUnitOfWork(ctx)
	return uow.MemoryRepository().DeleteAllByUserId(ctx, userId)
}
