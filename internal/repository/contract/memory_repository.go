// FILE: internal/repository/contract/memory_repository.go
package contract

import (
	"context"

	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredMemory wraps a DurableMemory with its similarity score.
type ScoredMemory struct {
	Memory     *entity.DurableMemory
	Similarity float64
}

type MemoryRepository interface {
	// Upsert inserts the memory unless the same (user, content hash) pair
	// already exists. Returns true when a new row was written.
	Upsert(ctx context.Context, memory *entity.DurableMemory) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DurableMemory, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DurableMemory, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns the user's memories ranked by cosine
	// similarity to the query embedding.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*ScoredMemory, error)
}
