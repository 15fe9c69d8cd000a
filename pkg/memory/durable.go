package memory

import (
	"context"

	"byteme-assistant-be/internal/entity"

	"github.com/google/uuid"
)

// DurableStore is the slow memory tier: user-scoped consolidated turns with
// embeddings, deduplicated by content hash, queried by vector similarity.
type DurableStore interface {
	// Promote inserts a consolidated memory. Returns false when a memory with
	// the same (user, content hash) already exists; re-promotion is a no-op.
	Promote(ctx context.Context, memory *entity.DurableMemory) (bool, error)
	// Search returns the most similar memories for the user, best first.
	Search(ctx context.Context, userId uuid.UUID, embedding []float32, limit int) ([]*entity.DurableMemory, error)
	// Forget removes every memory for the user.
	Forget(ctx context.Context, userId uuid.UUID) error
}
