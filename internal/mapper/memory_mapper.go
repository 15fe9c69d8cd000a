package mapper

import (
	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type MemoryMapper struct{}

func NewMemoryMapper() *MemoryMapper {
	return &MemoryMapper{}
}

func (m *MemoryMapper) ToEntity(mem *model.DurableMemory) *entity.DurableMemory {
	if mem == nil {
		return nil
	}

	return &entity.DurableMemory{
		Id:          mem.Id,
		UserId:      mem.UserId,
		Content:     mem.Content,
		ContentHash: mem.ContentHash,
		Domain:      mem.Domain,
		Importance:  mem.Importance,
		Embedding:   mem.Embedding.Slice(),
		SessionId:   mem.SessionId,
		CreatedAt:   mem.CreatedAt,
	}
}

func (m *MemoryMapper) ToModel(mem *entity.DurableMemory) *model.DurableMemory {
	if mem == nil {
		return nil
	}

	return &model.DurableMemory{
		Id:          mem.Id,
		UserId:      mem.UserId,
		Content:     mem.Content,
		ContentHash: mem.ContentHash,
		Domain:      mem.Domain,
		Importance:  mem.Importance,
		Embedding:   pgvector.NewVector(mem.Embedding),
		SessionId:   mem.SessionId,
		CreatedAt:   mem.CreatedAt,
	}
}

func (m *MemoryMapper) ToEntities(memories []*model.DurableMemory) []*entity.DurableMemory {
	entities := make([]*entity.DurableMemory, len(memories))
	for i, mem := range memories {
		entities[i] = m.ToEntity(mem)
	}
	return entities
}
