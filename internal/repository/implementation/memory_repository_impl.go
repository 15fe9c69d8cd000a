// FILE: internal/repository/implementation/memory_repository_impl.go
package implementation

import (
	"context"
	"errors"

	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/mapper"
	"byteme-assistant-be/internal/model"
	"byteme-assistant-be/internal/repository/contract"
	"byteme-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MemoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MemoryMapper
}

func NewMemoryRepository(db *gorm.DB) contract.MemoryRepository {
	return &MemoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewMemoryMapper(),
	}
}

func (r *MemoryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Upsert inserts the memory, silently skipping duplicates of the same
// (user_id, content_hash) pair. RowsAffected tells us whether a new row
// actually landed, which makes re-promotion of the same turn a no-op.
func (r *MemoryRepositoryImpl) Upsert(ctx context.Context, memory *entity.DurableMemory) (bool, error) {
	m := r.mapper.ToModel(memory)

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_hash"}},
		DoNothing: true,
	}).Create(m)

	if tx.Error != nil {
		return false, tx.Error
	}

	*memory = *r.mapper.ToEntity(m)
	return tx.RowsAffected > 0, nil
}

func (r *MemoryRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.DurableMemory{}).Error
}

func (r *MemoryRepositoryImpl) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.DurableMemory{}).Error
}

func (r *MemoryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DurableMemory, error) {
	var m model.DurableMemory
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&m), nil
}

func (r *MemoryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DurableMemory, error) {
	var models []*model.DurableMemory
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(models), nil
}

func (r *MemoryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DurableMemory{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchSimilarWithScore returns the user's memories ranked by cosine
// similarity to the query embedding, filtered by threshold.
func (r *MemoryRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*contract.ScoredMemory, error) {
	if limit <= 0 {
		limit = 2
	}

	type result struct {
		model.DurableMemory
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("durable_memories").
		Select("durable_memories.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("user_id = ?", userId).
		Where("1 - (embedding <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredMemory, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredMemory{
			Memory:     r.mapper.ToEntity(&res.DurableMemory),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
