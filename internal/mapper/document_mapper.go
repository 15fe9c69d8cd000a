package mapper

import (
	"time"

	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:         d.Id,
		Title:      d.Title,
		Content:    d.Content,
		Domain:     d.Domain,
		Status:     entity.DocumentStatus(d.Status),
		UploadedBy: d.UploadedBy,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:         d.Id,
		Title:      d.Title,
		Content:    d.Content,
		Domain:     d.Domain,
		Status:     string(d.Status),
		UploadedBy: d.UploadedBy,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

// Passage Mappers

func (m *DocumentMapper) PassageToEntity(p *model.Passage) *entity.Passage {
	if p == nil {
		return nil
	}

	return &entity.Passage{
		Id:         p.Id,
		DocumentId: p.DocumentId,
		Content:    p.Content,
		ChunkIndex: p.ChunkIndex,
		Domain:     p.Domain,
		Embedding:  p.Embedding.Slice(),
		CreatedAt:  p.CreatedAt,
	}
}

func (m *DocumentMapper) PassageToModel(p *entity.Passage) *model.Passage {
	if p == nil {
		return nil
	}

	return &model.Passage{
		Id:         p.Id,
		DocumentId: p.DocumentId,
		Content:    p.Content,
		ChunkIndex: p.ChunkIndex,
		Domain:     p.Domain,
		Embedding:  pgvector.NewVector(p.Embedding),
		CreatedAt:  p.CreatedAt,
	}
}

func (m *DocumentMapper) PassagesToEntities(passages []*model.Passage) []*entity.Passage {
	entities := make([]*entity.Passage, len(passages))
	for i, p := range passages {
		entities[i] = m.PassageToEntity(p)
	}
	return entities
}

func (m *DocumentMapper) PassagesToModels(passages []*entity.Passage) []*model.Passage {
	models := make([]*model.Passage, len(passages))
	for i, p := range passages {
		models[i] = m.PassageToModel(p)
	}
	return models
}
