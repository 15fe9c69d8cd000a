package mapper

import (
	"encoding/json"

	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type AuditMapper struct{}

func NewAuditMapper() *AuditMapper {
	return &AuditMapper{}
}

func (m *AuditMapper) ToEntity(a *model.AuditLog) *entity.AuditLog {
	if a == nil {
		return nil
	}

	payload := map[string]interface{}{}
	if len(a.Payload) > 0 {
		// Ignore malformed payloads rather than failing the read.
		_ = json.Unmarshal(a.Payload, &payload)
	}

	return &entity.AuditLog{
		Id:         a.Id,
		EventType:  a.EventType,
		UserId:     a.UserId,
		Payload:    payload,
		OccurredAt: a.OccurredAt,
		CreatedAt:  a.CreatedAt,
	}
}

func (m *AuditMapper) ToModel(a *entity.AuditLog) *model.AuditLog {
	if a == nil {
		return nil
	}

	var payload datatypes.JSON
	if a.Payload != nil {
		if raw, err := json.Marshal(a.Payload); err == nil {
			payload = datatypes.JSON(raw)
		}
	}

	return &model.AuditLog{
		Id:         a.Id,
		EventType:  a.EventType,
		UserId:     a.UserId,
		Payload:    payload,
		OccurredAt: a.OccurredAt,
		CreatedAt:  a.CreatedAt,
	}
}

func (m *AuditMapper) ToEntities(logs []*model.AuditLog) []*entity.AuditLog {
	entities := make([]*entity.AuditLog, len(logs))
	for i, a := range logs {
		entities[i] = m.ToEntity(a)
	}
	return entities
}
