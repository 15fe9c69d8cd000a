package dto

import (
	"time"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	Id         uuid.UUID              `json:"id"`
	EventType  string                 `json:"event_type"`
	UserId     *uuid.UUID             `json:"user_id,omitempty"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}
