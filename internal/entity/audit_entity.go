package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is one bus event captured for the audit trail.
type AuditLog struct {
	Id         uuid.UUID
	EventType  string
	UserId     *uuid.UUID
	Payload    map[string]interface{}
	OccurredAt time.Time
	CreatedAt  time.Time
}
