package entity

import (
	"time"

	"github.com/google/uuid"
)

// DurableMemory is a consolidated conversation turn promoted out of the
// session window. ContentHash dedupes re-promotions of the same turn.
type DurableMemory struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Content     string
	ContentHash string
	Domain      string
	Importance  float64
	Embedding   []float32
	SessionId   uuid.UUID
	CreatedAt   time.Time
}
