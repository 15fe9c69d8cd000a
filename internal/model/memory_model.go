package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type DurableMemory struct {
	Id          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_memory_user_hash"`
	Content     string          `gorm:"type:text;not null"`
	ContentHash string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_memory_user_hash"`
	Domain      string          `gorm:"type:varchar(20)"`
	Importance  float64         `gorm:"not null;default:0"`
	Embedding   pgvector.Vector `gorm:"type:vector(768)"`
	SessionId   uuid.UUID       `gorm:"type:uuid;index"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

func (DurableMemory) TableName() string {
	return "durable_memories"
}
