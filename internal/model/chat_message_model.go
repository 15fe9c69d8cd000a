package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Role          string    `gorm:"type:varchar(50);not null"`
	Content       string    `gorm:"type:text;not null"`

	// Assistant-turn metadata. Citations holds the source ids the answer
	// was grounded on, empty for user messages.
	Domain    string                      `gorm:"type:varchar(20)"`
	Verified  bool                        `gorm:"default:false"`
	Citations datatypes.JSONSlice[string] `gorm:"type:jsonb"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
