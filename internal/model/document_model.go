package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type Document struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title      string         `gorm:"type:text;not null"`
	Content    string         `gorm:"type:text;not null"`
	Domain     string         `gorm:"type:varchar(20);not null;index"`
	Status     string         `gorm:"type:varchar(50);not null;default:'pending'"`
	UploadedBy uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}

type Passage struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId uuid.UUID       `gorm:"type:uuid;not null;index"`
	Content    string          `gorm:"type:text;not null"`
	ChunkIndex int             `gorm:"default:0"` // 0-based index for ordering
	Domain     string          `gorm:"type:varchar(20);not null;index"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text and text-embedding-004 both use 768 dimensions
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (Passage) TableName() string {
	return "passages"
}
