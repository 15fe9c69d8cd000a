package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is a knowledge-base source registered for ingestion. Its body is
// chunked into Passages once the ingestion worker picks it up.
type Document struct {
	Id         uuid.UUID
	Title      string
	Content    string
	Domain     string
	Status     DocumentStatus
	UploadedBy uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}

// Passage is one embedded chunk of a document, the unit of retrieval.
type Passage struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	Content    string
	ChunkIndex int
	Domain     string
	Embedding  []float32
	CreatedAt  time.Time
}
