// FILE: internal/dto/chat_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Domain    string    `json:"domain,omitempty"`
	Verified  bool      `json:"verified,omitempty"`
	Citations []string  `json:"citations,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Message   string    `json:"message" validate:"required,max=4000"`
}

// ChatMessageDTO is one persisted message of an exchange. Domain, Verified
// and Citations are only populated on assistant replies.
type ChatMessageDTO struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Domain    string    `json:"domain,omitempty"`
	Verified  bool      `json:"verified,omitempty"`
	Citations []string  `json:"citations,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceDTO is one retained passage the answer may cite.
type SourceDTO struct {
	SourceId  string  `json:"source_id"`
	Title     string  `json:"title"`
	Relevance float64 `json:"relevance"`
}

// StageEventDTO is one workflow trace entry, also streamed over the
// websocket while the turn is running.
type StageEventDTO struct {
	Stage  string    `json:"stage"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

type SendMessageResponse struct {
	SessionId    uuid.UUID       `json:"session_id"`
	SessionTitle string          `json:"title"`
	Sent         *ChatMessageDTO `json:"sent"`
	Reply        *ChatMessageDTO `json:"reply"`

	Domain         string          `json:"domain"`
	Action         string          `json:"action,omitempty"`
	Grounded       bool            `json:"grounded"`
	Clarification  bool            `json:"clarification"`
	Retries        int             `json:"retries"`
	MemoryPromoted bool            `json:"memory_promoted"`
	Sources        []SourceDTO     `json:"sources,omitempty"`
	Trace          []StageEventDTO `json:"trace,omitempty"`
}

type DeleteSessionRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
}
