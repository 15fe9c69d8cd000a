package unitofwork

import (
	"context"

	"byteme-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository

	DocumentRepository() contract.DocumentRepository
	PassageRepository() contract.PassageRepository
	MemoryRepository() contract.MemoryRepository
	AuditRepository() contract.AuditRepository
}
