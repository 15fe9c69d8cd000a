package contract

import (
	"context"

	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/repository/specification"
)

type AuditRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AuditLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
