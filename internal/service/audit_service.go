package service

import (
	"context"
	"strings"
	"time"

	"byteme-assistant-be/internal/dto"
	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/pkg/logger"
	"byteme-assistant-be/internal/repository/specification"
	"byteme-assistant-be/internal/repository/unitofwork"
	"byteme-assistant-be/pkg/events"
	pktNats "byteme-assistant-be/pkg/nats"

	"github.com/google/uuid"
)

type IAuditService interface {
	Start()
	GetLogs(ctx context.Context, eventType string, limit, offset int) ([]*dto.AuditLogResponse, error)
}

// auditService captures every bus event into the audit trail. It is a
// durable consumer, so events published while the worker is down are
// replayed on restart.
type auditService struct {
	uowFactory unitofwork.RepositoryFactory
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewAuditService(uowFactory unitofwork.RepositoryFactory, sub *pktNats.Subscriber, log logger.ILogger) IAuditService {
	return &auditService{
		uowFactory: uowFactory,
		subscriber: sub,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *auditService) Start() {
	if s.subscriber == nil {
		s.logger.Warn("AuditService", "No bus connection, audit trail disabled", nil)
		return
	}

	if err := s.subscriber.Subscribe("events.>", "audit-trail-worker", s.handleEvent); err != nil {
		s.logger.Error("AuditService", "Failed to start audit subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("AuditService", "Audit trail started, listening to events.>", nil)
}

func (s *auditService) handleEvent(ctx context.Context, event events.Event) error {
	// The NATS subject includes the stream prefix; the trail stores bare codes.
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	var userId *uuid.UUID
	if uidStr, ok := event.Payload()["user_id"].(string); ok {
		if uid, err := uuid.Parse(uidStr); err == nil {
			userId = &uid
		}
	}

	entry := &entity.AuditLog{
		Id:         uuid.New(),
		EventType:  typeCode,
		UserId:     userId,
		Payload:    event.Payload(),
		OccurredAt: event.Timestamp(),
		CreatedAt:  time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AuditRepository().Create(ctx, entry); err != nil {
		s.logger.Error("AuditService", "Failed to persist audit entry", map[string]interface{}{
			"error": err.Error(),
			"type":  typeCode,
		})
		return err // returning an error makes the bus redeliver
	}

	return nil
}

func (s *auditService) GetLogs(ctx context.Context, eventType string, limit, offset int) ([]*dto.AuditLogResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "occurred_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	}
	if eventType != "" {
		specs = append(specs, specification.ByEventType{EventType: eventType})
	}

	logs, err := uow.AuditRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		response = append(response, &dto.AuditLogResponse{
			Id:         l.Id,
			EventType:  l.EventType,
			UserId:     l.UserId,
			Payload:    l.Payload,
			OccurredAt: l.OccurredAt,
		})
	}

	return response, nil
}
