// FILE: internal/service/chat_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"byteme-assistant-be/internal/constant"
	"byteme-assistant-be/internal/dto"
	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/pkg/mailer"
	"byteme-assistant-be/internal/repository/specification"
	"byteme-assistant-be/internal/repository/unitofwork"
	"byteme-assistant-be/pkg/agent"
	"byteme-assistant-be/pkg/events"
	pktNats "byteme-assistant-be/pkg/nats"
	"byteme-assistant-be/pkg/store"
	"byteme-assistant-be/pkg/tools"

	"github.com/google/uuid"
)

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, req *dto.DeleteSessionRequest) error
}

// TurnRunner is the workflow engine surface the chat service drives.
type TurnRunner interface {
	Run(ctx context.Context, query string, key store.SessionKey, allowedDomains []string) (*agent.Result, error)
}

// SessionMemory is the fast conversation tier; deleting a chat session also
// drops its memory window. The durable tier deliberately survives deletion.
type SessionMemory interface {
	Clear(ctx context.Context, key store.SessionKey) error
}

// TraceDelivery pushes per-turn workflow events to a user's live
// connections.
type TraceDelivery interface {
	Send(userID uuid.UUID, event string, payload interface{})
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	runner         TurnRunner
	sessionMemory  SessionMemory
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	delivery       TraceDelivery
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	runner TurnRunner,
	sessionMemory SessionMemory,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	delivery TraceDelivery,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		runner:         runner,
		sessionMemory:  sessionMemory,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		delivery:       delivery,
	}
}

// CreateSession opens a new conversation seeded with a greeting.
func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "Unnamed session",
		CreatedAt: now,
	}

	greeting := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       "Hi, how can I help you today?",
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &greeting); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id}, nil
}

func (cs *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Domain:    msg.Domain,
			Verified:  msg.Verified,
			Citations: msg.Citations,
			CreatedAt: msg.CreatedAt,
		})
	}

	return resp, nil
}

// SendMessage runs one workflow turn and stores both sides of the exchange.
func (cs *chatService) SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	chatSession, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: req.SessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	messageCount, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: req.SessionId},
	)
	if err != nil {
		return nil, err
	}

	// Run the workflow before opening the transaction: the engine persists
	// its own memory tiers, and a slow generation must not hold a DB
	// transaction open. The domain whitelist comes from the user record,
	// not the token, so revocations apply immediately.
	key := store.SessionKey{UserID: userId, SessionID: req.SessionId}
	result, err := cs.runner.Run(ctx, req.Message, key, user.AllowedDomains)
	if err != nil {
		// Caller cancelled; the engine persisted nothing and neither do we.
		return nil, err
	}

	now := time.Now()
	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: req.SessionId,
		Role:          constant.ChatMessageRoleUser,
		Content:       req.Message,
		CreatedAt:     now,
	}
	assistantMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: req.SessionId,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       result.Turn.Answer,
		Domain:        string(result.Turn.Domain),
		Verified:      result.Grounded,
		Citations:     result.Turn.Citations,
		CreatedAt:     now.Add(time.Millisecond),
	}

	// Only the greeting so far means this is the first real exchange.
	updateTitle := messageCount <= 1

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, err
	}

	if updateTitle {
		chatSession.Title = sessionTitle(req.Message)
		chatSession.UpdatedAt = &now
		if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Post-commit side effects. The turn is already stored; none of these
	// may fail it.
	cs.streamTrace(userId, req.SessionId, result.Trace)
	cs.publishTurnEvents(ctx, userId, req.SessionId, result)
	cs.sendActionConfirmation(user, result)

	return cs.buildResponse(chatSession, userMessage, assistantMessage, result), nil
}

func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, req *dto.DeleteSessionRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: req.SessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found or access denied")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, req.SessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, req.SessionId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if cs.sessionMemory != nil {
		key := store.SessionKey{UserID: userId, SessionID: req.SessionId}
		if err := cs.sessionMemory.Clear(ctx, key); err != nil {
			fmt.Printf("[WARN] Failed to clear session memory window: %v\n", err)
		}
	}

	return nil
}

// sessionTitle derives a conversation title from its first question.
func sessionTitle(message string) string {
	const maxTitle = 50
	if len(message) <= maxTitle {
		return message
	}
	return message[:maxTitle] + "..."
}

func (cs *chatService) streamTrace(userId, sessionId uuid.UUID, trace []store.StageEvent) {
	if cs.delivery == nil {
		return
	}
	for _, ev := range trace {
		cs.delivery.Send(userId, "trace", map[string]interface{}{
			"session_id": sessionId,
			"stage":      ev.Stage,
			"detail":     ev.Detail,
			"at":         ev.At,
		})
	}
}

func (cs *chatService) publishTurnEvents(ctx context.Context, userId, sessionId uuid.UUID, result *agent.Result) {
	if cs.eventPublisher == nil {
		return
	}

	turnEvent := events.BaseEvent{
		Type: constant.EventTurnCompleted,
		Data: map[string]interface{}{
			"user_id":       userId,
			"session_id":    sessionId,
			"domain":        string(result.Turn.Domain),
			"action":        result.Intent.Action,
			"grounded":      result.Grounded,
			"clarification": result.Clarification,
			"retries":       result.Retries,
			"citations":     len(result.Turn.Citations),
		},
		OccurredAt: time.Now(),
	}
	if err := cs.eventPublisher.Publish(ctx, turnEvent); err != nil {
		fmt.Printf("[WARN] Failed to publish %s event: %v\n", constant.EventTurnCompleted, err)
	}

	if result.Promoted && result.PromotedMemory != nil {
		memEvent := events.BaseEvent{
			Type: constant.EventMemoryPromoted,
			Data: map[string]interface{}{
				"user_id":    userId,
				"memory_id":  result.PromotedMemory.Id,
				"domain":     result.PromotedMemory.Domain,
				"importance": result.PromotedMemory.Importance,
			},
			OccurredAt: time.Now(),
		}
		if err := cs.eventPublisher.Publish(ctx, memEvent); err != nil {
			fmt.Printf("[WARN] Failed to publish %s event: %v\n", constant.EventMemoryPromoted, err)
		}
	}
}

var (
	ticketIDPattern = regexp.MustCompile(`INC\d{8}[0-9A-F]{6}`)
	leaveIDPattern  = regexp.MustCompile(`LV\d{8}[0-9A-F]{6}`)
	slaPattern      = regexp.MustCompile(`SLA: (.+)`)
)

// sendActionConfirmation mails the user after a completed tool action that
// produced a trackable id. The id lives in the tool's reply text, so its
// absence means the tool rejected the request and no mail goes out.
func (cs *chatService) sendActionConfirmation(user *entity.User, result *agent.Result) {
	if cs.emailService == nil || result.Clarification || !result.Intent.Complete() {
		return
	}

	switch result.Intent.Action {
	case tools.ActionCreateTicket:
		ticketID := ticketIDPattern.FindString(result.Turn.Answer)
		if ticketID == "" {
			return
		}
		sla := "48 hours"
		if m := slaPattern.FindStringSubmatch(result.Turn.Answer); len(m) == 2 {
			sla = m[1]
		}
		issue := result.Intent.Parameters["issue"]
		go func() {
			if err := cs.emailService.SendTicketConfirmation(user.Email, ticketID, issue, sla); err != nil {
				fmt.Printf("[WARN] Failed to send ticket confirmation email: %v\n", err)
			}
		}()

	case tools.ActionLeaveApplication:
		requestID := leaveIDPattern.FindString(result.Turn.Answer)
		if requestID == "" {
			return
		}
		start := result.Intent.Parameters["start_date"]
		end := result.Intent.Parameters["end_date"]
		days := leaveDays(start, end)
		go func() {
			if err := cs.emailService.SendLeaveConfirmation(user.Email, requestID, start, end, days); err != nil {
				fmt.Printf("[WARN] Failed to send leave confirmation email: %v\n", err)
			}
		}()
	}
}

func leaveDays(start, end string) int {
	s, errStart := time.Parse("2006-01-02", start)
	e, errEnd := time.Parse("2006-01-02", end)
	if errStart != nil || errEnd != nil || e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

func (cs *chatService) buildResponse(
	chatSession *entity.ChatSession,
	userMessage, assistantMessage *entity.ChatMessage,
	result *agent.Result,
) *dto.SendMessageResponse {
	retained := store.Retained(result.GradedPassages)
	sources := make([]dto.SourceDTO, 0, len(retained))
	for _, g := range retained {
		sources = append(sources, dto.SourceDTO{
			SourceId:  g.SourceID,
			Title:     g.DocTitle,
			Relevance: g.RelevanceScore,
		})
	}

	trace := make([]dto.StageEventDTO, 0, len(result.Trace))
	for _, ev := range result.Trace {
		trace = append(trace, dto.StageEventDTO{Stage: ev.Stage, Detail: ev.Detail, At: ev.At})
	}

	return &dto.SendMessageResponse{
		SessionId:    chatSession.Id,
		SessionTitle: chatSession.Title,
		Sent: &dto.ChatMessageDTO{
			Id:        userMessage.Id,
			Role:      userMessage.Role,
			Content:   userMessage.Content,
			CreatedAt: userMessage.CreatedAt,
		},
		Reply: &dto.ChatMessageDTO{
			Id:        assistantMessage.Id,
			Role:      assistantMessage.Role,
			Content:   assistantMessage.Content,
			Domain:    assistantMessage.Domain,
			Verified:  assistantMessage.Verified,
			Citations: assistantMessage.Citations,
			CreatedAt: assistantMessage.CreatedAt,
		},
		Domain:         string(result.Turn.Domain),
		Action:         result.Intent.Action,
		Grounded:       result.Grounded,
		Clarification:  result.Clarification,
		Retries:        result.Retries,
		MemoryPromoted: result.Promoted,
		Sources:        sources,
		Trace:          trace,
	}
}
