// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"byteme-assistant-be/internal/constant"
	"byteme-assistant-be/internal/dto"
	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/repository/specification"
	"byteme-assistant-be/internal/repository/unitofwork"
	"byteme-assistant-be/pkg/embedding"
	"byteme-assistant-be/pkg/events"
	pktNats "byteme-assistant-be/pkg/nats"
	"byteme-assistant-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService turns uploaded documents into embedded passages. One
// worker drains the ingestion topic; per-document work is transactional so a
// half-embedded document never serves retrieval.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	chunkSize         int
	chunkOverlap      int
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
	chunkSize int,
	chunkOverlap int,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing document ingestion for DocumentId: %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if doc == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocumentId)
		msg.Ack() // Document deleted before ingestion? Ack.
		return
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusProcessing); err != nil {
		log.Printf("[WARN] Failed to mark document %s processing: %v", doc.Id, err)
	}

	// The title and domain header rides in the first chunk so even a
	// mid-document passage's neighbours carry provenance.
	content := fmt.Sprintf("Document: %s\nDomain: %s\n\n%s", doc.Title, doc.Domain, doc.Content)

	chunks := utils.SplitText(content, cs.chunkSize, cs.chunkOverlap)
	log.Printf("[INFO] Document %s split into %d chunks", doc.Id, len(chunks))

	var newPassages []*entity.Passage

	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			log.Printf("[ERROR] Failed to embed chunk %d of document %s: %v", i, doc.Id, err)
			cs.markFailed(ctx, doc.Id)
			msg.Nack()
			return
		}

		newPassages = append(newPassages, &entity.Passage{
			Id:         uuid.New(),
			DocumentId: doc.Id,
			Content:    chunk,
			ChunkIndex: i,
			Domain:     doc.Domain,
			Embedding:  res.Embedding.Values,
			CreatedAt:  time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		cs.markFailed(ctx, doc.Id)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Delete-then-insert keeps re-ingestion idempotent.
	if err := uow.PassageRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old passages: %v", err)
		cs.markFailed(ctx, doc.Id)
		msg.Nack()
		return
	}

	if len(newPassages) > 0 {
		if err := uow.PassageRepository().CreateBulk(ctx, newPassages); err != nil {
			log.Printf("[ERROR] Failed to create passages: %v", err)
			cs.markFailed(ctx, doc.Id)
			msg.Nack()
			return
		}
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusCompleted); err != nil {
		log.Printf("[ERROR] Failed to mark document completed: %v", err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		cs.markFailed(ctx, doc.Id)
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: constant.EventDocumentIngested,
			Data: map[string]interface{}{
				"document_id": doc.Id,
				"title":       doc.Title,
				"domain":      doc.Domain,
				"chunks":      len(newPassages),
				"uploaded_by": doc.UploadedBy,
			},
			OccurredAt: time.Now(),
		}
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish %s event: %v", constant.EventDocumentIngested, err)
		}
	}

	log.Printf("[SUCCESS] Document %s ingested: %d passages", doc.Id, len(newPassages))
	msg.Ack()
}

func (cs *consumerService) markFailed(ctx context.Context, documentId uuid.UUID) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateStatus(ctx, documentId, entity.DocumentStatusFailed); err != nil {
		log.Printf("[WARN] Failed to mark document %s failed: %v", documentId, err)
	}
}
