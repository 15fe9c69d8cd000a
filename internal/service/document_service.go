package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"byteme-assistant-be/internal/dto"
	"byteme-assistant-be/internal/entity"
	"byteme-assistant-be/internal/repository/specification"
	"byteme-assistant-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)
	GetAll(ctx context.Context) ([]*dto.DocumentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reingest(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewDocumentService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

// Upload registers a knowledge-base document and hands it to the embedding
// consumer. The document is queryable only after the consumer marks it
// completed.
func (ds *documentService) Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	doc := entity.Document{
		Id:         uuid.New(),
		Title:      req.Title,
		Content:    req.Content,
		Domain:     req.Domain,
		Status:     entity.DocumentStatusPending,
		UploadedBy: userId,
		CreatedAt:  time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
		return nil, err
	}

	if err := ds.publishIngest(ctx, doc.Id); err != nil {
		return nil, err
	}

	return &dto.UploadDocumentResponse{
		Id:     doc.Id,
		Status: string(doc.Status),
	}, nil
}

func (ds *documentService) GetAll(ctx context.Context) ([]*dto.DocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		response = append(response, &dto.DocumentResponse{
			Id:        d.Id,
			Title:     d.Title,
			Domain:    d.Domain,
			Status:    string(d.Status),
			CreatedAt: d.CreatedAt,
		})
	}

	return response, nil
}

// Delete removes a document together with its embedded passages so retrieval
// can never cite a source that no longer exists.
func (ds *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.PassageRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}

// Reingest queues an existing document for re-embedding, e.g. after an
// embedding model change.
func (ds *documentService) Reingest(ctx context.Context, id uuid.UUID) error {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document not found")
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, id, entity.DocumentStatusPending); err != nil {
		return err
	}

	return ds.publishIngest(ctx, id)
}

func (ds *documentService) publishIngest(ctx context.Context, documentId uuid.UUID) error {
	payload := dto.PublishIngestDocumentMessage{DocumentId: documentId}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return ds.publisherService.Publish(ctx, payloadJson)
}
