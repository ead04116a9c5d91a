package services

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"

	db "github.com/ilkecodes/sdr-agent-system/internal/core/database"
	"github.com/ilkecodes/sdr-agent-system/internal/core/objectstore"
	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

type DocumentService struct {
	db      db.DbClient
	storage objectstore.ObjectClient
	bucket  string
}

func NewDocumentService(dbc db.DbClient, storage objectstore.ObjectClient, bucket string) *DocumentService {
	return &DocumentService{db: dbc, storage: storage, bucket: bucket}
}

// UploadAndCreate stores the raw bytes in object storage, then records the
// document row in status "uploaded".
func (s *DocumentService) UploadAndCreate(ctx context.Context, userID, filename, contentType string, data []byte, sourceType string) (*models.Document, error) {
	docID := uuid.NewString()
	key := s.objectKey(userID, docID, filename)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:          docID,
		UserID:      userID,
		FileName:    filename,
		StorageURL:  url,
		SourceType:  sourceType, // "upload" or "url"
		ContentType: contentType,
		Status:      "uploaded",
	}
	if err := s.db.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.db.GetDocumentByID(ctx, id)
}

func (s *DocumentService) ListByUser(ctx context.Context, userID string) ([]models.Document, error) {
	return s.db.ListDocumentsByUser(ctx, userID)
}

func (s *DocumentService) SetStatus(ctx context.Context, docID string, status string) error {
	return s.db.UpdateDocumentStatus(ctx, docID, status)
}

// objectKey creates a consistent S3 key layout.
func (s *DocumentService) objectKey(userID, docID, filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("users", userID, "documents", docID, filename)
}
