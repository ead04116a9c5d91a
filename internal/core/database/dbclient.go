package db

import (
	"context"

	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

// DbClient defines all persistence operations the services need. It abstracts
// Postgres/pgvector so higher layers never depend on a specific store.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status string) error
	SetDocumentChecksum(ctx context.Context, id string, checksum string) error

	// InsertChunkRows performs the idempotent upsert keyed by
	// (doc_id, chunk_seq) and returns the number of rows actually inserted;
	// conflicts are absorbed and not counted.
	InsertChunkRows(ctx context.Context, rows []models.ChunkRow) (int, error)
	GetChunksByDocument(ctx context.Context, docID string) ([]models.ChunkRow, error)

	// SearchChunks orders by vector distance to queryVec; docID narrows the
	// search to one document when non-empty.
	SearchChunks(ctx context.Context, docID string, queryVec []float32, limit int) ([]models.ChunkRow, error)

	Close() error
}
