package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ilkecodes/sdr-agent-system/internal/config"
	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Pool settings sized for one API service plus the ingestion workers;
	// chunks of the same run reuse these connections.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.FirstName, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, user_id, file_name, storage_url, source_type, content_type, checksum_sha256, status, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()), COALESCE($10, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.UserID, doc.FileName, doc.StorageURL, doc.SourceType, doc.ContentType, doc.Checksum, doc.Status, doc.CreatedAt, doc.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	const q = `
		SELECT id, user_id, file_name, storage_url, source_type, content_type, checksum_sha256, status, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	var d models.Document
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.UserID, &d.FileName, &d.StorageURL, &d.SourceType, &d.ContentType, &d.Checksum, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error) {
	const q = `
		SELECT id, user_id, file_name, storage_url, source_type, content_type, checksum_sha256, status, created_at, updated_at
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.FileName, &d.StorageURL, &d.SourceType, &d.ContentType, &d.Checksum, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE documents
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// SetDocumentChecksum records the content checksum computed during conversion,
// linking the document row to its chunks in the vector store.
func (c *DatabaseClient) SetDocumentChecksum(ctx context.Context, id string, checksum string) error {
	const q = `
		UPDATE documents
		SET checksum_sha256 = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, checksum)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// InsertChunkRows inserts chunks in a single transaction with
// ON CONFLICT (doc_id, chunk_seq) DO NOTHING. The returned count reflects rows
// actually written; absorbed conflicts are the idempotency mechanism, not an
// error, so they are simply not counted.
func (c *DatabaseClient) InsertChunkRows(ctx context.Context, rows []models.ChunkRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}

	const q = `
		INSERT INTO kb_chunks
			(doc_id, chunk_seq, chunk_id, content, metadata, qa, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (doc_id, chunk_seq) DO NOTHING
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for i := range rows {
		row := &rows[i]
		metaJSON, err := json.Marshal(row.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("marshal metadata: %w", err)
		}
		qaJSON, err := json.Marshal(row.QA)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("marshal qa: %w", err)
		}

		res, err := stmt.ExecContext(ctx,
			row.DocID, row.ChunkSeq, row.ChunkID, row.Content, metaJSON, qaJSON, pgvector.NewVector(row.Embedding),
		)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (c *DatabaseClient) GetChunksByDocument(ctx context.Context, docID string) ([]models.ChunkRow, error) {
	const q = `
		SELECT doc_id, chunk_seq, chunk_id, content, metadata, qa, embedding
		FROM kb_chunks
		WHERE doc_id = $1
		ORDER BY chunk_seq ASC
	`
	rows, err := c.db.QueryContext(ctx, q, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

// SearchChunks finds the top-k similar chunks for a query embedding, optionally
// scoped to one document.
func (c *DatabaseClient) SearchChunks(ctx context.Context, docID string, queryVec []float32, limit int) ([]models.ChunkRow, error) {
	vec := pgvector.NewVector(queryVec)

	var (
		rows *sql.Rows
		err  error
	)
	if docID != "" {
		const q = `
			SELECT doc_id, chunk_seq, chunk_id, content, metadata, qa, embedding
			FROM kb_chunks
			WHERE doc_id = $1
			ORDER BY embedding <-> $2
			LIMIT $3
		`
		rows, err = c.db.QueryContext(ctx, q, docID, vec, limit)
	} else {
		const q = `
			SELECT doc_id, chunk_seq, chunk_id, content, metadata, qa, embedding
			FROM kb_chunks
			ORDER BY embedding <-> $1
			LIMIT $2
		`
		rows, err = c.db.QueryContext(ctx, q, vec, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

func scanChunkRows(rows *sql.Rows) ([]models.ChunkRow, error) {
	var out []models.ChunkRow
	for rows.Next() {
		var (
			ch       models.ChunkRow
			metaJSON []byte
			qaJSON   []byte
			emb      pgvector.Vector
		)
		if err := rows.Scan(&ch.DocID, &ch.ChunkSeq, &ch.ChunkID, &ch.Content, &metaJSON, &qaJSON, &emb); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &ch.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		if err := json.Unmarshal(qaJSON, &ch.QA); err != nil {
			return nil, fmt.Errorf("unmarshal qa: %w", err)
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}
