package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Document represents an uploaded or crawled source document awaiting conversion.
type Document struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	StorageURL  string    `db:"storage_url" json:"storage_url"` // S3 URL or original link
	SourceType  string    `db:"source_type" json:"source_type"` // "upload" or "url"
	ContentType string    `db:"content_type" json:"content_type"`
	// Checksum is filled after conversion and keys this document's chunks in
	// the vector store.
	Checksum  string    `db:"checksum_sha256" json:"checksum_sha256,omitempty"`
	Status    string    `db:"status" json:"status"` // uploaded | processing | ready | failed
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DocumentMeta is the provenance header attached to every canonical Markdown
// rendering. All fields except CreatedAt are pure functions of the input bytes,
// so two conversions of identical bytes agree on everything that feeds chunk ids.
type DocumentMeta struct {
	SourceURI         string `json:"source_uri"`
	ChecksumSHA256    string `json:"checksum_sha256"`
	ContentType       string `json:"content_type"` // txt|pdf|docx|pptx|xlsx|csv|json|html|unknown
	MIME              string `json:"mime"`
	DocLanguage       string `json:"doc_language"`
	ExtractionEngine  string `json:"extraction_engine"`
	ExtractionVersion string `json:"extraction_version"`
	CreatedAt         string `json:"created_at"`
	Title             string `json:"title"`
}

// ChunkMetadata is the per-chunk provenance carried through the chunks file and
// into the store, matching the JSON Lines wire format field for field.
type ChunkMetadata struct {
	HeadingPath       string `json:"heading_path"`
	ByteRange         [2]int `json:"byte_range"`
	Tokens            int    `json:"tokens"`
	SourceURI         string `json:"source_uri"`
	ChecksumSHA256    string `json:"checksum_sha256"`
	ContentType       string `json:"content_type"`
	ExtractionEngine  string `json:"extraction_engine"`
	ExtractionVersion string `json:"extraction_version"`
	DocLanguage       string `json:"doc_language"`
}

// Chunk is one retrieval unit. ChunkID is a pure function of
// (source_uri, heading_path, range_id); identical input always yields the
// identical id, which is what makes re-ingestion idempotent.
type Chunk struct {
	ChunkID  string        `json:"chunk_id"`
	Text     string        `json:"text"`
	Summary  string        `json:"summary"`
	Keywords []string      `json:"keywords"`
	Metadata ChunkMetadata `json:"metadata"`
}

// IngestionQA records the advisory quality checks run before embedding.
// PII findings never block ingestion; they are recorded for downstream review.
type IngestionQA struct {
	Language       string   `json:"language,omitempty"`
	TokenCount     int      `json:"token_count"`
	PIITypes       []string `json:"pii_types"`
	EmbeddingModel string   `json:"embedding_model"`
	EmbeddingDim   int      `json:"embedding_dim"`
	IngestedAt     int64    `json:"ingested_at"`
}

// ChunkRow is the persisted form of a Chunk: content plus embedding plus QA,
// keyed by (DocID, ChunkSeq) with conflict-free insert semantics.
type ChunkRow struct {
	DocID     string        `db:"doc_id" json:"doc_id"`
	ChunkSeq  int           `db:"chunk_seq" json:"chunk_seq"`
	ChunkID   string        `db:"chunk_id" json:"chunk_id"`
	Content   string        `db:"content" json:"content"`
	Metadata  ChunkMetadata `db:"metadata" json:"metadata"`
	QA        IngestionQA   `db:"qa" json:"qa"`
	Embedding []float32     `db:"embedding" json:"embedding"`
}
