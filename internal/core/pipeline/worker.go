package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	db "github.com/ilkecodes/sdr-agent-system/internal/core/database"
	"github.com/ilkecodes/sdr-agent-system/internal/core/ingest"
	"github.com/ilkecodes/sdr-agent-system/internal/core/objectstore"
)

// DocumentIngestor runs the full pipeline for uploaded documents in the
// background: fetch from object storage, convert, embed, persist.
type DocumentIngestor struct {
	db        db.DbClient
	obj       objectstore.ObjectClient
	converter *Converter
	ingestor  *ingest.Ingestor

	jobs chan string
}

// NewDocumentIngestor constructs the ingestor with a bounded job queue (64).
func NewDocumentIngestor(dbc db.DbClient, obj objectstore.ObjectClient, conv *Converter, ing *ingest.Ingestor) *DocumentIngestor {
	return &DocumentIngestor{
		db: dbc, obj: obj, converter: conv, ingestor: ing,
		jobs: make(chan string, 64),
	}
}

// Start launches numWorkers goroutines reading from the jobs channel. Workers
// run until ctx is cancelled.
func (i *DocumentIngestor) Start(ctx context.Context, numWorkers int) {
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					log.Println("DocumentIngestor: Worker shutting down.")
					return
				case docID := <-i.jobs:
					log.Printf("DocumentIngestor: Processing document %s by worker %d", docID, w)

					if err := i.processOne(ctx, docID); err != nil {
						log.Printf("DocumentIngestor: Error processing document %s: %v", docID, err)
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a document ID for ingestion.
// If the queue is full, this call will block until space frees up.
func (i *DocumentIngestor) Enqueue(docID string) {
	i.jobs <- docID
}

// processOne fetches, converts, embeds and persists one uploaded document,
// moving its status processing -> ready|failed.
func (i *DocumentIngestor) processOne(ctx context.Context, docID string) error {
	// Processing outlives the enqueueing request, so it gets its own deadline.
	proctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	doc, err := i.db.GetDocumentByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("document not found: %s", docID)
	}

	if err := i.db.UpdateDocumentStatus(ctx, docID, "processing"); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	bucket, key := parseS3URL(doc.StorageURL)
	data, err := i.obj.GetFile(proctx, bucket, key)
	if err != nil {
		_ = i.db.UpdateDocumentStatus(ctx, docID, "failed")
		return fmt.Errorf("get object: %w", err)
	}

	res, err := i.converter.ConvertBytes(proctx, data, doc.StorageURL, doc.ContentType, "auto")
	if err != nil {
		_ = i.db.UpdateDocumentStatus(ctx, docID, "failed")
		return fmt.Errorf("convert: %w", err)
	}
	if err := i.db.SetDocumentChecksum(proctx, docID, res.Meta.ChecksumSHA256); err != nil {
		log.Printf("DocumentIngestor: set checksum for %s: %v", docID, err)
	}

	report, err := i.ingestor.IngestRecords(proctx, res.Chunks)
	if err != nil {
		_ = i.db.UpdateDocumentStatus(ctx, docID, "failed")
		return fmt.Errorf("ingest: %w", err)
	}
	log.Printf("DocumentIngestor: document %s processed=%d inserted=%d skipped=%d failed=%d",
		docID, report.Processed, report.Inserted, report.Skipped, report.Failed)

	if report.Failed > 0 && report.Inserted == 0 && report.Skipped == 0 {
		_ = i.db.UpdateDocumentStatus(ctx, docID, "failed")
		return fmt.Errorf("ingest: all %d chunks failed", report.Failed)
	}

	return i.db.UpdateDocumentStatus(ctx, docID, "ready")
}

// parseS3URL extracts the bucket and key from a typical virtual-hosted–style S3 URL.
// Example: https://my-bucket.s3.us-east-2.amazonaws.com/path/to/file.pdf
func parseS3URL(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 0 {
		bucket = parts[0]
	}
	return bucket, key
}
