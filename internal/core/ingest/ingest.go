// Package ingest embeds converted chunks and writes them to the vector store.
// Ingestion is idempotent: chunk ids are pure functions of content and
// provenance, and the store absorbs duplicate (doc_id, chunk_seq) pairs, so
// re-running a file over unchanged content inserts nothing new.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

// ErrDimensionMismatch reports an embedding whose length disagrees with the
// configured store dimension. The affected chunk fails loudly; vectors are
// never truncated or padded to fit.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

const DefaultBatchSize = 16

// ChunkStore is the slice of persistence the ingestor needs.
type ChunkStore interface {
	InsertChunkRows(ctx context.Context, rows []models.ChunkRow) (int, error)
}

// Failure records one chunk that could not be ingested.
type Failure struct {
	ChunkID string `json:"chunk_id"`
	Reason  string `json:"reason"`
}

// RunReport summarizes one ingestion run.
type RunReport struct {
	Processed int       `json:"processed"`
	Inserted  int       `json:"inserted"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}

type Ingestor struct {
	store       ChunkStore
	embedder    core.EmbeddingProvider
	counter     core.TokenCounter
	expectedDim int
	batchSize   int
}

func NewIngestor(store ChunkStore, embedder core.EmbeddingProvider, counter core.TokenCounter, expectedDim, batchSize int) *Ingestor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Ingestor{
		store:       store,
		embedder:    embedder,
		counter:     counter,
		expectedDim: expectedDim,
		batchSize:   batchSize,
	}
}

// docIDFor derives the store document key from chunk provenance. The checksum
// identifies content regardless of where it came from; the source URI is the
// fallback for chunks produced without one.
func docIDFor(meta models.ChunkMetadata) string {
	if meta.ChecksumSHA256 != "" {
		return meta.ChecksumSHA256
	}
	return meta.SourceURI
}

// IngestRecords embeds and persists chunks in file order. Sequence numbers are
// assigned 1-based within each document, so the same chunks file always maps to
// the same (doc_id, chunk_seq) keys. Embedding or dimension failures are
// isolated per chunk and reported; they never abort the run.
func (ing *Ingestor) IngestRecords(ctx context.Context, chunks []models.Chunk) (*RunReport, error) {
	report := &RunReport{}
	if len(chunks) == 0 {
		return report, nil
	}

	seqByDoc := make(map[string]int)
	var rows []models.ChunkRow
	for _, ch := range chunks {
		docID := docIDFor(ch.Metadata)
		seqByDoc[docID]++
		rows = append(rows, models.ChunkRow{
			DocID:    docID,
			ChunkSeq: seqByDoc[docID],
			ChunkID:  ch.ChunkID,
			Content:  ch.Text,
			Metadata: ch.Metadata,
		})
	}

	type batchResult struct {
		vecs [][]float32
		err  error
	}

	var starts []int
	for start := 0; start < len(rows); start += ing.batchSize {
		starts = append(starts, start)
	}
	results := make([]batchResult, len(starts))

	// Batches embed concurrently; results are merged back in batch order so the
	// report and insert order stay deterministic.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for bi, start := range starts {
		end := start + ing.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, r := range batch {
				texts[i] = r.Content
			}
			vecs, err := ing.embedder.EmbedTexts(gctx, texts)
			if err == nil && len(vecs) != len(batch) {
				err = fmt.Errorf("got %d vectors for %d texts", len(vecs), len(batch))
			}
			results[bi] = batchResult{vecs: vecs, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var toInsert []models.ChunkRow
	for bi, start := range starts {
		end := start + ing.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		if results[bi].err != nil {
			for _, r := range batch {
				report.Processed++
				report.Failed++
				report.Failures = append(report.Failures, Failure{ChunkID: r.ChunkID, Reason: fmt.Sprintf("embed: %v", results[bi].err)})
			}
			continue
		}

		vecs := results[bi].vecs
		for i := range batch {
			report.Processed++
			if len(vecs[i]) != ing.expectedDim {
				report.Failed++
				report.Failures = append(report.Failures, Failure{
					ChunkID: batch[i].ChunkID,
					Reason:  fmt.Sprintf("%v: got %d, store expects %d", ErrDimensionMismatch, len(vecs[i]), ing.expectedDim),
				})
				continue
			}
			batch[i].Embedding = vecs[i]
			batch[i].QA = RunQA(batch[i].Content, ing.counter, ing.embedder.ModelName(), ing.expectedDim)
			toInsert = append(toInsert, batch[i])
		}
	}

	if len(toInsert) > 0 {
		inserted, err := ing.store.InsertChunkRows(ctx, toInsert)
		if err != nil {
			return report, fmt.Errorf("insert chunks: %w", err)
		}
		report.Inserted = inserted
		report.Skipped = len(toInsert) - inserted
	}

	return report, nil
}

// IngestFile reads a JSON Lines chunks file and ingests its records. Malformed
// lines are counted as failures and skipped; the rest of the file proceeds.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (*RunReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chunks file: %w", err)
	}
	defer f.Close()

	var (
		chunks   []models.Chunk
		badLines []Failure
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ch models.Chunk
		if err := json.Unmarshal(line, &ch); err != nil {
			log.Printf("WARN: %s line %d: %v", path, lineNo, err)
			badLines = append(badLines, Failure{Reason: fmt.Sprintf("line %d: %v", lineNo, err)})
			continue
		}
		chunks = append(chunks, ch)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan chunks file: %w", err)
	}

	report, err := ing.IngestRecords(ctx, chunks)
	if err != nil {
		return report, err
	}
	report.Processed += len(badLines)
	report.Failed += len(badLines)
	report.Failures = append(report.Failures, badLines...)
	return report, nil
}
