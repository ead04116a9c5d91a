package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
	"github.com/ilkecodes/sdr-agent-system/internal/core/chunker"
	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

// fakeEmbedder returns fixed-size vectors; texts listed in badDim get a vector
// of the wrong length instead.
type fakeEmbedder struct {
	dim    int
	badDim map[string]bool
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		dim := f.dim
		if f.badDim[t] {
			dim = f.dim + 1
		}
		out[i] = make([]float32, dim)
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }

type failingEmbedder struct{}

func (failingEmbedder) EmbedTexts(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("backend unavailable")
}

func (failingEmbedder) ModelName() string { return "failing-embedder" }

// fakeStore mimics the (doc_id, chunk_seq) conflict behavior of the real table.
type fakeStore struct {
	rows map[string]models.ChunkRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]models.ChunkRow{}}
}

func (s *fakeStore) InsertChunkRows(_ context.Context, rows []models.ChunkRow) (int, error) {
	inserted := 0
	for _, r := range rows {
		key := fmt.Sprintf("%s/%d", r.DocID, r.ChunkSeq)
		if _, exists := s.rows[key]; exists {
			continue
		}
		s.rows[key] = r
		inserted++
	}
	return inserted, nil
}

func sampleChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{
			ChunkID: fmt.Sprintf("chunk%04d", i),
			Text:    fmt.Sprintf("chunk body number %d with enough words to count", i),
			Metadata: models.ChunkMetadata{
				HeadingPath:    "Root",
				SourceURI:      "file:///doc.txt",
				ChecksumSHA256: "deadbeef",
			},
		}
	}
	return chunks
}

func newTestIngestor(store ChunkStore, emb core.EmbeddingProvider) *Ingestor {
	return NewIngestor(store, emb, chunker.HeuristicCounter{}, 3, 2)
}

func TestIngestRecords_InsertsAll(t *testing.T) {
	store := newFakeStore()
	ing := newTestIngestor(store, &fakeEmbedder{dim: 3})

	report, err := ing.IngestRecords(context.Background(), sampleChunks(5))
	require.NoError(t, err)

	assert.Equal(t, 5, report.Processed)
	assert.Equal(t, 5, report.Inserted)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, store.rows, 5)
}

func TestIngestRecords_SecondRunInsertsNothing(t *testing.T) {
	store := newFakeStore()
	ing := newTestIngestor(store, &fakeEmbedder{dim: 3})
	chunks := sampleChunks(4)

	first, err := ing.IngestRecords(context.Background(), chunks)
	require.NoError(t, err)
	require.Equal(t, 4, first.Inserted)

	second, err := ing.IngestRecords(context.Background(), chunks)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 4, second.Skipped)
	assert.Equal(t, 0, second.Failed)
	assert.Len(t, store.rows, 4)
}

func TestIngestRecords_SequenceIsOneBasedFileOrder(t *testing.T) {
	store := newFakeStore()
	ing := newTestIngestor(store, &fakeEmbedder{dim: 3})
	chunks := sampleChunks(3)

	_, err := ing.IngestRecords(context.Background(), chunks)
	require.NoError(t, err)

	for i, ch := range chunks {
		row, ok := store.rows[fmt.Sprintf("deadbeef/%d", i+1)]
		require.True(t, ok, "missing seq %d", i+1)
		assert.Equal(t, ch.ChunkID, row.ChunkID)
	}
}

func TestIngestRecords_DimensionMismatchFailsChunkOnly(t *testing.T) {
	store := newFakeStore()
	chunks := sampleChunks(3)
	emb := &fakeEmbedder{dim: 3, badDim: map[string]bool{chunks[1].Text: true}}
	ing := newTestIngestor(store, emb)

	report, err := ing.IngestRecords(context.Background(), chunks)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, chunks[1].ChunkID, report.Failures[0].ChunkID)
	assert.Contains(t, report.Failures[0].Reason, "dimension mismatch")
	assert.Len(t, store.rows, 2)
}

func TestIngestRecords_EmbedderFailureRecorded(t *testing.T) {
	store := newFakeStore()
	ing := newTestIngestor(store, failingEmbedder{})

	report, err := ing.IngestRecords(context.Background(), sampleChunks(3))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 3, report.Failed)
	assert.Empty(t, store.rows)
}

func TestIngestRecords_QAPopulated(t *testing.T) {
	store := newFakeStore()
	ing := newTestIngestor(store, &fakeEmbedder{dim: 3})

	chunks := sampleChunks(1)
	chunks[0].Text = "Please reach the account owner at jane.doe@example.com for renewal details."
	_, err := ing.IngestRecords(context.Background(), chunks)
	require.NoError(t, err)

	row := store.rows["deadbeef/1"]
	assert.Equal(t, "fake-embedder", row.QA.EmbeddingModel)
	assert.Equal(t, 3, row.QA.EmbeddingDim)
	assert.Greater(t, row.QA.TokenCount, 0)
	assert.Contains(t, row.QA.PIITypes, "email")
	assert.NotZero(t, row.QA.IngestedAt)
}

func TestIngestRecords_Empty(t *testing.T) {
	ing := newTestIngestor(newFakeStore(), &fakeEmbedder{dim: 3})
	report, err := ing.IngestRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
}

func TestIngestFile_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.chunks.jsonl")

	lines := []string{
		`{"chunk_id":"aaaa","text":"first chunk body","metadata":{"heading_path":"Root","checksum_sha256":"cafe"}}`,
		`{this is not json`,
		`{"chunk_id":"bbbb","text":"second chunk body","metadata":{"heading_path":"Root","checksum_sha256":"cafe"}}`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	store := newFakeStore()
	ing := newTestIngestor(store, &fakeEmbedder{dim: 3})

	report, err := ing.IngestFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, store.rows, 2)
}

func TestDetectPII(t *testing.T) {
	assert.Equal(t, []string{"email"}, DetectPII("write to ops@example.org today"))
	assert.Equal(t, []string{"ssn"}, DetectPII("ssn on file: 123-45-6789"))
	assert.Equal(t, []string{"credit_card"}, DetectPII("card 4111111111111111 on record"))
	assert.Empty(t, DetectPII("no sensitive data in this text"))

	both := DetectPII("mail a@b.co and ssn 987-65-4321")
	assert.Equal(t, []string{"email", "ssn"}, both)
}

func TestDetectLanguage_ShortInputSkipped(t *testing.T) {
	assert.Equal(t, "", DetectLanguage("hi"))
}

func TestDocIDFor(t *testing.T) {
	assert.Equal(t, "abc", docIDFor(models.ChunkMetadata{ChecksumSHA256: "abc", SourceURI: "file:///x"}))
	assert.Equal(t, "file:///x", docIDFor(models.ChunkMetadata{SourceURI: "file:///x"}))
}
