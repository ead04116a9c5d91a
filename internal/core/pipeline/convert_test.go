package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
	"github.com/ilkecodes/sdr-agent-system/internal/core/chunker"
	"github.com/ilkecodes/sdr-agent-system/internal/core/extract"
	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

func newTestConverter() *Converter {
	counter := chunker.HeuristicCounter{}
	return NewConverter(extract.NewRegistry(false), chunker.New(counter, 1200, 200))
}

func TestConvertBytes_TextDocument(t *testing.T) {
	conv := newTestConverter()
	data := []byte("First paragraph of the memo.\n\nSecond paragraph with more detail.")

	res, err := conv.ConvertBytes(context.Background(), data, "/docs/memo.txt", "", "auto")
	require.NoError(t, err)

	assert.Equal(t, "txt", res.Meta.ContentType)
	assert.Equal(t, "text/plain", res.Meta.MIME)
	assert.Equal(t, "memo", res.Meta.Title)
	assert.Len(t, res.Meta.ChecksumSHA256, 64)
	assert.True(t, strings.HasPrefix(res.Markdown, "---\n"))
	assert.Contains(t, res.Markdown, "First paragraph of the memo.")

	require.Len(t, res.Chunks, 1)
	ch := res.Chunks[0]
	assert.Equal(t, "Root", ch.Metadata.HeadingPath)
	assert.Equal(t, res.Meta.ChecksumSHA256, ch.Metadata.ChecksumSHA256)
	assert.Equal(t, "txt", ch.Metadata.ContentType)
	assert.Equal(t, ExtractionEngine, ch.Metadata.ExtractionEngine)
	assert.Equal(t, ExtractionVersion, ch.Metadata.ExtractionVersion)
}

func TestConvertBytes_ChunkIDsStableAcrossRuns(t *testing.T) {
	conv := newTestConverter()
	data := []byte(strings.Repeat("Stable content paragraph.\n\n", 30))

	first, err := conv.ConvertBytes(context.Background(), data, "/docs/stable.txt", "", "auto")
	require.NoError(t, err)
	second, err := conv.ConvertBytes(context.Background(), data, "/docs/stable.txt", "", "auto")
	require.NoError(t, err)

	require.Equal(t, len(first.Chunks), len(second.Chunks))
	for i := range first.Chunks {
		assert.Equal(t, first.Chunks[i].ChunkID, second.Chunks[i].ChunkID)
	}
}

func TestConvertBytes_EmptyDocumentYieldsNoChunks(t *testing.T) {
	conv := newTestConverter()
	res, err := conv.ConvertBytes(context.Background(), []byte(""), "/docs/empty.txt", "", "auto")
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)
	assert.True(t, strings.HasPrefix(res.Markdown, "---\n"))
}

func TestConvertBytes_UnknownFormatKeepsFallback(t *testing.T) {
	conv := newTestConverter()
	res, err := conv.ConvertBytes(context.Background(), []byte("opaque bytes"), "/docs/blob.bin", "", "auto")
	require.NoError(t, err)

	assert.Equal(t, "unknown", res.Meta.ContentType)
	assert.Contains(t, res.Markdown, "opaque bytes")
	assert.NotContains(t, res.Markdown, "extraction error")
}

type explodingExtractor struct{}

func (explodingExtractor) Extract(context.Context, []byte, string) ([]core.Block, error) {
	return nil, errors.New("codec failure")
}

func TestConvertBytes_ExtractionFailureEmitsMarker(t *testing.T) {
	conv := NewConverter(explodingExtractor{}, chunker.New(chunker.HeuristicCounter{}, 1200, 200))
	res, err := conv.ConvertBytes(context.Background(), []byte("whatever"), "/docs/broken.txt", "", "auto")
	require.NoError(t, err)

	assert.Contains(t, res.Markdown, "<!-- extraction error: codec failure -->")
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, "Root", res.Chunks[0].Metadata.HeadingPath)
}

func TestWriteArtifacts(t *testing.T) {
	conv := newTestConverter()
	dir := t.TempDir()
	src := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(src, []byte("Body of the report.\n\nAnother paragraph."), 0o644))

	res, err := conv.ConvertFile(context.Background(), src, "", "auto")
	require.NoError(t, err)

	outDir := filepath.Join(dir, "out")
	mdPath, chunksPath, err := res.WriteArtifacts(outDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "report.md"), mdPath)
	assert.Equal(t, filepath.Join(outDir, "report.chunks.jsonl"), chunksPath)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Equal(t, res.Markdown, string(md))

	f, err := os.Open(chunksPath)
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ch models.Chunk
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ch))
		assert.NotEmpty(t, ch.ChunkID)
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, len(res.Chunks), lines)
}

func TestParseS3URL(t *testing.T) {
	bucket, key := parseS3URL("https://my-bucket.s3.us-east-2.amazonaws.com/users/u1/doc.pdf")
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "users/u1/doc.pdf", key)
}
