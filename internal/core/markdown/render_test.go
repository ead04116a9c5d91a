package markdown

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

func sampleMeta() models.DocumentMeta {
	return models.DocumentMeta{
		SourceURI:         "file:///tmp/report.txt",
		ChecksumSHA256:    "abc123",
		ContentType:       "txt",
		MIME:              "text/plain",
		DocLanguage:       "auto",
		ExtractionEngine:  "sdr-convert",
		ExtractionVersion: "1.0",
		CreatedAt:         "2026-01-02T03:04:05Z",
		Title:             "report",
	}
}

func TestFrontMatter_KeyOrder(t *testing.T) {
	fm := FrontMatter(sampleMeta())

	lines := strings.Split(strings.TrimSpace(fm), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "---", lines[0])
	assert.Equal(t, "---", lines[10])

	wantOrder := []string{
		"source_uri", "checksum_sha256", "content_type", "mime", "doc_language",
		"extraction_engine", "extraction_version", "created_at", "title",
	}
	for i, key := range wantOrder {
		assert.True(t, strings.HasPrefix(lines[i+1], key+": '"), "line %d should start with %s", i+1, key)
	}
}

func TestFrontMatter_Deterministic(t *testing.T) {
	meta := sampleMeta()
	assert.Equal(t, FrontMatter(meta), FrontMatter(meta))
}

func TestRender_BlocksInOrder(t *testing.T) {
	blocks := []core.Block{
		{Text: "First paragraph.", HeadingPath: "Root"},
		{Text: "| a | b |", HeadingPath: "Root"},
		{Text: "Last paragraph.", HeadingPath: "Root"},
	}
	out := Render(sampleMeta(), blocks)

	assert.True(t, strings.HasPrefix(out, "---\n"))
	first := strings.Index(out, "First paragraph.")
	table := strings.Index(out, "| a | b |")
	last := strings.Index(out, "Last paragraph.")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, table)
	require.NotEqual(t, -1, last)
	assert.Less(t, first, table)
	assert.Less(t, table, last)
}

func TestRender_Deterministic(t *testing.T) {
	blocks := []core.Block{{Text: "Same input.", HeadingPath: "Root"}}
	meta := sampleMeta()
	assert.Equal(t, Render(meta, blocks), Render(meta, blocks))
}

func TestErrorMarkerBlock(t *testing.T) {
	b := ErrorMarkerBlock(errors.New("parser blew up"))
	assert.Equal(t, "Root", b.HeadingPath)
	assert.Equal(t, "<!-- extraction error: parser blew up -->", b.Text)
}
