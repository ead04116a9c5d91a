package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
)

func words(n int, prefix string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = prefix
	}
	return strings.Join(parts, " ")
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("file:///doc.txt", "Root", "0-42")
	b := ChunkID("file:///doc.txt", "Root", "0-42")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)

	c := ChunkID("file:///doc.txt", "Root", "0-43")
	assert.NotEqual(t, a, c)
}

func TestChunkDocument_Empty(t *testing.T) {
	c := New(HeuristicCounter{}, 10, 3)
	chunks := c.Chunk(nil, "file:///empty.txt")
	assert.Empty(t, chunks)
}

func TestChunkDocument_SmallDocSingleChunk(t *testing.T) {
	c := New(HeuristicCounter{}, 1200, 200)
	blocks := []core.Block{
		{Text: "First paragraph with a few words.", HeadingPath: "Root"},
		{Text: "Second paragraph, also short.", HeadingPath: "Root"},
	}
	chunks := c.Chunk(blocks, "file:///small.txt")

	require.Len(t, chunks, 1)
	ch := chunks[0]
	assert.Equal(t, "Root", ch.Metadata.HeadingPath)
	assert.Equal(t, blocks[0].Text+"\n\n"+blocks[1].Text, ch.Text)
	assert.Equal(t, 0, ch.Metadata.ByteRange[0])
	assert.Equal(t, ch.Metadata.Tokens, ch.Metadata.ByteRange[1])
	assert.NotEmpty(t, ch.Summary)
	assert.NotNil(t, ch.Keywords)
}

func TestChunkDocument_Deterministic(t *testing.T) {
	c := New(HeuristicCounter{}, 10, 3)
	blocks := []core.Block{
		{Text: words(6, "alpha"), HeadingPath: "Intro"},
		{Text: words(6, "beta"), HeadingPath: "Intro"},
		{Text: words(4, "gamma"), HeadingPath: "Intro > Detail"},
	}

	first := c.Chunk(blocks, "file:///doc.txt")
	second := c.Chunk(blocks, "file:///doc.txt")
	require.Equal(t, first, second)
}

func TestChunkDocument_SectionBoundaryFlush(t *testing.T) {
	c := New(HeuristicCounter{}, 1200, 200)
	blocks := []core.Block{
		{Text: "Content under the first heading.", HeadingPath: "A"},
		{Text: "More content in the same section.", HeadingPath: "A"},
		{Text: "Content under the second heading.", HeadingPath: "B"},
	}
	chunks := c.Chunk(blocks, "file:///doc.txt")

	require.Len(t, chunks, 2)
	assert.Equal(t, "A", chunks[0].Metadata.HeadingPath)
	assert.Equal(t, "B", chunks[1].Metadata.HeadingPath)
	assert.NotContains(t, chunks[0].Text, "second heading")
	assert.NotContains(t, chunks[1].Text, "first heading")
}

func TestChunkDocument_SizeLimitFlushWithOverlap(t *testing.T) {
	c := New(HeuristicCounter{}, 10, 3)
	b1 := words(6, "one")
	b2 := words(6, "two")
	b3 := words(6, "three")
	blocks := []core.Block{
		{Text: b1, HeadingPath: "Root"},
		{Text: b2, HeadingPath: "Root"},
		{Text: b3, HeadingPath: "Root"},
	}
	chunks := c.Chunk(blocks, "file:///doc.txt")

	require.Len(t, chunks, 2)
	assert.Equal(t, b1+"\n\n"+b2, chunks[0].Text)

	// The second chunk starts with the tail of the first.
	tail := TailWords(chunks[0].Text, 3)
	assert.True(t, strings.HasPrefix(chunks[1].Text, tail))
	assert.Contains(t, chunks[1].Text, b3)

	// Ranges advance monotonically through the token stream.
	assert.Equal(t, chunks[0].Metadata.ByteRange[1], chunks[1].Metadata.ByteRange[0])
}

func TestChunkDocument_OverlapStaysInSection(t *testing.T) {
	c := New(HeuristicCounter{}, 10, 3)
	blocks := []core.Block{
		{Text: words(6, "first"), HeadingPath: "A"},
		{Text: words(6, "second"), HeadingPath: "A"},
		{Text: words(5, "other"), HeadingPath: "B"},
	}
	chunks := c.Chunk(blocks, "file:///doc.txt")

	require.Len(t, chunks, 2)
	assert.Equal(t, "B", chunks[1].Metadata.HeadingPath)
	assert.NotContains(t, chunks[1].Text, "first")
	assert.NotContains(t, chunks[1].Text, "second")
	assert.Equal(t, words(5, "other"), chunks[1].Text)
}

func TestChunkDocument_TrailingOverlapDropped(t *testing.T) {
	c := New(HeuristicCounter{}, 10, 3)
	blocks := []core.Block{
		{Text: words(12, "only"), HeadingPath: "Root"},
	}
	chunks := c.Chunk(blocks, "file:///doc.txt")

	// The size-limit flush seeds an overlap window, but with no further blocks
	// it carries no new content and must not become a chunk of its own.
	require.Len(t, chunks, 1)
	assert.Equal(t, words(12, "only"), chunks[0].Text)
}

func TestChunkDocument_OversizedAtomicBlockKeptWhole(t *testing.T) {
	c := New(HeuristicCounter{}, 10, 3)
	var rows []string
	rows = append(rows, "| col1 | col2 |", "| --- | --- |")
	for i := 0; i < 20; i++ {
		rows = append(rows, "| value value | value value |")
	}
	table := strings.Join(rows, "\n")
	require.True(t, IsAtomic(table))

	chunks := c.Chunk([]core.Block{{Text: table, HeadingPath: "Sheet: data"}}, "file:///doc.csv")

	require.Len(t, chunks, 1)
	assert.Equal(t, table, chunks[0].Text)
	assert.Greater(t, chunks[0].Metadata.Tokens, 10)
}

func TestChunkDocument_AtomicBlockFlushesFirst(t *testing.T) {
	c := New(HeuristicCounter{}, 10, 0)
	para := words(8, "prose")
	table := "| a | b |\n| --- | --- |\n| 1 | 2 |"
	blocks := []core.Block{
		{Text: para, HeadingPath: "Root"},
		{Text: table, HeadingPath: "Root"},
	}
	chunks := c.Chunk(blocks, "file:///doc.txt")

	require.Len(t, chunks, 2)
	assert.Equal(t, para, chunks[0].Text)
	assert.Equal(t, table, chunks[1].Text)
}

func TestChunkDocument_NoBlockLoss(t *testing.T) {
	c := New(HeuristicCounter{}, 10, 3)
	blocks := []core.Block{
		{Text: words(4, "aa"), HeadingPath: "A"},
		{Text: words(7, "bb"), HeadingPath: "A"},
		{Text: words(3, "cc"), HeadingPath: "B"},
		{Text: words(9, "dd"), HeadingPath: "B"},
		{Text: "```\ncode sample here\n```", HeadingPath: "B"},
	}
	chunks := c.Chunk(blocks, "file:///doc.txt")

	var all strings.Builder
	for _, ch := range chunks {
		all.WriteString(ch.Text)
		all.WriteString("\n")
	}
	for _, b := range blocks {
		assert.Contains(t, all.String(), b.Text)
	}
}

func TestIsAtomic(t *testing.T) {
	assert.True(t, IsAtomic("| a | b |"))
	assert.True(t, IsAtomic("```go\ncode\n```"))
	assert.True(t, IsAtomic("<table><tr></tr></table>"))
	assert.True(t, IsAtomic("  | padded table |"))
	assert.False(t, IsAtomic("plain paragraph"))
	assert.False(t, IsAtomic("pipes | in | the middle"))
}

func TestTailWords(t *testing.T) {
	assert.Equal(t, "c d e", TailWords("a b c d e", 3))
	assert.Equal(t, "a b", TailWords("a b", 5))
	assert.Equal(t, "", TailWords("", 3))
}
