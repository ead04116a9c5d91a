// Package chunker splits an ordered block sequence into token-budgeted,
// content-addressed retrieval chunks.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

const (
	// DefaultTargetTokens is the soft per-chunk budget.
	DefaultTargetTokens = 1200
	// DefaultOverlapTokens is the word budget carried from a chunk into its
	// successor after a size-limit flush.
	DefaultOverlapTokens = 200
)

// Chunker accumulates blocks into token-budgeted windows. It flushes on
// section boundaries, before over-budget atomic blocks, and on reaching the
// target budget; only the size-limit flush seeds overlap into the next window.
type Chunker struct {
	counter       core.TokenCounter
	targetTokens  int
	overlapTokens int
}

func New(counter core.TokenCounter, targetTokens, overlapTokens int) *Chunker {
	if targetTokens <= 0 {
		targetTokens = DefaultTargetTokens
	}
	if overlapTokens < 0 {
		overlapTokens = DefaultOverlapTokens
	}
	return &Chunker{counter: counter, targetTokens: targetTokens, overlapTokens: overlapTokens}
}

// ChunkID derives the deterministic chunk identifier from the source URI, the
// heading breadcrumb and the token-range id. No randomness, no clock: identical
// input always produces the identical id.
func ChunkID(sourceURI, headingPath, rangeID string) string {
	sum := sha256.Sum256([]byte(sourceURI + "|" + headingPath + "|" + rangeID))
	return hex.EncodeToString(sum[:])[:16]
}

// IsAtomic reports whether a block must never be split across chunks:
// pipe tables, fenced code blocks and HTML table fallbacks.
func IsAtomic(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "|") || strings.HasPrefix(t, "```") || strings.HasPrefix(t, "<table")
}

// Chunk walks the blocks in order and emits chunk records.
//
// A document with zero blocks produces zero chunks. A single block larger than
// the target budget is emitted as one oversized chunk; atomic blocks are never
// split internally, however large, and that is accepted behavior rather than a
// defect to patch with lossy truncation.
func (c *Chunker) Chunk(blocks []core.Block, sourceURI string) []models.Chunk {
	var (
		chunks      []models.Chunk
		window      []string
		windowToks  int
		heading     string
		cursor      int
		overlapOnly bool // window holds nothing but the seeded tail of the previous chunk
	)

	flush := func() {
		if len(window) == 0 {
			return
		}
		text := strings.Join(window, "\n\n")
		toks := c.counter.Count(text)
		rangeID := fmt.Sprintf("%d-%d", cursor, cursor+toks)
		chunks = append(chunks, models.Chunk{
			ChunkID:  ChunkID(sourceURI, heading, rangeID),
			Text:     text,
			Summary:  FirstSentence(text),
			Keywords: Keywords(text, DefaultMaxKeywords),
			Metadata: models.ChunkMetadata{
				HeadingPath: heading,
				ByteRange:   [2]int{cursor, cursor + toks},
				Tokens:      toks,
				SourceURI:   sourceURI,
			},
		})
		cursor += toks
		window = nil
		windowToks = 0
	}

	for _, b := range blocks {
		toks := c.counter.Count(b.Text)

		if b.HeadingPath != heading {
			// A section boundary always closes the current chunk. A window
			// holding only overlap text is discarded instead of flushed, so the
			// seeded tail never leaks into an unrelated section.
			if overlapOnly {
				window, windowToks = nil, 0
			}
			flush()
			heading = b.HeadingPath
		}

		if IsAtomic(b.Text) && len(window) > 0 && windowToks+toks > c.targetTokens {
			flush()
		}

		window = append(window, b.Text)
		windowToks += toks
		overlapOnly = false

		if windowToks >= c.targetTokens {
			flush()
			if c.overlapTokens > 0 && len(chunks) > 0 {
				tail := TailWords(chunks[len(chunks)-1].Text, c.overlapTokens)
				window = []string{tail}
				windowToks = c.counter.Count(tail)
				overlapOnly = true
			}
		}
	}

	// Final flush; a leftover overlap-only window carries no source blocks and
	// is dropped.
	if overlapOnly {
		window, windowToks = nil, 0
	}
	flush()

	return chunks
}

// TailWords returns the last n whitespace-separated words of text, or the whole
// text when it is shorter. Overlap is taken from the rendered chunk text, not
// the original blocks, so it reflects exactly what was stored.
func TailWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[len(words)-n:], " ")
}
