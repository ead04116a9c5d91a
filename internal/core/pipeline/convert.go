// Package pipeline orchestrates conversion and ingestion: bytes in, canonical
// Markdown and chunk records out, then embeddings into the store.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
	"github.com/ilkecodes/sdr-agent-system/internal/core/chunker"
	"github.com/ilkecodes/sdr-agent-system/internal/core/extract"
	"github.com/ilkecodes/sdr-agent-system/internal/core/markdown"
	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

const (
	ExtractionEngine  = "sdr-convert"
	ExtractionVersion = "1.0"
)

// Converter runs the normalize-then-chunk half of the pipeline.
type Converter struct {
	extractor core.Extractor
	chunker   *chunker.Chunker
}

func NewConverter(extractor core.Extractor, ch *chunker.Chunker) *Converter {
	return &Converter{extractor: extractor, chunker: ch}
}

// Result holds everything one conversion produced.
type Result struct {
	Meta     models.DocumentMeta
	Markdown string
	Chunks   []models.Chunk
}

// ConvertBytes converts raw document bytes into canonical Markdown and chunk
// records. Extraction failure degrades to an error-marker block; an unsupported
// format keeps its raw-text fallback. Neither aborts the conversion.
func (c *Converter) ConvertBytes(ctx context.Context, data []byte, sourceURI, mimeHint, langHint string) (*Result, error) {
	sum := sha256.Sum256(data)
	contentType := extract.DetectContentType(sourceURI, mimeHint)

	meta := models.DocumentMeta{
		SourceURI:         sourceURI,
		ChecksumSHA256:    hex.EncodeToString(sum[:]),
		ContentType:       contentType,
		MIME:              extract.MIMEFor(contentType),
		DocLanguage:       langHint,
		ExtractionEngine:  ExtractionEngine,
		ExtractionVersion: ExtractionVersion,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
		Title:             stem(sourceURI),
	}

	blocks, err := c.extractor.Extract(ctx, data, contentType)
	if err != nil && !errors.Is(err, extract.ErrUnsupportedFormat) {
		if ctx.Err() != nil {
			return nil, err
		}
		blocks = append(blocks, markdown.ErrorMarkerBlock(err))
	}

	chunks := c.chunker.Chunk(blocks, sourceURI)
	for i := range chunks {
		chunks[i].Metadata.ChecksumSHA256 = meta.ChecksumSHA256
		chunks[i].Metadata.ContentType = meta.ContentType
		chunks[i].Metadata.ExtractionEngine = meta.ExtractionEngine
		chunks[i].Metadata.ExtractionVersion = meta.ExtractionVersion
		chunks[i].Metadata.DocLanguage = meta.DocLanguage
	}

	return &Result{
		Meta:     meta,
		Markdown: markdown.Render(meta, blocks),
		Chunks:   chunks,
	}, nil
}

// ConvertFile reads a local file and converts it.
func (c *Converter) ConvertFile(ctx context.Context, path, mimeHint, langHint string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return c.ConvertBytes(ctx, data, abs, mimeHint, langHint)
}

// WriteArtifacts writes <stem>.md and <stem>.chunks.jsonl under outDir and
// returns their paths.
func (r *Result) WriteArtifacts(outDir string) (mdPath, chunksPath string, err error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create out dir: %w", err)
	}

	base := stem(r.Meta.SourceURI)
	mdPath = filepath.Join(outDir, base+".md")
	chunksPath = filepath.Join(outDir, base+".chunks.jsonl")

	if err := os.WriteFile(mdPath, []byte(r.Markdown), 0o644); err != nil {
		return "", "", fmt.Errorf("write markdown: %w", err)
	}

	var sb strings.Builder
	for _, ch := range r.Chunks {
		line, err := json.Marshal(ch)
		if err != nil {
			return "", "", fmt.Errorf("marshal chunk %s: %w", ch.ChunkID, err)
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(chunksPath, []byte(sb.String()), 0o644); err != nil {
		return "", "", fmt.Errorf("write chunks: %w", err)
	}

	return mdPath, chunksPath, nil
}

func stem(sourceURI string) string {
	base := filepath.Base(sourceURI)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
