// Package markdown assembles extracted blocks and document metadata into the
// canonical Markdown rendering: a deterministic front-matter header followed by
// the blocks in original order.
package markdown

import (
	"encoding/json"
	"strings"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

// ErrorMarkerBlock builds the synthetic block emitted when extraction fails.
// Conversion degrades to this marker instead of aborting, so the failure stays
// visible downstream while the pipeline continues.
func ErrorMarkerBlock(err error) core.Block {
	return core.Block{
		Text:        "<!-- extraction error: " + err.Error() + " -->",
		HeadingPath: "Root",
	}
}

// FrontMatter renders the metadata header with a stable key order. Values are
// single-quoted; anything that is not already a plain string would be JSON
// encoded first. Byte-identical input metadata yields a byte-identical header.
func FrontMatter(meta models.DocumentMeta) string {
	pairs := []struct{ key, value string }{
		{"source_uri", meta.SourceURI},
		{"checksum_sha256", meta.ChecksumSHA256},
		{"content_type", meta.ContentType},
		{"mime", meta.MIME},
		{"doc_language", meta.DocLanguage},
		{"extraction_engine", meta.ExtractionEngine},
		{"extraction_version", meta.ExtractionVersion},
		{"created_at", meta.CreatedAt},
		{"title", meta.Title},
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	for _, p := range pairs {
		sb.WriteString(p.key + ": '" + quoteValue(p.value) + "'\n")
	}
	sb.WriteString("---\n")
	return sb.String()
}

// quoteValue keeps plain scalars readable and JSON-encodes values that would
// break the single-quoted form.
func quoteValue(v string) string {
	if !strings.ContainsAny(v, "'\n") {
		return v
	}
	b, _ := json.Marshal(v)
	return strings.Trim(string(b), `"`)
}

// Render produces the canonical Markdown document: front matter, then the
// blocks in extraction order separated by blank lines. Rendering has no side
// effects; callers decide persistence.
func Render(meta models.DocumentMeta, blocks []core.Block) string {
	var sb strings.Builder
	sb.WriteString(FrontMatter(meta))
	for _, b := range blocks {
		sb.WriteString("\n")
		sb.WriteString(b.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
