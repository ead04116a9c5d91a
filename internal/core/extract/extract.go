// Package extract turns raw document bytes into the ordered block sequence the
// renderer and chunker consume. One extractor per source format, all behind the
// core.Extractor contract; unknown formats degrade to a raw-text block instead
// of aborting.
package extract

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
)

// MaxTableWidth is the column count above which tables fall back to HTML
// instead of a GFM pipe table.
const MaxTableWidth = 6

// maxRawFallback caps the raw-text block emitted for unknown formats.
const maxRawFallback = 2000

// ErrUnsupportedFormat reports that no extractor matched the content type.
// The returned blocks still carry a best-effort raw-text truncation; callers
// record the error and continue.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Registry dispatches extraction by content type.
type Registry struct {
	docconv *DocconvExtractor
}

func NewRegistry(useReadability bool) *Registry {
	return &Registry{docconv: NewDocconvExtractor(useReadability)}
}

var _ core.Extractor = (*Registry)(nil)

// Extract routes to the matching format extractor. For unknown content types it
// returns a truncated raw-text block together with ErrUnsupportedFormat.
func (r *Registry) Extract(ctx context.Context, data []byte, contentType string) ([]core.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch contentType {
	case "txt":
		return extractText(data), nil
	case "json":
		return extractJSON(data), nil
	case "csv":
		return extractCSV(data)
	case "xlsx":
		return extractXLSX(data)
	case "pdf", "docx", "pptx", "html":
		return r.docconv.Extract(ctx, data, contentType)
	default:
		text := SafeText(data)
		if len([]rune(text)) > maxRawFallback {
			text = string([]rune(text)[:maxRawFallback])
		}
		blocks := []core.Block{}
		if strings.TrimSpace(text) != "" {
			blocks = append(blocks, core.Block{Text: strings.TrimSpace(text), HeadingPath: "Root"})
		}
		return blocks, ErrUnsupportedFormat
	}
}

// DetectContentType maps a source URI and optional MIME hint onto the internal
// content-type vocabulary. The extension wins; the hint breaks ties for
// extensionless sources.
func DetectContentType(sourceURI, mimeHint string) string {
	switch strings.ToLower(filepath.Ext(sourceURI)) {
	case ".txt", ".text", ".md", ".markdown":
		return "txt"
	case ".pdf":
		return "pdf"
	case ".docx", ".doc":
		return "docx"
	case ".pptx", ".ppt":
		return "pptx"
	case ".xlsx", ".xls":
		return "xlsx"
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	}

	switch {
	case strings.HasPrefix(mimeHint, "text/html"):
		return "html"
	case strings.HasPrefix(mimeHint, "text/csv"):
		return "csv"
	case strings.HasPrefix(mimeHint, "application/json"):
		return "json"
	case strings.HasPrefix(mimeHint, "application/pdf"):
		return "pdf"
	case strings.HasPrefix(mimeHint, "text/"):
		return "txt"
	}
	return "unknown"
}

// MIMEFor returns the canonical MIME type for an internal content type.
func MIMEFor(contentType string) string {
	switch contentType {
	case "txt":
		return "text/plain"
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		return "text/csv"
	case "json":
		return "application/json"
	case "html":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}

// SafeText decodes bytes as UTF-8 when valid, honours UTF-16 BOMs, and falls
// back to Latin-1 so extraction never fails on encoding alone.
func SafeText(b []byte) string {
	if len(b) >= 2 && ((b[0] == 0xFE && b[1] == 0xFF) || (b[0] == 0xFF && b[1] == 0xFE)) {
		return decodeUTF16(b)
	}
	if utf8.Valid(b) {
		return string(b)
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

func decodeUTF16(b []byte) string {
	bigEndian := b[0] == 0xFE
	b = b[2:]
	u16 := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		if bigEndian {
			u16 = append(u16, uint16(b[i])<<8|uint16(b[i+1]))
		} else {
			u16 = append(u16, uint16(b[i+1])<<8|uint16(b[i]))
		}
	}
	return string(utf16.Decode(u16))
}

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// paragraphs splits text on blank lines, trimming and dropping empty spans.
func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range paragraphSplit.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
