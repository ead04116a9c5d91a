package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
)

// DocconvExtractor handles the binary office formats and HTML through
// sajari/docconv, then splits the recovered text into paragraph blocks.
// docconv flattens most structure, so heading recovery is best effort:
// a short paragraph shaped like a Markdown heading updates the breadcrumb,
// everything else lands under the current one (initially "Root").
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

var _ core.Extractor = (*DocconvExtractor)(nil)

func (e *DocconvExtractor) Extract(ctx context.Context, data []byte, contentType string) ([]core.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := docconv.Convert(bytes.NewReader(data), MIMEFor(contentType), e.useReadability)
	if err != nil {
		return nil, fmt.Errorf("docconv %s: %w", contentType, err)
	}
	if res.Body == "" {
		return nil, nil
	}

	var blocks []core.Block
	heading := "Root"
	for _, para := range paragraphs(res.Body) {
		if h, ok := headingLine(para); ok {
			heading = h
		}
		blocks = append(blocks, core.Block{Text: para, HeadingPath: heading})
	}
	return blocks, nil
}

// headingLine reports whether a paragraph is a single Markdown-style heading
// line and returns its text with the marker stripped.
func headingLine(para string) (string, bool) {
	if strings.ContainsRune(para, '\n') || !strings.HasPrefix(para, "#") {
		return "", false
	}
	text := strings.TrimSpace(strings.TrimLeft(para, "#"))
	if text == "" {
		return "", false
	}
	return text, true
}
