package extract

import (
	"github.com/ilkecodes/sdr-agent-system/internal/core"
)

// extractText splits plain text into paragraph blocks on blank lines. Plain
// documents carry no heading structure, so every block sits under "Root".
func extractText(data []byte) []core.Block {
	var blocks []core.Block
	for _, para := range paragraphs(SafeText(data)) {
		blocks = append(blocks, core.Block{Text: para, HeadingPath: "Root"})
	}
	return blocks
}
