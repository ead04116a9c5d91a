package chunker

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
)

// Encoding is the tokenizer used for exact counts, matching the embedding
// models this pipeline targets.
const Encoding = "cl100k_base"

// HeuristicCounter approximates tokens as whitespace-separated words.
type HeuristicCounter struct{}

var _ core.TokenCounter = HeuristicCounter{}

func (HeuristicCounter) Count(text string) int {
	n := len(strings.Fields(text))
	if n < 1 {
		return 1
	}
	return n
}

// TiktokenCounter counts tokens with the cl100k_base BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

var _ core.TokenCounter = (*TiktokenCounter)(nil)

func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (t *TiktokenCounter) Count(text string) int {
	n := len(t.enc.Encode(text, nil, nil))
	if n < 1 {
		return 1
	}
	return n
}

// NewCounter picks the counting strategy at startup: the exact tokenizer when
// requested and available, the word heuristic otherwise. The choice is made
// once here, never per call, so behavior cannot drift mid-run.
func NewCounter(exact bool) core.TokenCounter {
	if exact {
		if tc, err := NewTiktokenCounter(); err == nil {
			return tc
		}
	}
	return HeuristicCounter{}
}
