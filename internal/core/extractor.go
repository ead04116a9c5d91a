package core

import "context"

// Block is an atomic unit of extracted content: a paragraph, heading, table,
// code fence or list item, paired with the breadcrumb of enclosing headings
// (e.g. "Intro > Background"). Blocks are ordered and never mutated after
// extraction.
type Block struct {
	Text        string
	HeadingPath string
}

// Extractor turns raw document bytes into an ordered block sequence. An error
// is recoverable: the caller degrades the document to a single error-marker
// block rather than aborting the pipeline.
type Extractor interface {
	Extract(ctx context.Context, data []byte, contentType string) ([]Block, error)
}

// TokenCounter estimates the language-model token cost of a text span.
// Count never returns less than 1, even for empty input, so chunk-size
// arithmetic can never divide by or loop against zero. The chunker treats
// this as an opaque cost function and must not assume which implementation
// is active.
type TokenCounter interface {
	Count(text string) int
}
