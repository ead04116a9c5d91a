package core

import "context"

// EmbeddingProvider turns texts into fixed-length vectors. Implementations make
// one network round trip per batch; callers own timeout contexts.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName identifies the model for QA provenance.
	ModelName() string
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
