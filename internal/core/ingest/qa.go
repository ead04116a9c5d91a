package ingest

import (
	"regexp"
	"time"

	"github.com/abadojack/whatlanggo"

	"github.com/ilkecodes/sdr-agent-system/internal/core"
	"github.com/ilkecodes/sdr-agent-system/internal/models"
)

// PII patterns checked before embedding. Findings are advisory: they are
// recorded in the QA payload for downstream review and never block ingestion.
var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	cardPattern  = regexp.MustCompile(`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|6(?:011|5[0-9]{2})[0-9]{12})\b`)
)

// DetectPII returns the PII categories found in text, in a fixed order.
func DetectPII(text string) []string {
	types := []string{}
	if emailPattern.MatchString(text) {
		types = append(types, "email")
	}
	if ssnPattern.MatchString(text) {
		types = append(types, "ssn")
	}
	if cardPattern.MatchString(text) {
		types = append(types, "credit_card")
	}
	return types
}

// DetectLanguage guesses the dominant language of text. Short or ambiguous
// inputs return an empty string rather than a low-confidence guess.
func DetectLanguage(text string) string {
	if len(text) < 20 {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return whatlanggo.LangToString(info.Lang)
}

// RunQA assembles the advisory quality record for one chunk. The embedding
// model and dimension are filled in here so the row documents exactly what
// produced its vector.
func RunQA(text string, counter core.TokenCounter, embeddingModel string, embeddingDim int) models.IngestionQA {
	return models.IngestionQA{
		Language:       DetectLanguage(text),
		TokenCount:     counter.Count(text),
		PIITypes:       DetectPII(text),
		EmbeddingModel: embeddingModel,
		EmbeddingDim:   embeddingDim,
		IngestedAt:     time.Now().Unix(),
	}
}
