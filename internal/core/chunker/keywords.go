package chunker

import (
	"regexp"
	"sort"
	"strings"
)

const (
	// DefaultMaxKeywords is the number of keywords attached to each chunk.
	DefaultMaxKeywords = 8
	// maxSummaryLen caps the chunk summary.
	maxSummaryLen = 300
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "in": {}, "to": {}, "a": {}, "is": {},
	"for": {}, "on": {}, "with": {}, "that": {}, "by": {}, "as": {}, "an": {},
	"are": {}, "be": {}, "this": {}, "it": {},
}

var (
	wordPattern     = regexp.MustCompile(`[A-Za-z0-9%$\-]+`)
	sentencePattern = regexp.MustCompile(`(.+?[.!?])(\s|$)`)
)

// FirstSentence returns the leading sentence of text, capped at 300 characters
// with an ellipsis when truncated. Without a sentence terminator the first 300
// characters are returned as-is.
func FirstSentence(text string) string {
	text = strings.TrimSpace(text)
	if m := sentencePattern.FindStringSubmatch(text); m != nil {
		s := strings.TrimSpace(m[1])
		if r := []rune(s); len(r) > maxSummaryLen {
			return string(r[:maxSummaryLen-3]) + "..."
		}
		return s
	}
	if r := []rune(text); len(r) > maxSummaryLen {
		return string(r[:maxSummaryLen])
	}
	return text
}

// Keywords ranks content words by frequency, stopword-filtered, ties broken
// lexicographically so the result is deterministic.
func Keywords(text string, max int) []string {
	freq := map[string]int{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopwords[w]; stop || len(w) < 3 {
			continue
		}
		freq[w]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > max {
		words = words[:max]
	}
	return words
}
