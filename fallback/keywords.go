package fallback

import (
	"slices"
	"strings"
	"unicode"

	"github.com/storyloom/distill/core"
)

const (
	// minKeywordLen filters short function words before the stop list runs.
	minKeywordLen = 4

	// maxKeywordsPerChunk caps the reported terms per chunk.
	maxKeywordsPerChunk = 10
)

// Stop words to filter out of keyword extraction
var stopWords = map[string]bool{
	"that": true, "have": true, "with": true, "this": true, "from": true,
	"they": true, "them": true, "were": true, "been": true, "their": true,
	"would": true, "could": true, "should": true, "about": true, "which": true,
	"there": true, "when": true, "what": true, "your": true, "will": true,
	"more": true, "other": true, "into": true, "than": true, "then": true,
	"some": true, "very": true, "over": true, "also": true, "just": true,
	"because": true, "through": true, "where": true, "while": true,
	"these": true, "those": true, "said": true, "told": true, "really": true,
}

// extractKeywords frequency-counts meaningful terms: lowercased alphabetic
// tokens of at least minKeywordLen runes, minus stop words, top
// maxKeywordsPerChunk by frequency.
func extractKeywords(text string) []core.Keyword {
	counts := make(map[string]int)
	for _, token := range tokenize(text) {
		if len([]rune(token)) < minKeywordLen || stopWords[token] || !isAlphabetic(token) {
			continue
		}
		counts[token]++
	}

	keywords := make([]core.Keyword, 0, len(counts))
	for term, frequency := range counts {
		keywords = append(keywords, core.Keyword{
			Term:       term,
			Frequency:  frequency,
			Provenance: core.ProvenanceFallback,
		})
	}

	// Frequency descending, then alphabetical so output is deterministic.
	slices.SortFunc(keywords, func(a, b core.Keyword) int {
		if a.Frequency != b.Frequency {
			return b.Frequency - a.Frequency
		}
		return strings.Compare(a.Term, b.Term)
	})
	if len(keywords) > maxKeywordsPerChunk {
		keywords = keywords[:maxKeywordsPerChunk]
	}
	return keywords
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
