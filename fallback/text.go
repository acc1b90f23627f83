package fallback

import "strings"

// evidenceClipLen bounds sentence fragments recorded as theme evidence or
// insight text.
const evidenceClipLen = 160

// splitSentences breaks text into trimmed sentences on terminator-plus-space
// boundaries. Fragments without a terminator are kept as the final sentence.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])
		if isSentenceEnd(runes[i]) && (i+1 == len(runes) || isSpace(runes[i+1])) {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\f' || r == '\r'
}

// tokenize splits text into lowercased words with surrounding punctuation
// trimmed. It does not filter stop words; callers that need filtering do it
// themselves.
func tokenize(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		cleaned := strings.Trim(word, ".,!?;:'\"-()[]{}")
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}

// countMatches counts occurrences of a keyword. Single words match whole
// tokens; phrases match by substring on the lowercased text.
func countMatches(tokens []string, lowerText, keyword string) int {
	if strings.Contains(keyword, " ") {
		return strings.Count(lowerText, keyword)
	}
	n := 0
	for _, t := range tokens {
		if t == keyword {
			n++
		}
	}
	return n
}

// findSentence returns the first sentence containing the keyword, clipped for
// use as evidence. Returns "" if no sentence matches.
func findSentence(sentences []string, keyword string) string {
	for _, s := range sentences {
		if strings.Contains(strings.ToLower(s), keyword) {
			return clipText(s, evidenceClipLen)
		}
	}
	return ""
}

// clipText returns at most limit runes of s, trimmed.
func clipText(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
