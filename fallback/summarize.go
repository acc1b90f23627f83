package fallback

import "strings"

// Summarize produces a lead-sentence summary: whole sentences from the start
// of the text until maxLen runes are consumed. Always returns at least the
// first sentence, clipped when it alone exceeds maxLen.
func Summarize(text string, maxLen int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 || maxLen <= 0 {
		return ""
	}

	var b strings.Builder
	for i, sentence := range sentences {
		next := len([]rune(sentence))
		if i > 0 {
			next++ // joining space
		}
		if i > 0 && len([]rune(b.String()))+next > maxLen {
			break
		}
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(sentence)
	}

	return clipText(b.String(), maxLen)
}
