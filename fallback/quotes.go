package fallback

import (
	"regexp"
	"strings"

	"github.com/storyloom/distill/core"
)

const (
	// Quote span length bounds. Anything shorter is usually a scare quote
	// or a term of art; anything longer is usually a formatting accident
	// swallowing a URL or a whole paragraph.
	minQuoteLen = 20
	maxQuoteLen = 300

	directQuoteConfidence   = 0.8
	reportedSpeechConfidence = 0.6
)

var (
	directQuoteRe = regexp.MustCompile(`"([^"\n]+)"`)
	curlyQuoteRe  = regexp.MustCompile(`“([^”\n]+)”`)

	// Attribution immediately after a closing quote: `"...," said Maria Torres`
	attributionAfterRe = regexp.MustCompile(`^[,\s]*(?:said|says|explained|added|told us)\s+([A-Z][\w'-]+(?:\s+[A-Z][\w'-]+)?)`)

	// Attribution immediately before an opening quote: `Maria Torres said: "..."`
	attributionBeforeRe = regexp.MustCompile(`([A-Z][\w'-]+(?:\s+[A-Z][\w'-]+)?)\s+(?:said|says|explained|added)[,:]?\s*$`)
)

// reportingVerbs introduce indirect speech worth capturing.
var reportingVerbs = []string{
	"said", "told", "shared", "explained", "noted", "reported", "mentioned", "described",
}

// communityRoles are speaker descriptions that make reported speech
// attributable without a personal name.
var communityRoles = []string{
	"elder", "councillor", "coordinator", "chairperson", "resident",
	"volunteer", "youth worker", "health worker", "ranger", "teacher",
	"parent", "committee member",
}

// extractQuotes pulls direct quotations and role-attributed reported speech
// from the text. Direct quotes score higher confidence than reported speech.
func extractQuotes(text string) []core.Quote {
	var quotes []core.Quote
	seen := make(map[string]bool)

	add := func(quoteText, speaker string, confidence float64) {
		quoteText = strings.TrimSpace(quoteText)
		n := len([]rune(quoteText))
		if n < minQuoteLen || n > maxQuoteLen {
			return
		}
		if seen[quoteText] {
			return
		}
		seen[quoteText] = true
		quotes = append(quotes, core.Quote{
			Text:        quoteText,
			Speaker:     speaker,
			Confidence:  confidence,
			Sensitivity: classifySensitivity(quoteText),
			Provenance:  core.ProvenanceFallback,
		})
	}

	for _, re := range []*regexp.Regexp{directQuoteRe, curlyQuoteRe} {
		for _, match := range re.FindAllStringSubmatchIndex(text, -1) {
			quoteText := text[match[2]:match[3]]
			speaker := attributeSpeaker(text, match[0], match[1])
			add(quoteText, speaker, directQuoteConfidence)
		}
	}

	for _, sentence := range splitSentences(text) {
		if strings.ContainsAny(sentence, "\"“”") {
			continue // already handled as a direct quote
		}
		lower := strings.ToLower(sentence)
		role := matchRole(lower)
		if role == "" || !containsReportingVerb(lower) {
			continue
		}
		add(sentence, role, reportedSpeechConfidence)
	}

	return quotes
}

// attributeSpeaker looks for a name in the text just before or after the
// quoted span. Returns "" when no attribution pattern matches.
func attributeSpeaker(text string, start, end int) string {
	after := text[end:]
	if len(after) > 80 {
		after = after[:80]
	}
	if m := attributionAfterRe.FindStringSubmatch(after); m != nil {
		return m[1]
	}

	before := text[:start]
	if len(before) > 80 {
		before = before[len(before)-80:]
	}
	if m := attributionBeforeRe.FindStringSubmatch(before); m != nil {
		return m[1]
	}
	return ""
}

func matchRole(lowerSentence string) string {
	for _, role := range communityRoles {
		if strings.Contains(lowerSentence, role) {
			return role
		}
	}
	return ""
}

func containsReportingVerb(lowerSentence string) bool {
	for _, verb := range reportingVerbs {
		if strings.Contains(lowerSentence, verb) {
			return true
		}
	}
	return false
}

// sacredTerms flag culturally protected content.
var sacredTerms = []string{
	"sacred", "ceremony", "ceremonial", "ancestor", "spiritual", "songline", "burial", "initiation",
}

// restrictedTerms flag personal or confidential content.
var restrictedTerms = []string{
	"private", "confidential", "personal", "grief", "violence", "abuse", "diagnosis", "custody",
}

// classifySensitivity assigns a sharing tier by keyword heuristics. Sacred
// outranks restricted when both match.
func classifySensitivity(text string) core.Sensitivity {
	lower := strings.ToLower(text)
	for _, term := range sacredTerms {
		if strings.Contains(lower, term) {
			return core.SensitivitySacred
		}
	}
	for _, term := range restrictedTerms {
		if strings.Contains(lower, term) {
			return core.SensitivityRestricted
		}
	}
	return core.SensitivityPublic
}
