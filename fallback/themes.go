package fallback

import (
	"slices"
	"strings"

	"github.com/storyloom/distill/core"
)

const (
	// minThemeScore is the weighted match count below which a theme family
	// is not reported at all.
	minThemeScore = 2

	// maxThemesPerChunk caps how many themes one chunk can contribute.
	maxThemesPerChunk = 5

	// maxEvidencePerTheme caps recorded sentence fragments per theme.
	maxEvidencePerTheme = 3
)

// themeFamily pairs a canonical theme name with the keywords that signal it.
type themeFamily struct {
	name     string
	keywords []string
}

// themeFamilies covers the recurring subjects of community documents.
// Names are lowercase so they merge with capability-extracted themes.
var themeFamilies = []themeFamily{
	{name: "youth development", keywords: []string{
		"youth", "young people", "teenager", "mentoring", "after school", "school holidays",
	}},
	{name: "cultural preservation", keywords: []string{
		"culture", "cultural", "tradition", "heritage", "ceremony", "storytelling", "knowledge holders",
	}},
	{name: "community health", keywords: []string{
		"health", "clinic", "wellbeing", "mental health", "nutrition", "doctor", "nurse",
	}},
	{name: "land and water", keywords: []string{
		"land", "water", "river", "country", "ranger", "conservation", "caring for country",
	}},
	{name: "education", keywords: []string{
		"school", "education", "learning", "teacher", "student", "literacy", "training",
	}},
	{name: "economic development", keywords: []string{
		"business", "employment", "jobs", "income", "enterprise", "tourism", "livelihood",
	}},
	{name: "governance", keywords: []string{
		"council", "governance", "decision", "policy", "committee", "representation", "leadership",
	}},
	{name: "connection and belonging", keywords: []string{
		"connection", "belonging", "together", "inclusion", "isolation", "gathering", "welcome",
	}},
}

// extractThemes scores each theme family by weighted keyword matches. Body
// matches count once, title matches twice. Families scoring under
// minThemeScore are dropped.
func extractThemes(text, title string) []core.Theme {
	lowerText := strings.ToLower(text)
	tokens := tokenize(text)
	lowerTitle := strings.ToLower(title)
	titleTokens := tokenize(title)
	sentences := splitSentences(text)

	var themes []core.Theme
	for _, family := range themeFamilies {
		score := 0
		var evidence []string
		for _, keyword := range family.keywords {
			n := countMatches(tokens, lowerText, keyword)
			if n == 0 {
				continue
			}
			score += n
			if len(evidence) < maxEvidencePerTheme {
				if frag := findSentence(sentences, keyword); frag != "" && !slices.Contains(evidence, frag) {
					evidence = append(evidence, frag)
				}
			}
		}
		if title != "" {
			for _, keyword := range family.keywords {
				score += 2 * countMatches(titleTokens, lowerTitle, keyword)
			}
		}

		if score < minThemeScore {
			continue
		}

		confidence := 0.25 + 0.1*float64(score)
		if confidence > 0.9 {
			confidence = 0.9
		}
		themes = append(themes, core.Theme{
			Name:       family.name,
			Confidence: confidence,
			Evidence:   evidence,
			Provenance: core.ProvenanceFallback,
		})
	}

	slices.SortFunc(themes, func(a, b core.Theme) int {
		if a.Confidence != b.Confidence {
			if a.Confidence > b.Confidence {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(themes) > maxThemesPerChunk {
		themes = themes[:maxThemesPerChunk]
	}
	return themes
}
