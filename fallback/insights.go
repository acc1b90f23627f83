package fallback

import (
	"strings"

	"github.com/storyloom/distill/core"
)

// communityNeedImportance scores insights found via the known-need phrase
// list rather than a category pattern.
const communityNeedImportance = 0.65

// insightPatterns map phrase evidence to a category with a fixed importance
// per pattern type.
var insightPatterns = []struct {
	category   core.InsightCategory
	importance float64
	phrases    []string
}{
	{core.CategoryGap, 0.7, []string{
		"lack of", "shortage of", "no access to", "not enough", "need for more", "nowhere to",
	}},
	{core.CategoryOpportunity, 0.6, []string{
		"opportunity to", "potential to", "would benefit from", "if we had", "keen to start", "room to grow",
	}},
	{core.CategorySuccess, 0.75, []string{
		"has improved", "worked well", "succeeded", "doubled", "thriving", "proud of",
	}},
	{core.CategoryBarrier, 0.7, []string{
		"barrier", "prevented", "struggle to", "hard to get to", "cannot afford", "too far away",
	}},
}

// communityNeedPhrases are needs that recur across community documents often
// enough to check for by plain containment.
var communityNeedPhrases = []string{
	"more funding",
	"better transport",
	"safe spaces",
	"mental health support",
	"affordable housing",
	"access to services",
	"internet access",
	"employment pathways",
	"language classes",
	"childcare places",
}

// extractInsights detects gap/opportunity/success/barrier statements by
// phrase patterns, plus known community needs by substring containment.
// One insight per category per sentence.
func extractInsights(text string) []core.Insight {
	var insights []core.Insight
	seen := make(map[string]bool)

	add := func(sentence string, category core.InsightCategory, importance float64) {
		clipped := clipText(sentence, evidenceClipLen)
		key := category.String() + "|" + clipped
		if clipped == "" || seen[key] {
			return
		}
		seen[key] = true
		insights = append(insights, core.Insight{
			Text:       clipped,
			Category:   category,
			Importance: importance,
			Provenance: core.ProvenanceFallback,
		})
	}

	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)

		for _, pattern := range insightPatterns {
			for _, phrase := range pattern.phrases {
				if strings.Contains(lower, phrase) {
					add(sentence, pattern.category, pattern.importance)
					break
				}
			}
		}

		for _, need := range communityNeedPhrases {
			if strings.Contains(lower, need) {
				add(sentence, core.CategoryGap, communityNeedImportance)
				break
			}
		}
	}

	return insights
}
