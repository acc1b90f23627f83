package analysis

import (
	"log/slog"

	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/core"
)

// convertAnalysis maps capability wire types onto core types, stamping
// everything with AI provenance. Insights with an unrecognized category are
// dropped and logged; unrecognized sensitivity tiers default to public.
func convertAnalysis(chunkIndex int, analysis *ai.ChunkAnalysis, logger *slog.Logger) core.AnalysisResult {
	result := core.AnalysisResult{
		ChunkIndex: chunkIndex,
		Summary:    analysis.Summary,
		Provenance: core.ProvenanceAI,
	}

	for _, t := range analysis.Themes {
		result.Themes = append(result.Themes, core.Theme{
			Name:       t.Name,
			Confidence: t.Confidence,
			Evidence:   t.Evidence,
			Provenance: core.ProvenanceAI,
		})
	}

	for _, q := range analysis.Quotes {
		sensitivity, known := parseSensitivity(q.Sensitivity)
		if !known {
			logger.Debug("unknown sensitivity tier, defaulting to public",
				"chunk", chunkIndex, "tier", q.Sensitivity)
		}
		result.Quotes = append(result.Quotes, core.Quote{
			Text:        q.Text,
			Speaker:     q.Speaker,
			Confidence:  q.Confidence,
			Sensitivity: sensitivity,
			Provenance:  core.ProvenanceAI,
		})
	}

	for _, in := range analysis.Insights {
		category, known := parseCategory(in.Category)
		if !known {
			logger.Warn("dropping insight with unknown category",
				"chunk", chunkIndex, "category", in.Category)
			continue
		}
		result.Insights = append(result.Insights, core.Insight{
			Text:       in.Text,
			Category:   category,
			Importance: in.Importance,
			Provenance: core.ProvenanceAI,
		})
	}

	for _, k := range analysis.Keywords {
		result.Keywords = append(result.Keywords, core.Keyword{
			Term:       k.Term,
			Frequency:  k.Frequency,
			Provenance: core.ProvenanceAI,
		})
	}

	return result
}

func parseSensitivity(s string) (core.Sensitivity, bool) {
	switch s {
	case "public":
		return core.SensitivityPublic, true
	case "restricted":
		return core.SensitivityRestricted, true
	case "sacred":
		return core.SensitivitySacred, true
	default:
		return core.SensitivityPublic, false
	}
}

func parseCategory(s string) (core.InsightCategory, bool) {
	switch s {
	case "gap":
		return core.CategoryGap, true
	case "opportunity":
		return core.CategoryOpportunity, true
	case "success":
		return core.CategorySuccess, true
	case "barrier":
		return core.CategoryBarrier, true
	default:
		return 0, false
	}
}
