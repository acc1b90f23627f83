package analysis

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/core"
)

// Caps on the merged document-level result.
const (
	maxAggregatedQuotes   = 20
	maxAggregatedInsights = 15
	maxAggregatedKeywords = 30
)

// SummaryPolicy selects how the document summary is produced.
type SummaryPolicy int

const (
	// SummaryConcat joins per-chunk summaries in chunk order.
	SummaryConcat SummaryPolicy = iota + 1
	// SummaryRegenerate makes one summarization call over the full text,
	// degrading to concatenation if the call fails.
	SummaryRegenerate
)

func (p SummaryPolicy) String() string {
	switch p {
	case SummaryConcat:
		return "concat"
	case SummaryRegenerate:
		return "regenerate"
	default:
		return "unknown"
	}
}

// Options carries the aggregation inputs beyond the per-chunk results.
type Options struct {
	// Summary selects the summary policy. Zero value means SummaryConcat.
	Summary SummaryPolicy

	// Summarizer is required for SummaryRegenerate.
	Summarizer ai.Summarizer

	// FullText and Title feed the regeneration call.
	FullText string
	Title    string

	// TotalChunks is how many chunks the document was split into; the
	// difference from the result count is reported as failed chunks.
	TotalChunks int
}

// Aggregator merges per-chunk analysis results into one document-level
// result with deterministic rules.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{logger: slog.Default().With("component", "aggregator")}
}

// Aggregate merges results for one document. Inputs are sorted by chunk
// index first, so the output is stable under reordering. Malformed results
// are rejected with an AggregationError naming the offending chunk.
func (a *Aggregator) Aggregate(ctx context.Context, documentID core.ID, results []core.AnalysisResult, opts Options) (*core.AggregatedResult, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	for i := range results {
		if err := core.ValidateAnalysisResult(&results[i]); err != nil {
			return nil, &AggregationError{ChunkIndex: results[i].ChunkIndex, Err: err}
		}
	}

	sorted := make([]core.AnalysisResult, len(results))
	copy(sorted, results)
	slices.SortFunc(sorted, func(x, y core.AnalysisResult) int {
		return x.ChunkIndex - y.ChunkIndex
	})

	merged := &core.AggregatedResult{
		DocumentId:     documentID,
		Themes:         mergeThemes(sorted),
		Quotes:         mergeQuotes(sorted),
		Insights:       mergeInsights(sorted),
		Keywords:       mergeKeywords(sorted),
		Provenance:     overallProvenance(sorted),
		ChunksAnalyzed: len(sorted),
	}
	if opts.TotalChunks > len(sorted) {
		merged.ChunksFailed = opts.TotalChunks - len(sorted)
	}
	merged.Summary = a.buildSummary(ctx, sorted, opts)

	a.logger.Debug("aggregated results",
		"document", documentID,
		"chunks", len(sorted),
		"themes", len(merged.Themes),
		"quotes", len(merged.Quotes),
		"insights", len(merged.Insights))
	return merged, nil
}

// mergeThemes keys themes by case-folded name. Confidence is the max across
// contributors, never a sum; evidence concatenates in chunk order; the
// display name comes from the first contributor.
func mergeThemes(sorted []core.AnalysisResult) []core.Theme {
	byName := make(map[string]*core.Theme)
	var order []string

	for _, result := range sorted {
		for _, theme := range result.Themes {
			key := strings.ToLower(theme.Name)
			existing, ok := byName[key]
			if !ok {
				copied := theme
				copied.Evidence = slices.Clone(theme.Evidence)
				byName[key] = &copied
				order = append(order, key)
				continue
			}
			if theme.Confidence > existing.Confidence {
				existing.Confidence = theme.Confidence
			}
			existing.Evidence = append(existing.Evidence, theme.Evidence...)
			if theme.Provenance != existing.Provenance {
				existing.Provenance = core.ProvenanceAI
			}
		}
	}

	themes := make([]core.Theme, 0, len(order))
	for _, key := range order {
		themes = append(themes, *byName[key])
	}
	slices.SortFunc(themes, func(x, y core.Theme) int {
		if x.Confidence != y.Confidence {
			if x.Confidence > y.Confidence {
				return -1
			}
			return 1
		}
		return strings.Compare(x.Name, y.Name)
	})
	return themes
}

// mergeQuotes deduplicates by (text, speaker), keeping the higher confidence.
func mergeQuotes(sorted []core.AnalysisResult) []core.Quote {
	type key struct{ text, speaker string }
	byKey := make(map[key]*core.Quote)
	var order []key

	for _, result := range sorted {
		for _, quote := range result.Quotes {
			k := key{quote.Text, quote.Speaker}
			existing, ok := byKey[k]
			if !ok {
				copied := quote
				byKey[k] = &copied
				order = append(order, k)
				continue
			}
			if quote.Confidence > existing.Confidence {
				existing.Confidence = quote.Confidence
				existing.Sensitivity = quote.Sensitivity
			}
		}
	}

	quotes := make([]core.Quote, 0, len(order))
	for _, k := range order {
		quotes = append(quotes, *byKey[k])
	}
	slices.SortFunc(quotes, func(x, y core.Quote) int {
		if x.Confidence != y.Confidence {
			if x.Confidence > y.Confidence {
				return -1
			}
			return 1
		}
		return strings.Compare(x.Text, y.Text)
	})
	if len(quotes) > maxAggregatedQuotes {
		quotes = quotes[:maxAggregatedQuotes]
	}
	return quotes
}

func mergeInsights(sorted []core.AnalysisResult) []core.Insight {
	var insights []core.Insight
	for _, result := range sorted {
		insights = append(insights, result.Insights...)
	}
	slices.SortFunc(insights, func(x, y core.Insight) int {
		if x.Importance != y.Importance {
			if x.Importance > y.Importance {
				return -1
			}
			return 1
		}
		return strings.Compare(x.Text, y.Text)
	})
	if len(insights) > maxAggregatedInsights {
		insights = insights[:maxAggregatedInsights]
	}
	return insights
}

// mergeKeywords keys by lowercased term and sums frequencies across chunks.
func mergeKeywords(sorted []core.AnalysisResult) []core.Keyword {
	byTerm := make(map[string]*core.Keyword)
	var order []string

	for _, result := range sorted {
		for _, keyword := range result.Keywords {
			term := strings.ToLower(keyword.Term)
			existing, ok := byTerm[term]
			if !ok {
				copied := keyword
				copied.Term = term
				byTerm[term] = &copied
				order = append(order, term)
				continue
			}
			existing.Frequency += keyword.Frequency
			if keyword.Provenance != existing.Provenance {
				existing.Provenance = core.ProvenanceAI
			}
		}
	}

	keywords := make([]core.Keyword, 0, len(order))
	for _, term := range order {
		keywords = append(keywords, *byTerm[term])
	}
	slices.SortFunc(keywords, func(x, y core.Keyword) int {
		if x.Frequency != y.Frequency {
			return y.Frequency - x.Frequency
		}
		return strings.Compare(x.Term, y.Term)
	})
	if len(keywords) > maxAggregatedKeywords {
		keywords = keywords[:maxAggregatedKeywords]
	}
	return keywords
}

// overallProvenance is fallback only when every contributing result came
// from fallback analysis.
func overallProvenance(sorted []core.AnalysisResult) core.Provenance {
	for _, result := range sorted {
		if result.Provenance != core.ProvenanceFallback {
			return core.ProvenanceAI
		}
	}
	return core.ProvenanceFallback
}

func (a *Aggregator) buildSummary(ctx context.Context, sorted []core.AnalysisResult, opts Options) string {
	if opts.Summary == SummaryRegenerate && opts.Summarizer != nil && opts.FullText != "" {
		summary, err := opts.Summarizer.Summarize(ctx, opts.FullText, opts.Title)
		if err == nil && summary != "" {
			return summary
		}
		a.logger.Warn("summary regeneration failed, concatenating chunk summaries", "err", err)
	}
	return concatSummaries(sorted)
}

func concatSummaries(sorted []core.AnalysisResult) string {
	var parts []string
	for _, result := range sorted {
		if s := strings.TrimSpace(result.Summary); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Aggregate is the package-level convenience over a default Aggregator.
func Aggregate(ctx context.Context, documentID core.ID, results []core.AnalysisResult, opts Options) (*core.AggregatedResult, error) {
	return NewAggregator().Aggregate(ctx, documentID, results, opts)
}
