package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/storyloom/distill/ai/mock"
	"github.com/storyloom/distill/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_ThemeConfidenceMax(t *testing.T) {
	results := []core.AnalysisResult{
		{
			ChunkIndex: 1,
			Themes: []core.Theme{
				{Name: "Youth Development", Confidence: 0.6, Evidence: []string{"from chunk 1"}, Provenance: core.ProvenanceAI},
			},
			Provenance: core.ProvenanceAI,
		},
		{
			ChunkIndex: 4,
			Themes: []core.Theme{
				{Name: "youth development", Confidence: 0.8, Evidence: []string{"from chunk 4"}, Provenance: core.ProvenanceAI},
			},
			Provenance: core.ProvenanceAI,
		},
	}

	merged, err := Aggregate(context.Background(), 9, results, Options{})
	require.NoError(t, err)

	require.Len(t, merged.Themes, 1)
	theme := merged.Themes[0]
	// Max, never sum or average.
	assert.Equal(t, 0.8, theme.Confidence)
	// Display name from the first contributor in chunk order.
	assert.Equal(t, "Youth Development", theme.Name)
	assert.Equal(t, []string{"from chunk 1", "from chunk 4"}, theme.Evidence)
}

func TestAggregate_StableUnderReordering(t *testing.T) {
	results := []core.AnalysisResult{
		{
			ChunkIndex: 0,
			Themes:     []core.Theme{{Name: "housing", Confidence: 0.5, Provenance: core.ProvenanceAI}},
			Keywords:   []core.Keyword{{Term: "rent", Frequency: 2, Provenance: core.ProvenanceAI}},
			Summary:    "first part.",
			Provenance: core.ProvenanceAI,
		},
		{
			ChunkIndex: 1,
			Themes:     []core.Theme{{Name: "housing", Confidence: 0.9, Provenance: core.ProvenanceAI}},
			Keywords:   []core.Keyword{{Term: "rent", Frequency: 3, Provenance: core.ProvenanceAI}},
			Summary:    "second part.",
			Provenance: core.ProvenanceAI,
		},
	}
	reversed := []core.AnalysisResult{results[1], results[0]}

	a, err := Aggregate(context.Background(), 1, results, Options{})
	require.NoError(t, err)
	b, err := Aggregate(context.Background(), 1, reversed, Options{})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "first part. second part.", b.Summary)
	assert.Equal(t, 5, b.Keywords[0].Frequency)
}

func TestAggregate_QuoteDedup(t *testing.T) {
	results := []core.AnalysisResult{
		{
			ChunkIndex: 0,
			Quotes: []core.Quote{
				{Text: "the clinic saved us", Speaker: "Maria", Confidence: 0.5, Sensitivity: core.SensitivityPublic, Provenance: core.ProvenanceAI},
				{Text: "the clinic saved us", Speaker: "", Confidence: 0.4, Sensitivity: core.SensitivityPublic, Provenance: core.ProvenanceAI},
			},
			Provenance: core.ProvenanceAI,
		},
		{
			ChunkIndex: 1,
			Quotes: []core.Quote{
				{Text: "the clinic saved us", Speaker: "Maria", Confidence: 0.9, Sensitivity: core.SensitivityRestricted, Provenance: core.ProvenanceAI},
			},
			Provenance: core.ProvenanceAI,
		},
	}

	merged, err := Aggregate(context.Background(), 1, results, Options{})
	require.NoError(t, err)

	// Same text with a different speaker stays separate.
	require.Len(t, merged.Quotes, 2)
	assert.Equal(t, "Maria", merged.Quotes[0].Speaker)
	assert.Equal(t, 0.9, merged.Quotes[0].Confidence)
	assert.Equal(t, core.SensitivityRestricted, merged.Quotes[0].Sensitivity)
}

func TestAggregate_Caps(t *testing.T) {
	var result core.AnalysisResult
	result.Provenance = core.ProvenanceAI
	for i := 0; i < 25; i++ {
		result.Quotes = append(result.Quotes, core.Quote{
			Text: fmt.Sprintf("quote number %d", i), Confidence: 0.5,
			Sensitivity: core.SensitivityPublic, Provenance: core.ProvenanceAI,
		})
	}
	for i := 0; i < 20; i++ {
		result.Insights = append(result.Insights, core.Insight{
			Text: fmt.Sprintf("insight number %d", i), Category: core.CategoryGap,
			Importance: 0.5, Provenance: core.ProvenanceAI,
		})
	}
	for i := 0; i < 35; i++ {
		result.Keywords = append(result.Keywords, core.Keyword{
			Term: fmt.Sprintf("term%d", i), Frequency: 1, Provenance: core.ProvenanceAI,
		})
	}

	merged, err := Aggregate(context.Background(), 1, []core.AnalysisResult{result}, Options{})
	require.NoError(t, err)

	assert.Len(t, merged.Quotes, 20)
	assert.Len(t, merged.Insights, 15)
	assert.Len(t, merged.Keywords, 30)
}

func TestAggregate_KeywordCaseFolding(t *testing.T) {
	results := []core.AnalysisResult{
		{ChunkIndex: 0, Keywords: []core.Keyword{{Term: "Water", Frequency: 2, Provenance: core.ProvenanceAI}}, Provenance: core.ProvenanceAI},
		{ChunkIndex: 1, Keywords: []core.Keyword{{Term: "water", Frequency: 3, Provenance: core.ProvenanceAI}}, Provenance: core.ProvenanceAI},
	}

	merged, err := Aggregate(context.Background(), 1, results, Options{})
	require.NoError(t, err)

	require.Len(t, merged.Keywords, 1)
	assert.Equal(t, "water", merged.Keywords[0].Term)
	assert.Equal(t, 5, merged.Keywords[0].Frequency)
}

func TestAggregate_SummaryRegenerate(t *testing.T) {
	summarizer := mock.NewMockSummarizer()
	summarizer.SummarizeFunc = func(ctx context.Context, fullText, title string) (string, error) {
		return "One holistic summary.", nil
	}

	results := []core.AnalysisResult{
		{ChunkIndex: 0, Summary: "part one.", Provenance: core.ProvenanceAI},
		{ChunkIndex: 1, Summary: "part two.", Provenance: core.ProvenanceAI},
	}
	opts := Options{
		Summary:    SummaryRegenerate,
		Summarizer: summarizer,
		FullText:   "full document text",
		Title:      "Report",
	}

	merged, err := Aggregate(context.Background(), 1, results, opts)
	require.NoError(t, err)
	assert.Equal(t, "One holistic summary.", merged.Summary)
	assert.Equal(t, 1, summarizer.CallCount())
}

func TestAggregate_SummaryRegenerateDegradesToConcat(t *testing.T) {
	summarizer := mock.NewMockSummarizer()
	summarizer.SummarizeFunc = func(ctx context.Context, fullText, title string) (string, error) {
		return "", errors.New("capability down")
	}

	results := []core.AnalysisResult{
		{ChunkIndex: 0, Summary: "part one.", Provenance: core.ProvenanceAI},
		{ChunkIndex: 1, Summary: "part two.", Provenance: core.ProvenanceAI},
	}
	opts := Options{
		Summary:    SummaryRegenerate,
		Summarizer: summarizer,
		FullText:   "full document text",
	}

	merged, err := Aggregate(context.Background(), 1, results, opts)
	require.NoError(t, err)
	assert.Equal(t, "part one. part two.", merged.Summary)
}

func TestAggregate_Provenance(t *testing.T) {
	fallbackOnly := []core.AnalysisResult{
		{ChunkIndex: 0, Provenance: core.ProvenanceFallback},
		{ChunkIndex: 1, Provenance: core.ProvenanceFallback},
	}
	merged, err := Aggregate(context.Background(), 1, fallbackOnly, Options{})
	require.NoError(t, err)
	assert.Equal(t, core.ProvenanceFallback, merged.Provenance)

	mixed := []core.AnalysisResult{
		{ChunkIndex: 0, Provenance: core.ProvenanceFallback},
		{ChunkIndex: 1, Provenance: core.ProvenanceAI},
	}
	merged, err = Aggregate(context.Background(), 1, mixed, Options{})
	require.NoError(t, err)
	assert.Equal(t, core.ProvenanceAI, merged.Provenance)
}

func TestAggregate_ChunksFailedCount(t *testing.T) {
	results := []core.AnalysisResult{
		{ChunkIndex: 0, Provenance: core.ProvenanceAI},
		{ChunkIndex: 1, Provenance: core.ProvenanceAI},
		{ChunkIndex: 3, Provenance: core.ProvenanceAI},
		{ChunkIndex: 4, Provenance: core.ProvenanceAI},
	}

	merged, err := Aggregate(context.Background(), 1, results, Options{TotalChunks: 5})
	require.NoError(t, err)
	assert.Equal(t, 4, merged.ChunksAnalyzed)
	assert.Equal(t, 1, merged.ChunksFailed)
}

func TestAggregate_MalformedResult(t *testing.T) {
	results := []core.AnalysisResult{
		{ChunkIndex: -1, Provenance: core.ProvenanceAI},
	}

	_, err := Aggregate(context.Background(), 1, results, Options{})
	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, -1, aggErr.ChunkIndex)

	outOfRange := []core.AnalysisResult{
		{
			ChunkIndex: 2,
			Themes:     []core.Theme{{Name: "housing", Confidence: 1.5, Provenance: core.ProvenanceAI}},
			Provenance: core.ProvenanceAI,
		},
	}
	_, err = Aggregate(context.Background(), 1, outOfRange, Options{})
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, 2, aggErr.ChunkIndex)
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate(context.Background(), 1, nil, Options{})
	assert.ErrorIs(t, err, ErrNoResults)
}
