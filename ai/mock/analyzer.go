package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/storyloom/distill/ai"
)

// MockAnalyzer is a test double for ai.Analyzer.
// It allows custom behavior injection via function fields. Safe for
// concurrent use; the invoker calls analyzers from batch goroutines.
type MockAnalyzer struct {
	// AnalyzeChunkFunc is called by AnalyzeChunk if set.
	// If nil, uses default word-derived analysis.
	AnalyzeChunkFunc func(ctx context.Context, text string, docCtx ai.DocumentContext) (*ai.ChunkAnalysis, error)

	mu        sync.Mutex
	callCount int
}

// NewMockAnalyzer creates a mock analyzer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockAnalyzer().
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// AnalyzeChunk produces a simple deterministic analysis from the text.
// Default behavior: themes and keywords come from the leading words, one
// insight summarizes the first theme, and quotes stay empty.
func (m *MockAnalyzer) AnalyzeChunk(ctx context.Context, text string, docCtx ai.DocumentContext) (*ai.ChunkAnalysis, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.AnalyzeChunkFunc != nil {
		return m.AnalyzeChunkFunc(ctx, text, docCtx)
	}

	words := strings.Fields(strings.ToLower(text))
	analysis := &ai.ChunkAnalysis{}
	if len(words) == 0 {
		return analysis, nil
	}

	// Themes from the first distinct words of meaningful length
	confidence := 0.9
	seen := make(map[string]bool)
	for _, word := range words {
		if len(analysis.Themes) >= 3 {
			break
		}
		word = strings.Trim(word, ".,!?;:\"'()[]")
		if len(word) < 4 || seen[word] {
			continue
		}
		seen[word] = true
		analysis.Themes = append(analysis.Themes, ai.ExtractedTheme{
			Name:       word,
			Confidence: confidence,
			Evidence:   []string{word},
		})
		confidence -= 0.1
	}

	// Keyword frequencies over the whole chunk
	counts := make(map[string]int)
	var order []string
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()[]")
		if len(word) < 4 {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}
	for _, term := range order {
		if len(analysis.Keywords) >= 5 {
			break
		}
		analysis.Keywords = append(analysis.Keywords, ai.ExtractedKeyword{
			Term:      term,
			Frequency: counts[term],
		})
	}

	if len(analysis.Themes) > 0 {
		analysis.Insights = append(analysis.Insights, ai.ExtractedInsight{
			Text:       "mock insight about " + analysis.Themes[0].Name,
			Category:   "opportunity",
			Importance: 0.5,
		})
	}

	analysis.Summary = clip(text, 60)
	return analysis, nil
}

// CallCount returns the number of times AnalyzeChunk was called.
func (m *MockAnalyzer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockAnalyzer) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.mu.Unlock()
	m.AnalyzeChunkFunc = nil
}

// clip returns at most limit runes of s.
func clip(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit])
}
