package mock

import (
	"context"
	"sync"
)

// MockSummarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields. Safe for
// concurrent use.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, uses default clipped-echo behavior.
	SummarizeFunc func(ctx context.Context, fullText, title string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockSummarizer creates a mock summarizer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockSummarizer().
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize returns a deterministic clipped echo of the document text.
func (m *MockSummarizer) Summarize(ctx context.Context, fullText, title string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, fullText, title)
	}

	summary := clip(fullText, 120)
	if title != "" {
		summary = title + ": " + summary
	}
	return summary, nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSummarizer) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.mu.Unlock()
	m.SummarizeFunc = nil
}
