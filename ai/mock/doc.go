// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Analyzer, ai.Summarizer,
// ai.Embedder, and ai.Provider for use in unit tests. The mocks allow tests to
// run without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	analysis, err := mockProvider.Analyzer().AnalyzeChunk(ctx, "test", ai.DocumentContext{})
//
//	// Custom behavior injection
//	mockAnalyzer := mock.NewMockAnalyzer()
//	mockAnalyzer.AnalyzeChunkFunc = func(ctx context.Context, text string, docCtx ai.DocumentContext) (*ai.ChunkAnalysis, error) {
//	    return nil, ai.NewCapabilityError("analyze", errTest, true)
//	}
//
//	// Check call counts
//	count := mockAnalyzer.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockAnalyzer: Derives themes and keywords from words in the text
//   - MockSummarizer: Returns a clipped echo of the input text
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockProvider: Aggregates the three mocks above
package mock
