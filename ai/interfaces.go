package ai

import "context"

// DocumentContext carries optional document-level hints passed alongside a
// chunk so the capability can situate it.
type DocumentContext struct {
	// Title of the source document, empty if unknown.
	Title string

	// ChunkIndex is the zero-based position of this chunk.
	ChunkIndex int

	// TotalChunks is the number of chunks in the document, 0 if unknown.
	TotalChunks int
}

// Analyzer performs language understanding on a single chunk of text.
// Implementations must be thread-safe for concurrent use; callers bound
// concurrency themselves.
type Analyzer interface {
	// AnalyzeChunk extracts themes, quotes, insights, and keywords from one
	// chunk. The returned analysis uses wire types local to this package;
	// callers convert to domain types and stamp provenance.
	// Returns a *CapabilityError on failure.
	AnalyzeChunk(ctx context.Context, text string, docCtx DocumentContext) (*ChunkAnalysis, error)
}

// Summarizer produces a document-level summary in one holistic call.
type Summarizer interface {
	// Summarize generates a short summary of the full document text.
	// Returns a *CapabilityError on failure.
	Summarize(ctx context.Context, fullText, title string) (string, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider aggregates capability services for convenient initialization and
// lifecycle management. Services returned by a provider share configuration.
type Provider interface {
	// Analyzer returns the chunk analysis service.
	Analyzer() Analyzer

	// Summarizer returns the document summarization service.
	Summarizer() Summarizer

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
