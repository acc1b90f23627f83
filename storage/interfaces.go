package storage

import (
	"context"

	"github.com/storyloom/distill/core"
)

// DocumentRepository manages document records and their status lifecycle.
// Implementations must be thread-safe.
type DocumentRepository interface {
	// CreateDocument stores a new document. A zero Id is replaced with a
	// generated sequence ID; a non-zero Id that already exists returns
	// ErrDuplicateID. Timestamps are populated on insert.
	CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments returns up to limit documents, most recently created
	// first.
	ListDocuments(ctx context.Context, limit int) ([]*core.Document, error)

	// UpdateStatus transitions a document's status and refreshes UpdatedAt.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateStatus(ctx context.Context, id core.ID, status core.DocumentStatus) error

	// MarkProcessing moves a document into the processing state.
	MarkProcessing(ctx context.Context, id core.ID) error

	// MarkCompleted moves a document into the completed state and records
	// the provenance of its results.
	MarkCompleted(ctx context.Context, id core.ID, provenance core.Provenance) error

	// MarkFailed moves a document into the failed state.
	MarkFailed(ctx context.Context, id core.ID) error

	// Close releases repository resources.
	Close() error
}

// ArtifactRepository persists everything the pipeline extracts from a
// document: chunks, themes, quotes, insights, keywords, and the aggregated
// result. Bulk inserts replace the document's previous artifacts of that
// kind, so re-running the pipeline for a document is idempotent.
// Implementations must be thread-safe.
type ArtifactRepository interface {
	// BulkInsertChunks stores chunks keyed by (document, index).
	BulkInsertChunks(ctx context.Context, chunks ...core.Chunk) error

	// BulkInsertThemes replaces the document's stored themes.
	BulkInsertThemes(ctx context.Context, documentID core.ID, themes ...core.Theme) error

	// BulkInsertQuotes replaces the document's stored quotes.
	BulkInsertQuotes(ctx context.Context, documentID core.ID, quotes ...core.Quote) error

	// BulkInsertInsights replaces the document's stored insights.
	BulkInsertInsights(ctx context.Context, documentID core.ID, insights ...core.Insight) error

	// BulkInsertKeywords replaces the document's stored keywords.
	BulkInsertKeywords(ctx context.Context, documentID core.ID, keywords ...core.Keyword) error

	// SaveAggregatedResult stores the document-level merged result,
	// overwriting any previous one.
	SaveAggregatedResult(ctx context.Context, result *core.AggregatedResult) error

	// GetAggregatedResult retrieves the document-level result.
	// Returns ErrNotFound if none has been saved.
	GetAggregatedResult(ctx context.Context, documentID core.ID) (*core.AggregatedResult, error)

	// GetChunks returns a document's chunks ordered by index.
	GetChunks(ctx context.Context, documentID core.ID) ([]core.Chunk, error)

	// GetKeywords returns a document's stored keywords in insertion order.
	GetKeywords(ctx context.Context, documentID core.ID) ([]core.Keyword, error)

	// UpdateChunkVector attaches an embedding to a stored chunk.
	// Returns ErrNotFound if the chunk doesn't exist.
	UpdateChunkVector(ctx context.Context, documentID core.ID, chunkIndex int, vector []float32) error

	// FindSimilarChunks scans stored chunk vectors and returns the topK
	// most similar to the query vector, highest score first. Chunks
	// without embeddings are skipped.
	FindSimilarChunks(ctx context.Context, vector []float32, topK int) ([]core.SimilarChunk, error)

	// Close releases repository resources.
	Close() error
}
