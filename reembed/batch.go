package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/core"
	"github.com/storyloom/distill/storage"
)

// BatchProcessor embeds batches of chunks and writes the vectors back.
type BatchProcessor struct {
	artifacts      storage.ArtifactRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a processor that retries failed embedding calls
// up to maxRetries times with exponential backoff from retryBaseDelay.
func NewBatchProcessor(artifacts storage.ArtifactRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		artifacts:      artifacts,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the batch in one capability call and stores each chunk's
// normalized vector. Vectors are unit length so the similarity scan's dot
// product orders by cosine.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: expected %d, got %d", ErrVectorCountMismatch, len(chunks), len(vectors))
	}

	for i, chunk := range chunks {
		vector := core.NormalizeVector(vectors[i])
		if err := bp.artifacts.UpdateChunkVector(ctx, chunk.DocumentId, chunk.Index, vector); err != nil {
			return fmt.Errorf("failed to update chunk %d of document %d: %w", chunk.Index, chunk.DocumentId, err)
		}
	}
	return nil
}
