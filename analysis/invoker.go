// Copyright 2025 Storyloom Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/core"
)

// DefaultBatchSize bounds concurrent capability calls per batch.
const DefaultBatchSize = 3

// Invoker drives the external capability across a document's chunks in
// bounded concurrent batches.
type Invoker struct {
	analyzer  ai.Analyzer
	batchSize int
	logger    *slog.Logger
}

// NewInvoker creates an invoker over the given analyzer. A non-positive
// batchSize falls back to DefaultBatchSize.
func NewInvoker(analyzer ai.Analyzer, batchSize int) *Invoker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Invoker{
		analyzer:  analyzer,
		batchSize: batchSize,
		logger:    slog.Default().With("component", "invoker"),
	}
}

// AnalyzeChunks analyzes every chunk, batches running sequentially and the
// chunks within a batch concurrently. A failed chunk is logged and excluded;
// it never aborts the batch or the document. Returns ErrAllChunksFailed
// (joined with the per-chunk causes) when nothing succeeded, so the caller
// can escalate to fallback analysis.
func (inv *Invoker) AnalyzeChunks(ctx context.Context, chunks []core.Chunk, docCtx ai.DocumentContext) ([]core.AnalysisResult, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	results := make([]*core.AnalysisResult, len(chunks))
	failures := make([]error, len(chunks))

	for start := 0; start < len(chunks); start += inv.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+inv.batchSize, len(chunks))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(slot int, chunk core.Chunk) {
				defer wg.Done()

				chunkCtx := docCtx
				chunkCtx.ChunkIndex = chunk.Index
				if chunkCtx.TotalChunks == 0 {
					chunkCtx.TotalChunks = len(chunks)
				}

				analysis, err := inv.analyzer.AnalyzeChunk(ctx, chunk.Text, chunkCtx)
				if err != nil {
					inv.logger.Warn("chunk analysis failed",
						"chunk", chunk.Index,
						"transient", ai.IsTransient(err),
						"err", err)
					failures[slot] = fmt.Errorf("chunk %d: %w", chunk.Index, err)
					return
				}
				converted := convertAnalysis(chunk.Index, analysis, inv.logger)
				results[slot] = &converted
			}(i, chunks[i])
		}
		wg.Wait()
	}

	collected := make([]core.AnalysisResult, 0, len(chunks))
	var causes []error
	for i := range results {
		if results[i] != nil {
			collected = append(collected, *results[i])
		} else if failures[i] != nil {
			causes = append(causes, failures[i])
		}
	}

	if len(collected) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllChunksFailed, errors.Join(causes...))
	}

	inv.logger.Debug("analyzed chunks",
		"total", len(chunks),
		"succeeded", len(collected),
		"failed", len(causes))
	return collected, nil
}
