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


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/storage"
)

// Config holds configuration for a reembedding run.
type Config struct {
	// BatchSize is the number of chunks sent per embedding call
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates the embedding of every stored chunk.
type Reembedder struct {
	config    *Config
	progress  io.Writer
	loader    *ChunkLoader
	processor *BatchProcessor
}

// NewReembedder creates a reembedder over the given repositories.
// progress receives run output, typically os.Stderr.
func NewReembedder(documents storage.DocumentRepository, artifacts storage.ArtifactRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		config:    config,
		progress:  progress,
		loader:    NewChunkLoader(documents, artifacts),
		processor: NewBatchProcessor(artifacts, embedder, config.MaxRetries, config.RetryDelay),
	}
}

// Run reembeds every stored chunk, reporting progress as it goes. The run
// stops at the first batch that fails all its retries; chunks already
// written keep their new vectors.
func (r *Reembedder) Run(ctx context.Context) error {
	chunks, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}

	total := len(chunks)
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks stored (nothing to reembed)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	for start := 0; start < total; start += r.config.BatchSize {
		end := min(start+r.config.BatchSize, total)

		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.processor.Process(ctx, chunks[start:end]); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		tracker.Increment(end - start)
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}
