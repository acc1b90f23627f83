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
	"math"

	"github.com/storyloom/distill/core"
	"github.com/storyloom/distill/storage"
)

// ChunkLoader gathers every stored chunk across all documents.
type ChunkLoader struct {
	documents storage.DocumentRepository
	artifacts storage.ArtifactRepository
}

// NewChunkLoader creates a loader over the given repositories.
func NewChunkLoader(documents storage.DocumentRepository, artifacts storage.ArtifactRepository) *ChunkLoader {
	return &ChunkLoader{
		documents: documents,
		artifacts: artifacts,
	}
}

// Load returns every stored chunk, grouped by document in listing order and
// ordered by index within each document. Context cancellation is checked
// between documents.
func (l *ChunkLoader) Load(ctx context.Context) ([]core.Chunk, error) {
	docs, err := l.documents.ListDocuments(ctx, math.MaxInt)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var chunks []core.Chunk
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		docChunks, err := l.artifacts.GetChunks(ctx, doc.Id)
		if err != nil {
			return nil, fmt.Errorf("failed to load chunks for document %d: %w", doc.Id, err)
		}
		chunks = append(chunks, docChunks...)
	}
	return chunks, nil
}
