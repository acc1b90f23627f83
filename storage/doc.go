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


// Package storage defines the persistence abstraction for the analysis
// pipeline.
//
// Repository interfaces decouple the pipeline from any particular backend.
// Public constructors in backend packages return these interfaces so callers
// never couple to implementation types:
//
//	docs, err := badger.NewDocumentRepository(backend)   // storage.DocumentRepository
//	artifacts, err := badger.NewArtifactRepository(backend) // storage.ArtifactRepository
//
// # Repositories
//
//   - DocumentRepository: document records and their status lifecycle
//     (queued, processing, completed, failed).
//   - ArtifactRepository: everything extraction produces for a document --
//     chunks with optional embeddings, themes, quotes, insights, keywords,
//     and the aggregated document-level result.
//
// Bulk artifact inserts replace a document's previous artifacts of that
// kind, which keeps pipeline re-runs idempotent.
//
// # Serialization
//
// Records travel as MUS-encoded bytes via the Marshal/Unmarshal helpers in
// this package. The same encoding backs the analysis cache payloads.
//
// # Thread safety
//
// All repository implementations must be safe for concurrent use. Methods
// accept a context.Context for cancellation.
package storage
