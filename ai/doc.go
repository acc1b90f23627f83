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


// Package ai provides abstractions for the language capability used by the
// analysis pipeline.
//
// This package defines interfaces for chunk analysis, document summarization,
// and text embeddings. It follows the dependency inversion principle: the
// pipeline depends on these abstractions, never on a concrete service.
//
// # Design Principles
//
// The package is designed around four interfaces:
//
//   - Analyzer: extracts themes, quotes, insights, and keywords from a chunk
//   - Summarizer: produces one holistic document summary
//   - Embedder: generates vector embeddings from text
//   - Provider: aggregates the services for convenient initialization
//
// Results use wire types local to this package (ChunkAnalysis and the
// Extracted* structs). Consumers convert them to domain types and stamp
// provenance; the capability itself never labels its own output.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewAnalyzer, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Test utility constructors (mock.NewMockAnalyzer, mock.NewMockEmbedder)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields (CallCount, AnalyzeChunkFunc, Reset, etc.).
//
// # Errors
//
// All service failures surface as *CapabilityError, which distinguishes
// transient faults (rate limits, timeouts) from terminal ones (bad
// credentials, unparseable responses). Use IsTransient to branch.
package ai
