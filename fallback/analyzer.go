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


// Package fallback provides rule-based document analysis for when the
// language capability is unreachable.
//
// Everything here is a pure function over chunk text: keyword-family theme
// scoring, regex and reporting-verb quote extraction, phrase-pattern insight
// detection, and frequency-counted keywords. The output shape matches what
// the capability produces, so the aggregator never needs to know which path
// ran; every item carries core.ProvenanceFallback.
package fallback

import "github.com/storyloom/distill/core"

// chunkSummaryLen bounds the per-chunk lead-sentence summary.
const chunkSummaryLen = 200

// Analyze runs all extraction passes over one chunk.
func Analyze(chunk core.Chunk) core.AnalysisResult {
	return AnalyzeWithTitle(chunk, "")
}

// AnalyzeWithTitle runs all extraction passes with the document title
// available for theme scoring. Title keyword matches count double.
func AnalyzeWithTitle(chunk core.Chunk, title string) core.AnalysisResult {
	return core.AnalysisResult{
		ChunkIndex: chunk.Index,
		Themes:     extractThemes(chunk.Text, title),
		Quotes:     extractQuotes(chunk.Text),
		Insights:   extractInsights(chunk.Text),
		Keywords:   extractKeywords(chunk.Text),
		Summary:    Summarize(chunk.Text, chunkSummaryLen),
		Provenance: core.ProvenanceFallback,
	}
}
