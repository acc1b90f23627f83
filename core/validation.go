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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Status must be a known value
//   - Provenance, when set, must be a known value
//
// NOT validated (populated by the pipeline):
//   - Title and Source (optional caller metadata)
//   - ID (0 is valid before content hashing)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyText)
	}

	if err := ValidateDocumentStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.Provenance != 0 {
		if err := ValidateProvenance(doc.Provenance); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Index must not be negative
//   - End must be greater than Start
//
// NOT validated (populated by the pipeline):
//   - Vector (can be empty until embedding runs)
//   - StartPage/EndPage (0 is valid for unpaged text)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}

	if chunk.End <= chunk.Start {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidSpan)
	}

	return nil
}

// ValidateAnalysisResult validates the shape of a per-chunk result before
// aggregation. Empty artifact slices are valid; a chunk can genuinely yield
// nothing.
func ValidateAnalysisResult(result *AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("%w: result is nil", ErrInvalidResult)
	}

	if result.ChunkIndex < 0 {
		return fmt.Errorf("%w: negative chunk index %d", ErrInvalidResult, result.ChunkIndex)
	}

	for _, theme := range result.Themes {
		if theme.Name == "" {
			return fmt.Errorf("%w: %w", ErrInvalidResult, ErrEmptyThemeName)
		}
		if !validScore(theme.Confidence) {
			return fmt.Errorf("%w: theme %q: %w", ErrInvalidResult, theme.Name, ErrScoreOutOfRange)
		}
	}

	for _, quote := range result.Quotes {
		if !validScore(quote.Confidence) {
			return fmt.Errorf("%w: quote: %w", ErrInvalidResult, ErrScoreOutOfRange)
		}
	}

	for _, insight := range result.Insights {
		if !validScore(insight.Importance) {
			return fmt.Errorf("%w: insight: %w", ErrInvalidResult, ErrScoreOutOfRange)
		}
	}

	return nil
}

// ValidateDocumentStatus validates that a DocumentStatus has a valid value.
func ValidateDocumentStatus(status DocumentStatus) error {
	switch status {
	case DocumentQueued, DocumentProcessing, DocumentCompleted, DocumentFailed:
		return nil
	}
	return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
}

// ValidateProvenance validates that a Provenance has a valid value.
func ValidateProvenance(p Provenance) error {
	if p != ProvenanceAI && p != ProvenanceFallback {
		return fmt.Errorf("%w: value %d", ErrInvalidProvenance, p)
	}
	return nil
}

// ValidateSensitivity validates that a Sensitivity has a valid value.
func ValidateSensitivity(s Sensitivity) error {
	switch s {
	case SensitivityPublic, SensitivityRestricted, SensitivitySacred:
		return nil
	}
	return fmt.Errorf("%w: value %d", ErrInvalidSensitivity, s)
}

// ValidateInsightCategory validates that an InsightCategory has a valid value.
func ValidateInsightCategory(c InsightCategory) error {
	switch c {
	case CategoryGap, CategoryOpportunity, CategorySuccess, CategoryBarrier:
		return nil
	}
	return fmt.Errorf("%w: value %d", ErrInvalidCategory, c)
}

func validScore(score float64) bool {
	return score >= 0 && score <= 1
}
