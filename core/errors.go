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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidResult indicates an AnalysisResult failed validation.
	ErrInvalidResult = errors.New("invalid analysis result")

	// ErrEmptyText indicates a required text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyThemeName indicates a theme Name field is empty.
	ErrEmptyThemeName = errors.New("theme name cannot be empty")

	// ErrInvalidStatus indicates an invalid DocumentStatus value.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrInvalidProvenance indicates an invalid Provenance value.
	ErrInvalidProvenance = errors.New("invalid provenance")

	// ErrInvalidSensitivity indicates an invalid Sensitivity value.
	ErrInvalidSensitivity = errors.New("invalid sensitivity")

	// ErrInvalidCategory indicates an invalid InsightCategory value.
	ErrInvalidCategory = errors.New("invalid insight category")

	// ErrInvalidSpan indicates chunk offsets that do not describe a span.
	ErrInvalidSpan = errors.New("chunk end must be greater than start")

	// ErrScoreOutOfRange indicates a confidence or importance outside [0,1].
	ErrScoreOutOfRange = errors.New("score must be between 0 and 1")
)
