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


// Package chunk splits document text into overlapping, boundary-aware chunks.
//
// All offsets are rune offsets, so multi-byte text never splits inside a
// character. Concatenating chunk spans minus the overlap duplication
// reconstructs the original text exactly.
package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/storyloom/distill/core"
)

// Config controls how text is split into chunks.
type Config struct {
	// MaxChunkSize is the maximum chunk length in runes. A chunk only
	// exceeds it when a hard split is disabled by PreserveBoundaries and
	// no boundary exists, which cannot happen with the default settings.
	MaxChunkSize int

	// OverlapSize is how many runes consecutive chunks share.
	OverlapSize int

	// MinChunkSize is the length at or below which the whole text becomes
	// a single chunk.
	MinChunkSize int

	// PreserveBoundaries makes the splitter search backward from the
	// max-size cutoff for a sentence or paragraph break before hard
	// splitting.
	PreserveBoundaries bool
}

// DefaultConfig returns the standard chunking configuration.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:       2000,
		OverlapSize:        200,
		MinChunkSize:       100,
		PreserveBoundaries: true,
	}
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: max chunk size %d must be positive", ErrInvalidConfig, c.MaxChunkSize)
	}
	if c.OverlapSize < 0 {
		return fmt.Errorf("%w: overlap size %d must not be negative", ErrInvalidConfig, c.OverlapSize)
	}
	if c.MinChunkSize < 0 {
		return fmt.Errorf("%w: min chunk size %d must not be negative", ErrInvalidConfig, c.MinChunkSize)
	}
	if c.OverlapSize >= c.MaxChunkSize {
		return fmt.Errorf("%w: overlap size %d must be smaller than max chunk size %d",
			ErrInvalidConfig, c.OverlapSize, c.MaxChunkSize)
	}
	return nil
}

// boundaryWindow is how far back from the max-size cutoff the splitter
// searches for a sentence or paragraph break.
func (c Config) boundaryWindow() int {
	return c.MaxChunkSize * 15 / 100
}

// Split chunks text for the given document. Empty text yields zero chunks and
// a nil error. Page breaks are read from form feed characters; StartPage and
// EndPage stay 0 when the text carries no page markers.
func Split(docID core.ID, text string, cfg Config) ([]core.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrMalformedInput)
	}

	runes := []rune(text)
	pages := pageOffsets(runes)

	if len(runes) <= cfg.MinChunkSize {
		return []core.Chunk{makeChunk(docID, 0, 0, len(runes), runes, pages)}, nil
	}

	var chunks []core.Chunk
	start := 0
	index := 0
	for start < len(runes) {
		end := start + cfg.MaxChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if cfg.PreserveBoundaries {
			if cut := findBoundary(runes, start, end, cfg.boundaryWindow()); cut > start {
				end = cut
			}
		}

		chunks = append(chunks, makeChunk(docID, index, start, end, runes, pages))
		if end == len(runes) {
			break
		}

		next := end - cfg.OverlapSize
		if next <= start {
			next = start + 1
		}
		start = next
		index++
	}

	return chunks, nil
}

// findBoundary scans backward from the cutoff for the nearest paragraph or
// sentence break within the window. The returned cut position sits just after
// the break, so terminators stay with the chunk they end. Returns 0 when no
// break is found.
func findBoundary(runes []rune, start, cutoff, window int) int {
	low := cutoff - window
	if low < start {
		low = start
	}
	for i := cutoff - 2; i >= low; i-- {
		// Paragraph break: blank line
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
		// Sentence break: terminator followed by whitespace
		if isSentenceEnd(runes[i]) && isSpace(runes[i+1]) {
			return i + 2
		}
	}
	return 0
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\f' || r == '\r'
}

func makeChunk(docID core.ID, index, start, end int, runes []rune, pages []int) core.Chunk {
	text := string(runes[start:end])
	chunk := core.Chunk{
		DocumentId: docID,
		Index:      index,
		Start:      start,
		End:        end,
		Text:       text,
		WordCount:  len(strings.Fields(text)),
	}
	if pages != nil {
		chunk.StartPage = pages[start]
		chunk.EndPage = pages[end-1]
	}
	return chunk
}

// pageOffsets maps each rune position to its 1-based page number. Returns nil
// when the text has no form feed markers.
func pageOffsets(runes []rune) []int {
	hasBreaks := false
	for _, r := range runes {
		if r == '\f' {
			hasBreaks = true
			break
		}
	}
	if !hasBreaks {
		return nil
	}

	pages := make([]int, len(runes))
	page := 1
	for i, r := range runes {
		pages[i] = page
		if r == '\f' {
			page++
		}
	}
	return pages
}
