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


package storage

import (
	"github.com/storyloom/distill/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalTheme serializes a Theme to bytes.
func MarshalTheme(theme *core.Theme) []byte {
	buf := make([]byte, core.ThemeMUS.Size(*theme))
	core.ThemeMUS.Marshal(*theme, buf)
	return buf
}

// UnmarshalTheme deserializes a Theme from bytes.
func UnmarshalTheme(data []byte) (*core.Theme, error) {
	theme, _, err := core.ThemeMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &theme, nil
}

// MarshalQuote serializes a Quote to bytes.
func MarshalQuote(quote *core.Quote) []byte {
	buf := make([]byte, core.QuoteMUS.Size(*quote))
	core.QuoteMUS.Marshal(*quote, buf)
	return buf
}

// UnmarshalQuote deserializes a Quote from bytes.
func UnmarshalQuote(data []byte) (*core.Quote, error) {
	quote, _, err := core.QuoteMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// MarshalInsight serializes an Insight to bytes.
func MarshalInsight(insight *core.Insight) []byte {
	buf := make([]byte, core.InsightMUS.Size(*insight))
	core.InsightMUS.Marshal(*insight, buf)
	return buf
}

// UnmarshalInsight deserializes an Insight from bytes.
func UnmarshalInsight(data []byte) (*core.Insight, error) {
	insight, _, err := core.InsightMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &insight, nil
}

// MarshalKeyword serializes a Keyword to bytes.
func MarshalKeyword(keyword *core.Keyword) []byte {
	buf := make([]byte, core.KeywordMUS.Size(*keyword))
	core.KeywordMUS.Marshal(*keyword, buf)
	return buf
}

// UnmarshalKeyword deserializes a Keyword from bytes.
func UnmarshalKeyword(data []byte) (*core.Keyword, error) {
	keyword, _, err := core.KeywordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &keyword, nil
}

// MarshalAggregatedResult serializes an AggregatedResult to bytes.
func MarshalAggregatedResult(result *core.AggregatedResult) []byte {
	buf := make([]byte, core.AggregatedResultMUS.Size(*result))
	core.AggregatedResultMUS.Marshal(*result, buf)
	return buf
}

// UnmarshalAggregatedResult deserializes an AggregatedResult from bytes.
func UnmarshalAggregatedResult(data []byte) (*core.AggregatedResult, error) {
	result, _, err := core.AggregatedResultMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// MarshalAnalysisResult serializes a single chunk result, the payload unit
// the analysis cache stores under the chunk text hash.
func MarshalAnalysisResult(result *core.AnalysisResult) []byte {
	buf := make([]byte, core.AnalysisResultMUS.Size(*result))
	core.AnalysisResultMUS.Marshal(*result, buf)
	return buf
}

// UnmarshalAnalysisResult deserializes a single chunk result.
func UnmarshalAnalysisResult(data []byte) (*core.AnalysisResult, error) {
	result, _, err := core.AnalysisResultMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
