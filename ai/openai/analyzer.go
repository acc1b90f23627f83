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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/storyloom/distill/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// chunkInputLimit caps the chunk text sent per analysis call so oversized
// chunks cannot blow the model's context window.
const chunkInputLimit = 8000

// Analyzer implements ai.Analyzer using OpenAI-compatible chat APIs.
type Analyzer struct {
	client             llms.Model
	temperature        float64
	minThemeConfidence float64
	logger             *slog.Logger
}

// Wire types matching the JSON contract in the analysis prompt.
type themePayload struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence,omitempty"`
}

type quotePayload struct {
	Text        string  `json:"text"`
	Speaker     string  `json:"speaker"`
	Confidence  float64 `json:"confidence"`
	Sensitivity string  `json:"sensitivity"`
}

type insightPayload struct {
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	Importance float64 `json:"importance"`
}

type keywordPayload struct {
	Term      string `json:"term"`
	Frequency int    `json:"frequency"`
}

// analysisPayload is the wrapper structure for the model's JSON response.
type analysisPayload struct {
	Themes   []themePayload   `json:"themes"`
	Quotes   []quotePayload   `json:"quotes"`
	Insights []insightPayload `json:"insights"`
	Keywords []keywordPayload `json:"keywords"`
	Summary  string           `json:"summary"`
}

// newAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnalyzer(config *ai.Config) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.AnalysisHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.AnalysisModel),
	)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		client:             client,
		temperature:        config.Temperature,
		minThemeConfidence: config.MinThemeConfidence,
		logger:             slog.Default().With("component", "openai-analyzer"),
	}, nil
}

// NewAnalyzer creates a new chunk analyzer using the provided configuration.
//
// Returns ai.Analyzer interface to enforce abstraction.
func NewAnalyzer(config *ai.Config) (ai.Analyzer, error) {
	return newAnalyzer(config)
}

// AnalyzeChunk extracts themes, quotes, insights, and keywords from one chunk
// of document text. Failures surface as *ai.CapabilityError; malformed model
// output is retried up to 3 times before being reported as terminal.
func (a *Analyzer) AnalyzeChunk(ctx context.Context, text string, docCtx ai.DocumentContext) (*ai.ChunkAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ai.NewCapabilityError("analyze", ai.ErrEmptyInput, false)
	}
	text = truncateRunes(text, chunkInputLimit)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildAnalysisPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildChunkMessage(docCtx, text)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var payload analysisPayload
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(a.temperature), llms.WithJSONMode())
		if err != nil {
			a.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, ai.NewCapabilityError("analyze", err, isTransientErr(err))
		}

		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model", "chunk", docCtx.ChunkIndex)
			return &ai.ChunkAnalysis{}, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		payload = analysisPayload{}
		if err := json.Unmarshal([]byte(responseText), &payload); err != nil {
			lastErr = err
			a.logger.Warn("error parsing analysis response",
				"attempt", attempt+1,
				"chunk", docCtx.ChunkIndex,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Error("failed to parse analysis response after retries", "chunk", docCtx.ChunkIndex, "err", lastErr)
		return nil, ai.NewCapabilityError("analyze", lastErr, false)
	}

	result := a.convert(payload)
	a.logger.Debug("analyzed chunk",
		"chunk", docCtx.ChunkIndex,
		"themes", len(result.Themes),
		"quotes", len(result.Quotes),
		"insights", len(result.Insights))
	return result, nil
}

// convert maps the wire payload into ai.ChunkAnalysis, clamping scores,
// filtering weak themes, and sorting themes by confidence descending.
func (a *Analyzer) convert(payload analysisPayload) *ai.ChunkAnalysis {
	result := &ai.ChunkAnalysis{Summary: strings.TrimSpace(payload.Summary)}

	for _, t := range payload.Themes {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		confidence := clampScore(t.Confidence)
		if confidence < a.minThemeConfidence {
			continue
		}
		result.Themes = append(result.Themes, ai.ExtractedTheme{
			Name:       name,
			Confidence: confidence,
			Evidence:   t.Evidence,
		})
	}
	slices.SortFunc(result.Themes, func(x, y ai.ExtractedTheme) int {
		if x.Confidence == y.Confidence {
			return 0
		}
		if x.Confidence < y.Confidence {
			return 1
		}
		return -1
	})

	for _, q := range payload.Quotes {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		result.Quotes = append(result.Quotes, ai.ExtractedQuote{
			Text:        text,
			Speaker:     strings.TrimSpace(q.Speaker),
			Confidence:  clampScore(q.Confidence),
			Sensitivity: strings.ToLower(strings.TrimSpace(q.Sensitivity)),
		})
	}

	for _, i := range payload.Insights {
		text := strings.TrimSpace(i.Text)
		if text == "" {
			continue
		}
		result.Insights = append(result.Insights, ai.ExtractedInsight{
			Text:       text,
			Category:   strings.ToLower(strings.TrimSpace(i.Category)),
			Importance: clampScore(i.Importance),
		})
	}

	for _, k := range payload.Keywords {
		term := strings.ToLower(strings.TrimSpace(k.Term))
		if term == "" {
			continue
		}
		frequency := k.Frequency
		if frequency < 1 {
			frequency = 1
		}
		result.Keywords = append(result.Keywords, ai.ExtractedKeyword{
			Term:      term,
			Frequency: frequency,
		})
	}

	return result
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
