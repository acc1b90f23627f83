package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/storyloom/distill/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// summaryInputLimit caps how much document text is sent to the model for
// whole-document summarization. Longer documents are clipped from the front;
// the opening of a transcript or report carries most of the framing.
const summaryInputLimit = 24000

// Summarizer implements ai.Summarizer using OpenAI-compatible chat APIs.
type Summarizer struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newSummarizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSummarizer(config *ai.Config) (*Summarizer, error) {
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

	return &Summarizer{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-summarizer"),
	}, nil
}

// NewSummarizer creates a new document summarizer using the provided
// configuration.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	return newSummarizer(config)
}

// Summarize produces a short prose summary of the full document text.
// The response is plain text, not JSON.
func (s *Summarizer) Summarize(ctx context.Context, fullText, title string) (string, error) {
	if strings.TrimSpace(fullText) == "" {
		return "", ai.NewCapabilityError("summarize", ai.ErrEmptyInput, false)
	}
	fullText = truncateRunes(fullText, summaryInputLimit)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(summaryPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSummaryMessage(title, fullText)),
			},
		},
	}

	response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(s.temperature))
	if err != nil {
		s.logger.Error("failed to generate summary", "err", err)
		return "", ai.NewCapabilityError("summarize", err, isTransientErr(err))
	}

	if len(response.Choices) < 1 {
		return "", nil
	}

	summary := strings.TrimSpace(response.Choices[0].Content)
	s.logger.Debug("summarized document", "title", title, "chars", len(summary))
	return summary, nil
}
