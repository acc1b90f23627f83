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


package ai

import (
	"errors"
	"os"
	"strings"
)

// Config holds configuration for capability providers.
type Config struct {
	// AnalysisHost is the base URL for the chat/analysis service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	AnalysisHost string

	// EmbeddingHost is the base URL for the embedding service API.
	EmbeddingHost string

	// AnalysisModel is the model identifier used for chunk analysis and
	// summarization. Example: "qwen2.5:3b", "gpt-4o-mini"
	AnalysisModel string

	// EmbeddingModel is the model identifier used for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// APIKey authenticates against hosted services. When empty, Normalize
	// falls back to the OPENAI_API_KEY environment variable and then to
	// "none" for local services that skip authentication.
	APIKey string

	// Temperature for analysis calls. Low values keep extraction stable.
	// Default: 0.1
	Temperature float64

	// MinThemeConfidence filters out weakly supported themes at parse time.
	// Default: 0.3
	MinThemeConfidence float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets both analysis and embedding hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.AnalysisHost = host
		c.EmbeddingHost = host
	}
}

// WithAnalysisHost sets the analysis service host URL.
func WithAnalysisHost(host string) ConfigOption {
	return func(c *Config) {
		c.AnalysisHost = host
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithAnalysisModel sets the analysis model identifier.
func WithAnalysisModel(model string) ConfigOption {
	return func(c *Config) {
		c.AnalysisModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithAPIKey sets the API key used against hosted services.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTemperature sets the sampling temperature for analysis calls.
func WithTemperature(temp float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temp
	}
}

// WithMinThemeConfidence sets the minimum confidence for extracted themes.
func WithMinThemeConfidence(min float64) ConfigOption {
	return func(c *Config) {
		c.MinThemeConfidence = min
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. Both services use the same host by default.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		AnalysisHost:       defaultHost,
		EmbeddingHost:      defaultHost,
		AnalysisModel:      "qwen2.5:3b",
		EmbeddingModel:     "embeddinggemma",
		Temperature:        0.1,
		MinThemeConfidence: 0.3,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithAnalysisModel("gpt-4o-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form. It adds the /v1
// suffix to hosts if missing, which most OpenAI-compatible APIs (Ollama,
// LocalAI, vLLM) require, and resolves the API key fallback chain.
func (c *Config) Normalize() {
	if c.AnalysisHost != "" && !strings.HasSuffix(c.AnalysisHost, "/v1") {
		c.AnalysisHost = strings.TrimSuffix(c.AnalysisHost, "/")
		c.AnalysisHost = c.AnalysisHost + "/v1"
	}
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.APIKey == "" {
		// Local OpenAI-compatible services accept any token.
		c.APIKey = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.AnalysisHost == "" {
		return errors.New("ai config: AnalysisHost is required")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.AnalysisModel == "" {
		return errors.New("ai config: AnalysisModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MinThemeConfidence < 0 || c.MinThemeConfidence > 1 {
		return errors.New("ai config: MinThemeConfidence must be between 0 and 1")
	}
	return nil
}
