// Package config provides YAML configuration loading for the distill pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the pipeline and CLI.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Storage   StorageConfig   `yaml:"storage"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Cache     CacheConfig     `yaml:"cache"`
	AI        AIConfig        `yaml:"ai"`
	Summary   SummaryConfig   `yaml:"summary"`
	Watch     WatchConfig     `yaml:"watch"`
}

// StorageConfig holds the database location.
type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// ChunkingConfig holds document splitting sizes, in runes.
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	OverlapSize  int `yaml:"overlap_size"`
	MinChunkSize int `yaml:"min_chunk_size"`
}

// SchedulerConfig holds job queue and admission limits.
type SchedulerConfig struct {
	QueueCapacity     int `yaml:"queue_capacity"`
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`
	MemoryThresholdMB int `yaml:"memory_threshold_mb"`
	MinTimeoutSeconds int `yaml:"min_timeout_seconds"`
	MaxTimeoutSeconds int `yaml:"max_timeout_seconds"`
}

// CacheConfig bounds the analysis result cache.
type CacheConfig struct {
	MaxSizeMB     int `yaml:"max_size_mb"`
	MaxAgeMinutes int `yaml:"max_age_minutes"`
}

// AIConfig holds language capability settings. The API key may be left
// empty in the file; the capability layer falls back to OPENAI_API_KEY.
type AIConfig struct {
	Enabled        *bool   `yaml:"enabled"`
	Host           string  `yaml:"host"`
	AnalysisModel  string  `yaml:"analysis_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float64 `yaml:"temperature"`
	APIKey         string  `yaml:"api_key"`
}

// EnabledOrDefault returns whether the capability is enabled; defaults to
// true when unset.
func (a *AIConfig) EnabledOrDefault() bool {
	if a.Enabled != nil {
		return *a.Enabled
	}
	return true
}

// SummaryConfig controls how document summaries are produced.
// Policy is one of "auto" (regenerate when a capability is available,
// concatenate otherwise), "concat", or "regenerate".
type SummaryConfig struct {
	Policy string `yaml:"policy"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	DebounceMS  int      `yaml:"debounce_ms"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies defaults, and
// expands paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.Path = expandPath(cfg.Storage.Path, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects configurations no component could run with.
func (c *Config) Validate() error {
	if c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("config: max_chunk_size %d must be positive", c.Chunking.MaxChunkSize)
	}
	if c.Chunking.OverlapSize < 0 {
		return fmt.Errorf("config: overlap_size %d must not be negative", c.Chunking.OverlapSize)
	}
	if c.Chunking.OverlapSize >= c.Chunking.MaxChunkSize {
		return fmt.Errorf("config: overlap_size %d must be smaller than max_chunk_size %d",
			c.Chunking.OverlapSize, c.Chunking.MaxChunkSize)
	}
	if c.Cache.MaxSizeMB < 0 {
		return fmt.Errorf("config: cache max_size_mb %d must not be negative", c.Cache.MaxSizeMB)
	}
	if c.Cache.MaxAgeMinutes < 0 {
		return fmt.Errorf("config: cache max_age_minutes %d must not be negative", c.Cache.MaxAgeMinutes)
	}
	if c.Scheduler.QueueCapacity < 0 || c.Scheduler.MaxConcurrentJobs < 0 {
		return fmt.Errorf("config: scheduler limits must not be negative")
	}
	if c.Scheduler.MinTimeoutSeconds < 0 || c.Scheduler.MaxTimeoutSeconds < 0 {
		return fmt.Errorf("config: scheduler timeouts must not be negative")
	}
	if c.Scheduler.MaxTimeoutSeconds > 0 && c.Scheduler.MinTimeoutSeconds > c.Scheduler.MaxTimeoutSeconds {
		return fmt.Errorf("config: min_timeout_seconds %d exceeds max_timeout_seconds %d",
			c.Scheduler.MinTimeoutSeconds, c.Scheduler.MaxTimeoutSeconds)
	}
	switch c.Summary.Policy {
	case "auto", "concat", "regenerate":
	default:
		return fmt.Errorf("config: summary policy %q must be auto, concat, or regenerate", c.Summary.Policy)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("config: watch debounce_ms %d must not be negative", c.Watch.DebounceMS)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
