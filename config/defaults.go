package config

// ApplyDefaults sets default values for any zero values in cfg.
// The numbers mirror the package-level defaults of the components they
// configure, so an empty file and no file at all behave the same.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = ".distill/db"
	}
	if cfg.Chunking.MaxChunkSize == 0 {
		cfg.Chunking.MaxChunkSize = 2000
	}
	if cfg.Chunking.OverlapSize == 0 {
		cfg.Chunking.OverlapSize = 200
	}
	if cfg.Chunking.MinChunkSize == 0 {
		cfg.Chunking.MinChunkSize = 100
	}
	if cfg.Scheduler.QueueCapacity == 0 {
		cfg.Scheduler.QueueCapacity = 1000
	}
	if cfg.Scheduler.MaxConcurrentJobs == 0 {
		cfg.Scheduler.MaxConcurrentJobs = 3
	}
	if cfg.Scheduler.MemoryThresholdMB == 0 {
		cfg.Scheduler.MemoryThresholdMB = 512
	}
	if cfg.Scheduler.MinTimeoutSeconds == 0 {
		cfg.Scheduler.MinTimeoutSeconds = 30
	}
	if cfg.Scheduler.MaxTimeoutSeconds == 0 {
		cfg.Scheduler.MaxTimeoutSeconds = 600
	}
	if cfg.Cache.MaxSizeMB == 0 {
		cfg.Cache.MaxSizeMB = 64
	}
	if cfg.Cache.MaxAgeMinutes == 0 {
		cfg.Cache.MaxAgeMinutes = 30
	}
	if cfg.Summary.Policy == "" {
		cfg.Summary.Policy = "auto"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf", ".docx"}
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 500
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
