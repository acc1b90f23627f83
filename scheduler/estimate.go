package scheduler

import "time"

// Per-type base processing cost per megabyte of input. Analysis dominates
// because it waits on the language capability per chunk.
const (
	extractionCostPerMB   = 200 * time.Millisecond
	chunkingCostPerMB     = 50 * time.Millisecond
	analysisCostPerMB     = 2 * time.Second
	thumbnailingCostPerMB = 500 * time.Millisecond
	defaultCostPerMB      = time.Second

	// Files above this size carry a fixed startup overhead in the estimate.
	overheadThresholdBytes = 10 << 20
	overheadCost           = 2 * time.Second
)

// estimateDuration predicts processing time from file size and job type.
// Used for queue-time reporting and the timeout bound, never for admission.
func estimateDuration(t JobType, fileSize int64) time.Duration {
	var base time.Duration
	switch t {
	case JobExtraction:
		base = extractionCostPerMB
	case JobChunking:
		base = chunkingCostPerMB
	case JobAnalysis:
		base = analysisCostPerMB
	case JobThumbnailing:
		base = thumbnailingCostPerMB
	default:
		base = defaultCostPerMB
	}

	mb := float64(fileSize) / float64(1<<20)
	d := time.Duration(mb * float64(base))
	if fileSize > overheadThresholdBytes {
		d += overheadCost
	}
	return d
}

// timeoutFor bounds a job's execution at twice its estimate, clamped into
// [min, max].
func timeoutFor(estimate, min, max time.Duration) time.Duration {
	t := 2 * estimate
	if t < min {
		t = min
	}
	if t > max {
		t = max
	}
	return t
}
