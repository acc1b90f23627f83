package scheduler

import (
	"time"

	"github.com/google/uuid"
	"github.com/storyloom/distill/core"
)

// JobType identifies the kind of work a job performs.
type JobType int

const (
	JobExtraction JobType = iota + 1
	JobChunking
	JobAnalysis
	JobThumbnailing
)

func (t JobType) String() string {
	switch t {
	case JobExtraction:
		return "extraction"
	case JobChunking:
		return "chunking"
	case JobAnalysis:
		return "analysis"
	case JobThumbnailing:
		return "thumbnailing"
	default:
		return "unknown"
	}
}

// Priority orders jobs for dispatch. Higher values dispatch first.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParsePriority maps a priority name to its value. Unknown names map to
// PriorityMedium.
func ParsePriority(s string) Priority {
	switch s {
	case "low":
		return PriorityLow
	case "medium":
		return PriorityMedium
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// JobStatus tracks a job through its lifecycle:
// Queued, then Processing, then exactly one of Completed or Failed.
type JobStatus int

const (
	StatusQueued JobStatus = iota + 1
	StatusProcessing
	StatusCompleted
	StatusFailed
)

func (s JobStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Job is a unit of pipeline work. The scheduler owns every Job it has
// accepted; callers read state through Status snapshots.
type Job struct {
	Id         string
	DocumentId core.ID
	Type       JobType
	Priority   Priority
	FileSize   int64 // bytes, drives the duration estimate
	Status     JobStatus
	EnqueuedAt time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Estimate   time.Duration
	Err        error
}

// NewJob creates a queued job for a document.
func NewJob(documentID core.ID, jobType JobType, priority Priority, fileSize int64) *Job {
	return &Job{
		Id:         uuid.NewString(),
		DocumentId: documentID,
		Type:       jobType,
		Priority:   priority,
		FileSize:   fileSize,
		Status:     StatusQueued,
	}
}

// Snapshot is a point-in-time copy of a job's state, safe to hold after the
// scheduler moves on.
type Snapshot struct {
	Id         string
	DocumentId core.ID
	Type       JobType
	Priority   Priority
	Status     JobStatus
	EnqueuedAt time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Estimate   time.Duration
	Err        error
}

func (j *Job) snapshot() Snapshot {
	return Snapshot{
		Id:         j.Id,
		DocumentId: j.DocumentId,
		Type:       j.Type,
		Priority:   j.Priority,
		Status:     j.Status,
		EnqueuedAt: j.EnqueuedAt,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		Estimate:   j.Estimate,
		Err:        j.Err,
	}
}
