package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned (possibly wrapped) by scheduler operations.
var (
	ErrQueueFull       = errors.New("job queue at capacity")
	ErrSchedulerClosed = errors.New("scheduler closed")
	ErrJobCancelled    = errors.New("job cancelled")
	ErrNoExecutor      = errors.New("no executor registered for job type")
	ErrJobRunning      = errors.New("job already processing")
	ErrUnknownJob      = errors.New("unknown job id")
)

// SchedulingError wraps a failure to admit or dispatch a job.
type SchedulingError struct {
	JobId string
	Err   error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("schedule job %s: %v", e.JobId, e.Err)
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// TimeoutError marks a job that ran past its execution bound. It unwraps to
// context.DeadlineExceeded so callers can match either form.
type TimeoutError struct {
	JobId string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s exceeded %s execution bound", e.JobId, e.Limit)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}
