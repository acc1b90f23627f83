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


// Package scheduler runs pipeline jobs through a priority queue with a
// concurrency cap and memory-based admission control.
//
// Jobs move Queued -> Processing -> Completed or Failed, never skipping or
// reversing a state. Dispatch picks the highest-priority queued job whenever
// a worker slot is free and the memory gauge reads under threshold; over
// threshold the scheduler asks the cache to shed entries and re-reads once
// before leaving jobs queued. A single mutex owns the queue, the active set,
// and the history ring, so status reads never observe torn state.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/storyloom/distill/cache"
)

// Defaults for Config fields left zero.
const (
	DefaultQueueCapacity     = 1000
	DefaultMaxConcurrentJobs = 3
	DefaultMemoryThreshold   = 512 << 20 // bytes of heap
	DefaultMinTimeout        = 30 * time.Second
	DefaultMaxTimeout        = 10 * time.Minute

	historyCapacity = 100
)

// Executor performs one kind of job. Implementations honor ctx cancellation;
// the scheduler derives a deadline from the job's duration estimate. The job
// is read-only to the executor.
type Executor interface {
	Execute(ctx context.Context, job *Job) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, job *Job) error

func (f ExecutorFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// Config bounds the scheduler's queue, concurrency, memory and timeouts.
type Config struct {
	QueueCapacity     int
	MaxConcurrentJobs int
	MemoryThreshold   uint64
	MinTimeout        time.Duration
	MaxTimeout        time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.MaxConcurrentJobs <= 0 {
		c.MaxConcurrentJobs = DefaultMaxConcurrentJobs
	}
	if c.MemoryThreshold == 0 {
		c.MemoryThreshold = DefaultMemoryThreshold
	}
	if c.MinTimeout <= 0 {
		c.MinTimeout = DefaultMinTimeout
	}
	if c.MaxTimeout <= 0 {
		c.MaxTimeout = DefaultMaxTimeout
	}
	return c
}

// Metrics is a consistent snapshot of scheduler counters.
type Metrics struct {
	Queued            int
	Active            int
	Completed         int
	Failed            int
	AvgProcessingTime time.Duration
	CacheSize         int64
}

// dispatchOrder scans tiers from most to least urgent.
var dispatchOrder = [...]Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Scheduler owns all accepted jobs and the collections that track them.
type Scheduler struct {
	cfg    Config
	cache  *cache.Cache
	gauge  func() uint64
	logger *slog.Logger
	pool   *ants.Pool
	now    func() time.Time

	mu        sync.Mutex
	queues    map[Priority][]*Job
	queued    map[string]*Job
	active    map[string]*Job
	history   []*Job
	historyAt int
	executors map[JobType]Executor
	closed    bool

	completed       int
	failed          int
	totalProcessing time.Duration

	wg sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithConfig replaces the default bounds.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) error {
		s.cfg = cfg
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "scheduler")
		return nil
	}
}

// WithMemoryGauge replaces the heap gauge used for admission control.
// The default reads runtime.MemStats.HeapAlloc.
func WithMemoryGauge(gauge func() uint64) Option {
	return func(s *Scheduler) error {
		if gauge == nil {
			return errors.New("nil memory gauge")
		}
		s.gauge = gauge
		return nil
	}
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

// New creates a scheduler backed by c for memory-pressure eviction and the
// cacheSize metric. c may be nil.
func New(c *cache.Cache, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		cache:     c,
		gauge:     heapAlloc,
		logger:    slog.Default().With("component", "scheduler"),
		now:       time.Now,
		queues:    make(map[Priority][]*Job),
		queued:    make(map[string]*Job),
		active:    make(map[string]*Job),
		history:   make([]*Job, 0, historyCapacity),
		executors: make(map[JobType]Executor),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.cfg = s.cfg.withDefaults()

	// The active-set check in dispatchLocked enforces the concurrency cap.
	// The pool carries handoff headroom because a finishing worker still
	// holds its slot while it dispatches the successor job. Nonblocking so
	// a full pool surfaces as an error instead of blocking under the mutex.
	pool, err := ants.NewPool(2*s.cfg.MaxConcurrentJobs, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	s.pool = pool
	return s, nil
}

// RegisterExecutor installs the executor for a job type, replacing any
// previous one.
func (s *Scheduler) RegisterExecutor(t JobType, e Executor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executors[t] = e
}

// Submit admits a job into the queue and dispatches if capacity allows.
// A full queue or a closed scheduler refuses the job with a SchedulingError.
func (s *Scheduler) Submit(job *Job) error {
	if job == nil {
		return &SchedulingError{Err: errors.New("nil job")}
	}
	if job.Priority < PriorityLow || job.Priority > PriorityCritical {
		job.Priority = PriorityMedium
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &SchedulingError{JobId: job.Id, Err: ErrSchedulerClosed}
	}
	if len(s.queued) >= s.cfg.QueueCapacity {
		return &SchedulingError{JobId: job.Id, Err: ErrQueueFull}
	}

	job.Status = StatusQueued
	job.EnqueuedAt = s.now()
	job.Estimate = estimateDuration(job.Type, job.FileSize)
	s.queues[job.Priority] = append(s.queues[job.Priority], job)
	s.queued[job.Id] = job

	s.logger.Debug("job queued",
		"job", job.Id,
		"type", job.Type.String(),
		"priority", job.Priority.String(),
		"estimate", job.Estimate)

	s.dispatchLocked()
	return nil
}

// Cancel removes a still-queued job, marking it Failed with ErrJobCancelled.
// In-flight jobs are not cancellable.
func (s *Scheduler) Cancel(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.queued[jobID]
	if !ok {
		if _, running := s.active[jobID]; running {
			return fmt.Errorf("%w: %s", ErrJobRunning, jobID)
		}
		return fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}

	q := s.queues[job.Priority]
	for i := range q {
		if q[i].Id == jobID {
			s.queues[job.Priority] = append(q[:i], q[i+1:]...)
			break
		}
	}
	delete(s.queued, jobID)

	job.Status = StatusFailed
	job.Err = ErrJobCancelled
	job.FinishedAt = s.now()
	s.failed++
	s.pushHistoryLocked(job)

	s.logger.Debug("job cancelled", "job", jobID)
	return nil
}

// Status reports the current state of a queued, active, or recently finished
// job. Jobs evicted from the history ring report ErrUnknownJob.
func (s *Scheduler) Status(jobID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.queued[jobID]; ok {
		return job.snapshot(), nil
	}
	if job, ok := s.active[jobID]; ok {
		return job.snapshot(), nil
	}
	for _, job := range s.history {
		if job.Id == jobID {
			return job.snapshot(), nil
		}
	}
	return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
}

// History returns snapshots of recently finished jobs, most recent first.
// The ring holds the last hundred; older jobs are gone.
func (s *Scheduler) History() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Snapshot, 0, len(s.history))
	for i := 1; i <= len(s.history); i++ {
		idx := (s.historyAt - i + len(s.history)) % len(s.history)
		out = append(out, s.history[idx].snapshot())
	}
	return out
}

// Metrics returns scheduler counters. AvgProcessingTime covers completed
// jobs only.
func (s *Scheduler) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Metrics{
		Queued:    len(s.queued),
		Active:    len(s.active),
		Completed: s.completed,
		Failed:    s.failed,
	}
	if s.completed > 0 {
		m.AvgProcessingTime = s.totalProcessing / time.Duration(s.completed)
	}
	if s.cache != nil {
		m.CacheSize = s.cache.TotalSize()
	}
	return m
}

// Close refuses new submissions, waits for in-flight jobs, and releases the
// worker pool. Jobs still queued stay queued and remain visible via Status.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	s.pool.Release()
	return nil
}

// dispatchLocked starts queued jobs while worker slots and memory allow.
// Caller holds the mutex. Runs as a loop so chained completions never grow
// the stack.
func (s *Scheduler) dispatchLocked() {
	for !s.closed && len(s.active) < s.cfg.MaxConcurrentJobs {
		var job *Job
		for _, p := range dispatchOrder {
			if q := s.queues[p]; len(q) > 0 {
				job = q[0]
				break
			}
		}
		if job == nil {
			return
		}
		if !s.memoryAllowsLocked() {
			return
		}

		s.queues[job.Priority] = s.queues[job.Priority][1:]
		delete(s.queued, job.Id)
		s.startLocked(job)
	}
}

// memoryAllowsLocked reads the gauge; over threshold it sheds cache entries
// and re-reads once before reporting backpressure.
func (s *Scheduler) memoryAllowsLocked() bool {
	usage := s.gauge()
	if usage < s.cfg.MemoryThreshold {
		return true
	}
	if s.cache != nil {
		s.cache.Optimize()
	}
	usage = s.gauge()
	if usage < s.cfg.MemoryThreshold {
		return true
	}
	s.logger.Warn("memory over threshold, leaving jobs queued",
		"heapBytes", usage,
		"threshold", s.cfg.MemoryThreshold)
	return false
}

func (s *Scheduler) startLocked(job *Job) {
	exec, ok := s.executors[job.Type]
	if !ok {
		job.Status = StatusFailed
		job.Err = &SchedulingError{JobId: job.Id, Err: fmt.Errorf("%w: %s", ErrNoExecutor, job.Type)}
		job.FinishedAt = s.now()
		s.failed++
		s.pushHistoryLocked(job)
		s.logger.Warn("job failed at dispatch", "job", job.Id, "type", job.Type.String(), "err", job.Err)
		return
	}

	job.Status = StatusProcessing
	job.StartedAt = s.now()
	s.active[job.Id] = job
	s.wg.Add(1)

	if err := s.pool.Submit(func() { s.run(job, exec) }); err != nil {
		delete(s.active, job.Id)
		s.wg.Done()
		job.Status = StatusFailed
		job.Err = &SchedulingError{JobId: job.Id, Err: err}
		job.FinishedAt = s.now()
		s.failed++
		s.pushHistoryLocked(job)
		s.logger.Error("worker pool refused job", "job", job.Id, "err", err)
	}
}

// run executes a job under its timeout bound, then records completion.
// Runs on a pool worker, outside the mutex.
func (s *Scheduler) run(job *Job, exec Executor) {
	defer s.wg.Done()

	limit := timeoutFor(job.Estimate, s.cfg.MinTimeout, s.cfg.MaxTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), limit)
	err := exec.Execute(ctx, job)
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
	cancel()

	if err != nil && timedOut {
		err = &TimeoutError{JobId: job.Id, Limit: limit}
	}
	s.complete(job, err)
}

func (s *Scheduler) complete(job *Job, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, job.Id)
	job.FinishedAt = s.now()

	if err != nil {
		job.Status = StatusFailed
		job.Err = err
		s.failed++
		s.logger.Warn("job failed",
			"job", job.Id,
			"type", job.Type.String(),
			"err", err)
	} else {
		job.Status = StatusCompleted
		s.completed++
		s.totalProcessing += job.FinishedAt.Sub(job.StartedAt)
		s.logger.Debug("job completed",
			"job", job.Id,
			"type", job.Type.String(),
			"duration", job.FinishedAt.Sub(job.StartedAt))
	}

	s.pushHistoryLocked(job)
	s.dispatchLocked()
}

// pushHistoryLocked appends to the bounded history ring, overwriting the
// oldest entry once full.
func (s *Scheduler) pushHistoryLocked(job *Job) {
	if len(s.history) < historyCapacity {
		s.history = append(s.history, job)
		return
	}
	s.history[s.historyAt] = job
	s.historyAt = (s.historyAt + 1) % historyCapacity
}
