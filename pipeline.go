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


// Package distill turns community documents into themes, quotes, insights
// and keywords. The Pipeline facade wires storage, the analysis cache, the
// language capability and the job scheduler into one unit; callers submit
// documents or files and read results back by document ID.
package distill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/ai/openai"
	"github.com/storyloom/distill/analysis"
	"github.com/storyloom/distill/cache"
	"github.com/storyloom/distill/config"
	"github.com/storyloom/distill/core"
	"github.com/storyloom/distill/extract"
	"github.com/storyloom/distill/scheduler"
	"github.com/storyloom/distill/search"
	"github.com/storyloom/distill/storage"
	"github.com/storyloom/distill/storage/badger"
)

var (
	// ErrEmptyDocument indicates a submission with no usable text.
	ErrEmptyDocument = errors.New("empty document text")

	// ErrNoEmbedder indicates a similarity query without an embedding
	// capability configured.
	ErrNoEmbedder = errors.New("no embedding capability configured")
)

// Pipeline is the document analysis system assembled end to end.
type Pipeline struct {
	cfg        *config.Config
	backend    *badger.Backend
	documents  storage.DocumentRepository
	artifacts  storage.ArtifactRepository
	provider   ai.Provider
	cache      *cache.Cache
	sched      *scheduler.Scheduler
	extractor  *extract.Extractor
	invoker    *analysis.Invoker
	aggregator *analysis.Aggregator
	searcher   *search.Searcher
	logger     *slog.Logger

	// payloads carries per-job inputs the scheduler does not transport:
	// the source path of an extraction job, and once extraction ran, the
	// document it produced and the analysis job it chained to.
	mu       sync.Mutex
	payloads map[string]*jobPayload
}

type jobPayload struct {
	path       string
	documentID core.ID
	nextJob    string
}

// Option configures a Pipeline.
type Option func(*pipelineOptions)

type pipelineOptions struct {
	cfg         *config.Config
	provider    ai.Provider
	providerSet bool
	gauge       func() uint64
}

// WithConfig supplies the pipeline configuration. Zero fields are filled
// with defaults.
func WithConfig(cfg *config.Config) Option {
	return func(o *pipelineOptions) {
		o.cfg = cfg
	}
}

// WithProvider supplies the language capability provider. Passing nil runs
// the pipeline in fallback-only mode: rule-based analysis, no embeddings.
// Without this option the provider is built from the AI config section.
func WithProvider(provider ai.Provider) Option {
	return func(o *pipelineOptions) {
		o.provider = provider
		o.providerSet = true
	}
}

// WithMemoryGauge replaces the scheduler's heap gauge used for admission
// control.
func WithMemoryGauge(gauge func() uint64) Option {
	return func(o *pipelineOptions) {
		o.gauge = gauge
	}
}

// New opens the storage at path and wires the full pipeline. An empty path
// uses the configured storage location; the in-memory flag in the storage
// config bypasses the filesystem entirely.
func New(path string, opts ...Option) (*Pipeline, error) {
	options := &pipelineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	cfg := options.cfg
	if cfg == nil {
		cfg = &config.Config{}
	}
	config.ApplyDefaults(cfg)

	if path == "" {
		path = cfg.Storage.Path
	}
	backend, err := badger.OpenBackend(path, cfg.Storage.InMemory)
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	artifacts, err := badger.NewArtifactRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if !options.providerSet && cfg.AI.EnabledOrDefault() {
		provider, err = openai.NewProvider(capabilityConfig(&cfg.AI))
		if err != nil {
			artifacts.Close()
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	resultCache := cache.New(
		int64(cfg.Cache.MaxSizeMB)<<20,
		time.Duration(cfg.Cache.MaxAgeMinutes)*time.Minute,
	)

	schedOpts := []scheduler.Option{
		scheduler.WithConfig(scheduler.Config{
			QueueCapacity:     cfg.Scheduler.QueueCapacity,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			MemoryThreshold:   uint64(cfg.Scheduler.MemoryThresholdMB) << 20,
			MinTimeout:        time.Duration(cfg.Scheduler.MinTimeoutSeconds) * time.Second,
			MaxTimeout:        time.Duration(cfg.Scheduler.MaxTimeoutSeconds) * time.Second,
		}),
	}
	if options.gauge != nil {
		schedOpts = append(schedOpts, scheduler.WithMemoryGauge(options.gauge))
	}
	sched, err := scheduler.New(resultCache, schedOpts...)
	if err != nil {
		if provider != nil {
			provider.Close()
		}
		artifacts.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	p := &Pipeline{
		cfg:        cfg,
		backend:    backend,
		documents:  documents,
		artifacts:  artifacts,
		provider:   provider,
		cache:      resultCache,
		sched:      sched,
		extractor:  extract.NewExtractor(),
		aggregator: analysis.NewAggregator(),
		logger:     slog.Default().With("component", "pipeline"),
		payloads:   make(map[string]*jobPayload),
	}
	if provider != nil {
		p.invoker = analysis.NewInvoker(provider.Analyzer(), 0)
		p.searcher, err = search.NewSearcher(documents, artifacts, provider.Embedder())
		if err != nil {
			p.Close()
			return nil, err
		}
	}

	sched.RegisterExecutor(scheduler.JobExtraction, scheduler.ExecutorFunc(p.runExtraction))
	sched.RegisterExecutor(scheduler.JobChunking, scheduler.ExecutorFunc(p.runChunking))
	sched.RegisterExecutor(scheduler.JobAnalysis, scheduler.ExecutorFunc(p.runAnalysis))
	// JobThumbnailing stays unregistered here; an application that renders
	// previews registers its own executor for it.

	return p, nil
}

// capabilityConfig maps the AI config section onto the capability layer,
// leaving defaults in place for unset fields.
func capabilityConfig(section *config.AIConfig) *ai.Config {
	var opts []ai.ConfigOption
	if section.Host != "" {
		opts = append(opts, ai.WithHost(section.Host))
	}
	if section.AnalysisModel != "" {
		opts = append(opts, ai.WithAnalysisModel(section.AnalysisModel))
	}
	if section.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(section.EmbeddingModel))
	}
	if section.Temperature > 0 {
		opts = append(opts, ai.WithTemperature(section.Temperature))
	}
	if section.APIKey != "" {
		opts = append(opts, ai.WithAPIKey(section.APIKey))
	}
	return ai.NewConfig(opts...)
}

// SubmitOption configures a single submission.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	priority scheduler.Priority
}

// WithPriority places the job in the given dispatch tier.
// Default is PriorityMedium.
func WithPriority(priority scheduler.Priority) SubmitOption {
	return func(o *submitOptions) {
		o.priority = priority
	}
}

func newSubmitOptions(opts []SubmitOption) submitOptions {
	o := submitOptions{priority: scheduler.PriorityMedium}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SubmitDocument stores the text as a document and queues its analysis,
// returning the job ID. The document ID derives from the content, so
// submitting identical text reuses the existing record and re-runs
// analysis over it.
func (p *Pipeline) SubmitDocument(ctx context.Context, title, text string, opts ...SubmitOption) (string, error) {
	o := newSubmitOptions(opts)

	doc, err := p.ensureDocument(ctx, title, text, "")
	if err != nil {
		return "", err
	}

	job := scheduler.NewJob(doc.Id, scheduler.JobAnalysis, o.priority, int64(len(text)))
	if err := p.sched.Submit(job); err != nil {
		return "", err
	}
	p.logger.Debug("document submitted", "document", doc.Id, "job", job.Id, "title", title)
	return job.Id, nil
}

// SubmitFile queues extraction of the file at path; the extraction job
// chains an analysis job for the extracted text. Status on the returned
// job ID reports the chained job once extraction finishes.
func (p *Pipeline) SubmitFile(ctx context.Context, path string, opts ...SubmitOption) (string, error) {
	o := newSubmitOptions(opts)

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	job := scheduler.NewJob(0, scheduler.JobExtraction, o.priority, info.Size())

	p.mu.Lock()
	p.prunePayloadsLocked()
	p.payloads[job.Id] = &jobPayload{path: path}
	p.mu.Unlock()

	if err := p.sched.Submit(job); err != nil {
		p.mu.Lock()
		delete(p.payloads, job.Id)
		p.mu.Unlock()
		return "", err
	}
	p.logger.Debug("file submitted", "path", path, "job", job.Id)
	return job.Id, nil
}

// Rechunk re-splits a stored document with the current chunking settings,
// replacing its stored chunks. Embeddings are not regenerated.
func (p *Pipeline) Rechunk(ctx context.Context, documentID core.ID, opts ...SubmitOption) (string, error) {
	o := newSubmitOptions(opts)

	doc, err := p.documents.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}

	job := scheduler.NewJob(doc.Id, scheduler.JobChunking, o.priority, int64(len(doc.Text)))
	if err := p.sched.Submit(job); err != nil {
		return "", err
	}
	return job.Id, nil
}

// ensureDocument stores a document keyed by its content hash. Identical
// content reuses the existing record; the first submission's title and
// source stick.
func (p *Pipeline) ensureDocument(ctx context.Context, title, text, source string) (*core.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	doc := &core.Document{
		Id:     core.IDFromContent(text),
		Title:  title,
		Text:   text,
		Source: source,
	}
	created, err := p.documents.CreateDocument(ctx, doc)
	if errors.Is(err, storage.ErrDuplicateID) {
		return p.documents.GetDocument(ctx, doc.Id)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// JobInfo is a job snapshot plus the links a file submission acquires once
// extraction has run: the document it produced and the analysis job that
// took over.
type JobInfo struct {
	scheduler.Snapshot
	NextJob string
}

// Status reports the state of a queued, active, or recently finished job.
func (p *Pipeline) Status(jobID string) (JobInfo, error) {
	snap, err := p.sched.Status(jobID)
	if err != nil {
		return JobInfo{}, err
	}
	info := JobInfo{Snapshot: snap}

	p.mu.Lock()
	if payload, ok := p.payloads[jobID]; ok {
		if info.DocumentId == 0 {
			info.DocumentId = payload.documentID
		}
		info.NextJob = payload.nextJob
	}
	p.mu.Unlock()
	return info, nil
}

// Metrics returns scheduler counters and the cache size.
func (p *Pipeline) Metrics() scheduler.Metrics {
	return p.sched.Metrics()
}

// History returns recently finished jobs, most recent first.
func (p *Pipeline) History() []scheduler.Snapshot {
	return p.sched.History()
}

// Document retrieves a stored document by ID.
func (p *Pipeline) Document(ctx context.Context, id core.ID) (*core.Document, error) {
	return p.documents.GetDocument(ctx, id)
}

// Documents lists up to limit stored documents, most recently created first.
func (p *Pipeline) Documents(ctx context.Context, limit int) ([]*core.Document, error) {
	return p.documents.ListDocuments(ctx, limit)
}

// Results retrieves the aggregated analysis result for a document.
// Returns storage.ErrNotFound if analysis has not completed.
func (p *Pipeline) Results(ctx context.Context, id core.ID) (*core.AggregatedResult, error) {
	return p.artifacts.GetAggregatedResult(ctx, id)
}

// SimilarChunks embeds the query text and returns the topK stored chunks
// nearest to it, highest score first. Requires an embedding capability.
func (p *Pipeline) SimilarChunks(ctx context.Context, text string, topK int) ([]core.SimilarChunk, error) {
	if p.provider == nil {
		return nil, ErrNoEmbedder
	}
	vector, err := p.provider.Embedder().EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return p.artifacts.FindSimilarChunks(ctx, core.NormalizeVector(vector), topK)
}

// Search runs a hybrid semantic and keyword search over stored documents
// and returns up to maxHits results, best first. Requires an embedding
// capability; keyword-only matching still reaches documents analyzed by
// the fallback.
func (p *Pipeline) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	if p.searcher == nil {
		return nil, ErrNoEmbedder
	}
	return p.searcher.FindSimilar(ctx, query, maxHits)
}

// Close stops the scheduler, then releases the capability provider, the
// repositories, and the storage backend.
func (p *Pipeline) Close() error {
	if err := p.sched.Close(); err != nil {
		p.logger.Error("error closing scheduler", "err", err)
	}

	if p.provider != nil {
		if err := p.provider.Close(); err != nil {
			p.logger.Error("error closing capability provider", "err", err)
		}
	}

	if err := p.artifacts.Close(); err != nil {
		p.logger.Error("error closing artifact repository", "err", err)
		return err
	}
	if err := p.documents.Close(); err != nil {
		p.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := p.backend.Close(); err != nil {
		p.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// prunePayloadsLocked drops payload entries for jobs the scheduler has
// already evicted from its history. Caller holds p.mu.
func (p *Pipeline) prunePayloadsLocked() {
	for id := range p.payloads {
		if _, err := p.sched.Status(id); errors.Is(err, scheduler.ErrUnknownJob) {
			delete(p.payloads, id)
		}
	}
}

func (p *Pipeline) payload(jobID string) (*jobPayload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	payload, ok := p.payloads[jobID]
	return payload, ok
}

func (p *Pipeline) recordChain(jobID string, documentID core.ID, nextJob string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if payload, ok := p.payloads[jobID]; ok {
		payload.documentID = documentID
		payload.nextJob = nextJob
	}
}

// filenameTitle derives a document title from a file path.
func filenameTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
