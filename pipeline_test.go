package distill

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/ai/mock"
	"github.com/storyloom/distill/config"
	"github.com/storyloom/distill/core"
	"github.com/storyloom/distill/scheduler"
	"github.com/storyloom/distill/storage"
)

const meetingNotes = `The community meeting opened with a discussion of youth programs.
Elder Martha said "we need more spaces for our kids to learn language".
Several parents agreed that the school needs more funding for culture camps.

The council discussed housing next. There is no housing for young families
returning to the community, and the waitlist has grown every single year.

Aunty June closed the meeting with "our stories keep us strong". Everyone
agreed the language nest program should continue through the winter months.`

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Storage.InMemory = true
	// Small chunks so the sample text splits into several.
	cfg.Chunking = config.ChunkingConfig{MaxChunkSize: 240, OverlapSize: 30, MinChunkSize: 60}
	config.ApplyDefaults(cfg)
	return cfg
}

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New("", append([]Option{WithConfig(testConfig())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// waitForJob blocks until the job reaches a terminal state.
func waitForJob(t *testing.T, p *Pipeline, jobID string) JobInfo {
	t.Helper()
	require.Eventually(t, func() bool {
		info, err := p.Status(jobID)
		if err != nil {
			return false
		}
		return info.Status == scheduler.StatusCompleted || info.Status == scheduler.StatusFailed
	}, 5*time.Second, 5*time.Millisecond)

	info, err := p.Status(jobID)
	require.NoError(t, err)
	return info
}

func TestNew(t *testing.T) {
	t.Run("wires components", func(t *testing.T) {
		p := newTestPipeline(t, WithProvider(nil))
		assert.NotNil(t, p.backend)
		assert.NotNil(t, p.documents)
		assert.NotNil(t, p.artifacts)
		assert.NotNil(t, p.cache)
		assert.NotNil(t, p.sched)
		assert.Nil(t, p.invoker, "no capability means no invoker")
	})

	t.Run("error when path is a file", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

		p, err := New(tmpFile, WithProvider(nil))
		assert.Error(t, err)
		assert.Nil(t, p)
	})
}

func TestPipeline_FallbackOnlyDocumentFlow(t *testing.T) {
	p := newTestPipeline(t, WithProvider(nil))
	ctx := context.Background()

	jobID, err := p.SubmitDocument(ctx, "Community Meeting Notes", meetingNotes)
	require.NoError(t, err)

	info := waitForJob(t, p, jobID)
	require.Equal(t, scheduler.StatusCompleted, info.Status)
	require.NoError(t, info.Err)
	require.NotZero(t, info.DocumentId)

	doc, err := p.Document(ctx, info.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentCompleted, doc.Status)
	assert.Equal(t, core.ProvenanceFallback, doc.Provenance)
	assert.Equal(t, "Community Meeting Notes", doc.Title)

	agg, err := p.Results(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ProvenanceFallback, agg.Provenance)
	assert.Greater(t, agg.ChunksAnalyzed, 1)
	assert.Zero(t, agg.ChunksFailed)
	assert.NotEmpty(t, agg.Summary)
	assert.NotEmpty(t, agg.Themes)
	assert.NotEmpty(t, agg.Keywords)

	chunks, err := p.artifacts.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	assert.Len(t, chunks, agg.ChunksAnalyzed)

	docs, err := p.Documents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.Id, docs[0].Id)
}

func TestPipeline_ProviderDocumentFlow(t *testing.T) {
	p := newTestPipeline(t, WithProvider(mock.NewMockProvider()))
	ctx := context.Background()

	jobID, err := p.SubmitDocument(ctx, "Annual Report", meetingNotes, WithPriority(scheduler.PriorityHigh))
	require.NoError(t, err)

	info := waitForJob(t, p, jobID)
	require.Equal(t, scheduler.StatusCompleted, info.Status)
	require.NoError(t, info.Err)

	doc, err := p.Document(ctx, info.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentCompleted, doc.Status)
	assert.Equal(t, core.ProvenanceAI, doc.Provenance)

	agg, err := p.Results(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ProvenanceAI, agg.Provenance)
	assert.NotEmpty(t, agg.Summary)

	chunks, err := p.artifacts.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, c.Vector, "chunk %d should carry an embedding", c.Index)
	}

	similar, err := p.SimilarChunks(ctx, "language programs for youth", 3)
	require.NoError(t, err)
	require.NotEmpty(t, similar)
	assert.Equal(t, doc.Id, similar[0].DocumentId)
}

func TestPipeline_CacheSkipsRepeatCapabilityCalls(t *testing.T) {
	analyzer := mock.NewMockAnalyzer()
	provider := mock.NewMockProviderWithServices(analyzer, mock.NewMockSummarizer(), mock.NewMockEmbedder())
	p := newTestPipeline(t, WithProvider(provider))
	ctx := context.Background()

	first, err := p.SubmitDocument(ctx, "Notes", meetingNotes)
	require.NoError(t, err)
	info := waitForJob(t, p, first)
	require.Equal(t, scheduler.StatusCompleted, info.Status)

	calls := analyzer.CallCount()
	require.Greater(t, calls, 0)

	second, err := p.SubmitDocument(ctx, "Notes resubmitted", meetingNotes)
	require.NoError(t, err)
	info = waitForJob(t, p, second)
	require.Equal(t, scheduler.StatusCompleted, info.Status)

	assert.Equal(t, calls, analyzer.CallCount(), "identical content should be served from the cache")

	doc, err := p.Document(ctx, info.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, core.ProvenanceAI, doc.Provenance, "cached capability results keep their provenance")
	assert.Equal(t, "Notes", doc.Title, "first submission's title sticks")
}

func TestPipeline_AllChunksFailFallsBack(t *testing.T) {
	analyzer := mock.NewMockAnalyzer()
	analyzer.AnalyzeChunkFunc = func(_ context.Context, _ string, _ ai.DocumentContext) (*ai.ChunkAnalysis, error) {
		return nil, &ai.CapabilityError{Op: "analyze", Err: errors.New("service down"), Transient: true}
	}
	provider := mock.NewMockProviderWithServices(analyzer, mock.NewMockSummarizer(), mock.NewMockEmbedder())
	p := newTestPipeline(t, WithProvider(provider))
	ctx := context.Background()

	jobID, err := p.SubmitDocument(ctx, "Flaky Capability", meetingNotes)
	require.NoError(t, err)

	info := waitForJob(t, p, jobID)
	require.Equal(t, scheduler.StatusCompleted, info.Status,
		"total capability failure degrades the document, it does not fail the job")

	doc, err := p.Document(ctx, info.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentCompleted, doc.Status)
	assert.Equal(t, core.ProvenanceFallback, doc.Provenance)

	agg, err := p.Results(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ProvenanceFallback, agg.Provenance)
	assert.Zero(t, agg.ChunksFailed, "fallback serves every chunk")
	assert.NotEmpty(t, agg.Summary)
}

func TestPipeline_PartialFailureDegrades(t *testing.T) {
	analyzer := mock.NewMockAnalyzer()
	analyzer.AnalyzeChunkFunc = func(_ context.Context, _ string, docCtx ai.DocumentContext) (*ai.ChunkAnalysis, error) {
		if docCtx.ChunkIndex == 0 {
			return nil, &ai.CapabilityError{Op: "analyze", Err: errors.New("rate limited"), Transient: true}
		}
		return &ai.ChunkAnalysis{
			Themes:  []ai.ExtractedTheme{{Name: "Housing", Confidence: 0.8, Evidence: []string{"the waitlist has grown"}}},
			Summary: "Housing pressure on young families.",
		}, nil
	}
	provider := mock.NewMockProviderWithServices(analyzer, mock.NewMockSummarizer(), mock.NewMockEmbedder())
	p := newTestPipeline(t, WithProvider(provider))
	ctx := context.Background()

	jobID, err := p.SubmitDocument(ctx, "Council Minutes", meetingNotes)
	require.NoError(t, err)

	info := waitForJob(t, p, jobID)
	require.Equal(t, scheduler.StatusCompleted, info.Status)

	agg, err := p.Results(ctx, info.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, core.ProvenanceAI, agg.Provenance, "surviving chunks carry the document")
	assert.Equal(t, 1, agg.ChunksFailed)

	chunks, err := p.artifacts.GetChunks(ctx, info.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, len(chunks)-1, agg.ChunksAnalyzed)
}

func TestPipeline_SubmitFileChainsAnalysis(t *testing.T) {
	p := newTestPipeline(t, WithProvider(nil))
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "meeting_notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(meetingNotes), 0644))

	extJob, err := p.SubmitFile(ctx, path)
	require.NoError(t, err)

	extInfo := waitForJob(t, p, extJob)
	require.Equal(t, scheduler.StatusCompleted, extInfo.Status)
	require.NoError(t, extInfo.Err)
	require.NotEmpty(t, extInfo.NextJob, "extraction chains an analysis job")
	require.NotZero(t, extInfo.DocumentId)

	analysisInfo := waitForJob(t, p, extInfo.NextJob)
	require.Equal(t, scheduler.StatusCompleted, analysisInfo.Status)
	assert.Equal(t, extInfo.DocumentId, analysisInfo.DocumentId)

	doc, err := p.Document(ctx, extInfo.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, "meeting_notes", doc.Title)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, core.DocumentCompleted, doc.Status)
}

func TestPipeline_SubmitRejectsBadInput(t *testing.T) {
	p := newTestPipeline(t, WithProvider(nil))
	ctx := context.Background()

	t.Run("empty document", func(t *testing.T) {
		_, err := p.SubmitDocument(ctx, "Empty", "   \n\t ")
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := p.SubmitFile(ctx, filepath.Join(t.TempDir(), "nope.txt"))
		assert.Error(t, err)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := p.SubmitFile(ctx, t.TempDir())
		assert.Error(t, err)
	})
}

func TestPipeline_SimilarChunksWithoutProvider(t *testing.T) {
	p := newTestPipeline(t, WithProvider(nil))
	_, err := p.SimilarChunks(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrNoEmbedder)
}

func TestPipeline_Search(t *testing.T) {
	p := newTestPipeline(t, WithProvider(mock.NewMockProvider()))
	ctx := context.Background()

	jobID, err := p.SubmitDocument(ctx, "Meeting notes", meetingNotes)
	require.NoError(t, err)
	info := waitForJob(t, p, jobID)
	require.Equal(t, scheduler.StatusCompleted, info.Status)

	results, err := p.Search(ctx, "youth language programs", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, info.DocumentId, results[0].Document.Id)
}

func TestPipeline_SearchWithoutProvider(t *testing.T) {
	p := newTestPipeline(t, WithProvider(nil))
	_, err := p.Search(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrNoEmbedder)
}

func TestPipeline_StatusUnknownJob(t *testing.T) {
	p := newTestPipeline(t, WithProvider(nil))
	_, err := p.Status("no-such-job")
	assert.ErrorIs(t, err, scheduler.ErrUnknownJob)
}

func TestPipeline_Rechunk(t *testing.T) {
	p := newTestPipeline(t, WithProvider(nil))
	ctx := context.Background()

	jobID, err := p.SubmitDocument(ctx, "Notes", meetingNotes)
	require.NoError(t, err)
	info := waitForJob(t, p, jobID)
	require.Equal(t, scheduler.StatusCompleted, info.Status)

	before, err := p.artifacts.GetChunks(ctx, info.DocumentId)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	rechunkJob, err := p.Rechunk(ctx, info.DocumentId)
	require.NoError(t, err)
	rcInfo := waitForJob(t, p, rechunkJob)
	require.Equal(t, scheduler.StatusCompleted, rcInfo.Status)

	after, err := p.artifacts.GetChunks(ctx, info.DocumentId)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "same text and settings produce the same split")

	_, err = p.Rechunk(ctx, core.ID(999999))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPipeline_MetricsAndHistory(t *testing.T) {
	p := newTestPipeline(t, WithProvider(nil))
	ctx := context.Background()

	jobID, err := p.SubmitDocument(ctx, "Notes", meetingNotes)
	require.NoError(t, err)
	waitForJob(t, p, jobID)

	m := p.Metrics()
	assert.Equal(t, 1, m.Completed)
	assert.Zero(t, m.Queued)
	assert.Zero(t, m.Active)

	hist := p.History()
	require.NotEmpty(t, hist)
	assert.Equal(t, jobID, hist[0].Id)
}
