package distill

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/analysis"
	"github.com/storyloom/distill/chunk"
	"github.com/storyloom/distill/core"
	"github.com/storyloom/distill/fallback"
	"github.com/storyloom/distill/scheduler"
	"github.com/storyloom/distill/storage"
)

// runExtraction pulls text out of the submitted file, stores it as a
// document, and chains an analysis job at the same priority.
func (p *Pipeline) runExtraction(ctx context.Context, job *scheduler.Job) error {
	payload, ok := p.payload(job.Id)
	if !ok {
		return fmt.Errorf("no source file recorded for job %s", job.Id)
	}

	text, err := p.extractor.Extract(payload.path)
	if err != nil {
		return fmt.Errorf("extract %s: %w", payload.path, err)
	}

	doc, err := p.ensureDocument(ctx, filenameTitle(payload.path), text, payload.path)
	if err != nil {
		return err
	}

	next := scheduler.NewJob(doc.Id, scheduler.JobAnalysis, job.Priority, int64(len(text)))
	if err := p.sched.Submit(next); err != nil {
		return fmt.Errorf("queue analysis for document %d: %w", doc.Id, err)
	}
	p.recordChain(job.Id, doc.Id, next.Id)

	p.logger.Info("file extracted",
		"path", payload.path,
		"document", doc.Id,
		"chars", len(text),
		"nextJob", next.Id)
	return nil
}

// runChunking re-splits a stored document and replaces its chunks.
func (p *Pipeline) runChunking(ctx context.Context, job *scheduler.Job) error {
	doc, err := p.documents.GetDocument(ctx, job.DocumentId)
	if err != nil {
		return err
	}

	chunks, err := chunk.Split(doc.Id, doc.Text, p.chunkConfig())
	if err != nil {
		return fmt.Errorf("chunk document %d: %w", doc.Id, err)
	}
	return p.artifacts.BulkInsertChunks(ctx, chunks...)
}

// runAnalysis is the document lifecycle: mark processing, analyze, and
// mark completed with the provenance the analysis earned. Degraded results
// complete the document; only producing nothing at all fails it.
func (p *Pipeline) runAnalysis(ctx context.Context, job *scheduler.Job) error {
	doc, err := p.documents.GetDocument(ctx, job.DocumentId)
	if err != nil {
		return err
	}
	if err := p.documents.MarkProcessing(ctx, doc.Id); err != nil {
		return err
	}

	agg, err := p.analyzeDocument(ctx, doc)
	if err != nil {
		if markErr := p.documents.MarkFailed(ctx, doc.Id); markErr != nil {
			p.logger.Error("marking document failed", "document", doc.Id, "err", markErr)
		}
		return err
	}

	if err := p.documents.MarkCompleted(ctx, doc.Id, agg.Provenance); err != nil {
		return err
	}
	p.logger.Info("document analyzed",
		"document", doc.Id,
		"provenance", agg.Provenance.String(),
		"chunksAnalyzed", agg.ChunksAnalyzed,
		"chunksFailed", agg.ChunksFailed)
	return nil
}

func (p *Pipeline) analyzeDocument(ctx context.Context, doc *core.Document) (*core.AggregatedResult, error) {
	chunks, err := chunk.Split(doc.Id, doc.Text, p.chunkConfig())
	if err != nil {
		return nil, fmt.Errorf("chunk document %d: %w", doc.Id, err)
	}
	if err := p.artifacts.BulkInsertChunks(ctx, chunks...); err != nil {
		return nil, fmt.Errorf("persist chunks: %w", err)
	}

	results, err := p.analyzeChunks(ctx, doc, chunks)
	if err != nil {
		return nil, err
	}

	p.embedChunks(ctx, doc, chunks)

	agg, err := p.aggregator.Aggregate(ctx, doc.Id, results, analysis.Options{
		Summary:     p.summaryPolicy(),
		Summarizer:  p.summarizer(),
		FullText:    doc.Text,
		Title:       doc.Title,
		TotalChunks: len(chunks),
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate document %d: %w", doc.Id, err)
	}

	if err := p.persistArtifacts(ctx, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

// analyzeChunks produces one result per chunk, serving repeated text from
// the cache. Capability results are cached; fallback results are not, so a
// later run can try the capability again. Only total capability failure
// escalates to fallback analysis.
func (p *Pipeline) analyzeChunks(ctx context.Context, doc *core.Document, chunks []core.Chunk) ([]core.AnalysisResult, error) {
	results := make([]core.AnalysisResult, 0, len(chunks))
	var misses []core.Chunk
	for _, c := range chunks {
		if cached, ok := p.cachedResult(c); ok {
			results = append(results, cached)
			continue
		}
		misses = append(misses, c)
	}
	if len(results) > 0 {
		p.logger.Debug("cache served chunks",
			"document", doc.Id,
			"hits", len(results),
			"misses", len(misses))
	}
	if len(misses) == 0 {
		return results, nil
	}

	if p.invoker != nil {
		docCtx := ai.DocumentContext{Title: doc.Title, TotalChunks: len(chunks)}
		fresh, err := p.invoker.AnalyzeChunks(ctx, misses, docCtx)
		if err == nil {
			textByIndex := make(map[int]string, len(misses))
			for _, c := range misses {
				textByIndex[c.Index] = c.Text
			}
			for i := range fresh {
				if text, ok := textByIndex[fresh[i].ChunkIndex]; ok {
					p.storeResult(text, fresh[i])
				}
			}
			return append(results, fresh...), nil
		}
		if !errors.Is(err, analysis.ErrAllChunksFailed) {
			return nil, err
		}
		p.logger.Warn("capability failed for every chunk, using fallback analysis",
			"document", doc.Id, "err", err)
	}

	fallbackResults := make([]core.AnalysisResult, len(misses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range misses {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fallbackResults[i] = fallback.AnalyzeWithTitle(misses[i], doc.Title)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(results, fallbackResults...), nil
}

// embedChunks attaches embeddings to the document's stored chunks. Failure
// never fails the document; it degrades to analysis without similarity
// search.
func (p *Pipeline) embedChunks(ctx context.Context, doc *core.Document, chunks []core.Chunk) {
	if p.provider == nil || len(chunks) == 0 {
		return
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.provider.Embedder().EmbedTexts(ctx, texts)
	if err != nil {
		p.logger.Warn("chunk embedding failed", "document", doc.Id, "err", err)
		return
	}

	for i, vector := range vectors {
		if i >= len(chunks) {
			break
		}
		// Stored vectors are unit length so the similarity scan's dot
		// product orders by cosine.
		vector = core.NormalizeVector(vector)
		if err := p.artifacts.UpdateChunkVector(ctx, doc.Id, chunks[i].Index, vector); err != nil {
			p.logger.Warn("storing chunk vector failed",
				"document", doc.Id,
				"chunk", chunks[i].Index,
				"err", err)
		}
	}
}

func (p *Pipeline) persistArtifacts(ctx context.Context, agg *core.AggregatedResult) error {
	if err := p.artifacts.BulkInsertThemes(ctx, agg.DocumentId, agg.Themes...); err != nil {
		return fmt.Errorf("persist themes: %w", err)
	}
	if err := p.artifacts.BulkInsertQuotes(ctx, agg.DocumentId, agg.Quotes...); err != nil {
		return fmt.Errorf("persist quotes: %w", err)
	}
	if err := p.artifacts.BulkInsertInsights(ctx, agg.DocumentId, agg.Insights...); err != nil {
		return fmt.Errorf("persist insights: %w", err)
	}
	if err := p.artifacts.BulkInsertKeywords(ctx, agg.DocumentId, agg.Keywords...); err != nil {
		return fmt.Errorf("persist keywords: %w", err)
	}
	if err := p.artifacts.SaveAggregatedResult(ctx, agg); err != nil {
		return fmt.Errorf("persist aggregated result: %w", err)
	}
	return nil
}

// cachedResult probes the cache for a chunk's analysis. The key derives
// from the text alone, so the index is re-stamped for this document.
func (p *Pipeline) cachedResult(c core.Chunk) (core.AnalysisResult, bool) {
	payload, ok := p.cache.Get(cacheKey(c.Text))
	if !ok {
		return core.AnalysisResult{}, false
	}
	result, err := storage.UnmarshalAnalysisResult(payload)
	if err != nil {
		p.cache.Remove(cacheKey(c.Text))
		return core.AnalysisResult{}, false
	}
	result.ChunkIndex = c.Index
	return *result, true
}

func (p *Pipeline) storeResult(text string, result core.AnalysisResult) {
	if err := p.cache.Set(cacheKey(text), storage.MarshalAnalysisResult(&result)); err != nil {
		p.logger.Debug("analysis result not cached", "err", err)
	}
}

// cacheKey content-addresses a chunk's analysis, so identical text in
// different documents shares one entry.
func cacheKey(text string) string {
	return fmt.Sprintf("analysis:%016x", uint64(core.IDFromContent(text)))
}

func (p *Pipeline) chunkConfig() chunk.Config {
	return chunk.Config{
		MaxChunkSize:       p.cfg.Chunking.MaxChunkSize,
		OverlapSize:        p.cfg.Chunking.OverlapSize,
		MinChunkSize:       p.cfg.Chunking.MinChunkSize,
		PreserveBoundaries: true,
	}
}

// summaryPolicy resolves the configured policy; "auto" regenerates when a
// capability is available and concatenates otherwise.
func (p *Pipeline) summaryPolicy() analysis.SummaryPolicy {
	switch p.cfg.Summary.Policy {
	case "concat":
		return analysis.SummaryConcat
	case "regenerate":
		return analysis.SummaryRegenerate
	default:
		if p.provider != nil {
			return analysis.SummaryRegenerate
		}
		return analysis.SummaryConcat
	}
}

func (p *Pipeline) summarizer() ai.Summarizer {
	if p.provider == nil {
		return nil
	}
	return p.provider.Summarizer()
}
