package search

import (
	"context"
	"log/slog"
	"maps"
	"math"
	"sort"
	"strings"

	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/core"
	"github.com/storyloom/distill/storage"
)

// Searcher provides hybrid semantic and keyword search over stored documents.
type Searcher struct {
	documents storage.DocumentRepository
	artifacts storage.ArtifactRepository
	embedder  ai.Embedder
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	documents storage.DocumentRepository,
	artifacts storage.ArtifactRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if artifacts == nil {
		return nil, ErrArtifactRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		documents: documents,
		artifacts: artifacts,
		embedder:  embedder,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for documents relevant to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for documents relevant to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Perform semantic search over chunk vectors
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	matches, err := s.artifacts.FindSimilarChunks(ctx, core.NormalizeVector(embedding), maxHits)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}

	// Track semantic results. Matches arrive best first, so the first chunk
	// seen for a document carries its best score.
	semanticSet := make(map[uint64]bool)
	semanticScores := make(map[uint64]float32)
	semanticIds := make([]uint64, 0, len(matches))
	for _, match := range matches {
		id := uint64(match.DocumentId)
		if semanticSet[id] {
			continue
		}
		semanticSet[id] = true
		semanticScores[id] = match.Score
		semanticIds = append(semanticIds, id)
	}
	monitor.AfterSemanticSearch(semanticIds)

	// 2. Match query terms against stored keywords
	terms := tokenizeAndFilter(query)
	monitor.AfterQueryTokenization(terms)

	keywordSet := make(map[uint64]bool)
	if len(terms) > 0 {
		docs, err := s.documents.ListDocuments(ctx, math.MaxInt)
		if err != nil {
			s.logger.Error("error listing documents for keyword search", "err", err)
			return nil, err
		}

		termHits := make(map[string][]uint64)
		for _, doc := range docs {
			keywords, err := s.artifacts.GetKeywords(ctx, doc.Id)
			if err != nil {
				s.logger.Warn("failed to load keywords", "documentID", doc.Id, "err", err)
				continue
			}
			stored := make(map[string]bool, len(keywords))
			for _, keyword := range keywords {
				stored[strings.ToLower(keyword.Term)] = true
			}
			for _, term := range terms {
				if stored[term] {
					keywordSet[uint64(doc.Id)] = true
					termHits[term] = append(termHits[term], uint64(doc.Id))
				}
			}
		}
		for _, term := range terms {
			if ids := termHits[term]; len(ids) > 0 {
				monitor.FoundKeywordMatches(term, ids)
			}
		}
	}
	monitor.AfterKeywordSearch(maps.Keys(keywordSet))

	// 3. Combine result sets
	allIds := make(map[uint64]bool)
	for id := range semanticSet {
		allIds[id] = true
	}
	for id := range keywordSet {
		allIds[id] = true
	}

	if len(allIds) == 0 {
		return []*core.SearchResult{}, nil
	}

	// Retrieve all matched documents
	retrieved := make([]*core.Document, 0, len(allIds))
	for id := range allIds {
		doc, err := s.documents.GetDocument(ctx, core.ID(id))
		if err != nil {
			s.logger.Warn("failed to retrieve document", "documentID", id, "err", err)
			continue
		}
		retrieved = append(retrieved, doc)
	}
	monitor.AfterDocumentRetrieval(retrieved)

	// 4. Score and build results
	results := make([]*core.SearchResult, 0, len(retrieved))

	for _, doc := range retrieved {
		inSemantic := semanticSet[uint64(doc.Id)]
		inKeyword := keywordSet[uint64(doc.Id)]

		var score float32
		if inSemantic && inKeyword {
			// In both: boost by 1.5x, weighted by similarity score
			similarityScore := semanticScores[uint64(doc.Id)]
			score = 1.5 * similarityScore
			monitor.SemanticAndKeywordHit(doc)
		} else if inKeyword {
			// Keyword only: 1.2
			score = 1.2
			monitor.KeywordHit(doc)
		} else {
			// Semantic only: 1.0, weighted by similarity score
			similarityScore := semanticScores[uint64(doc.Id)]
			score = 1.0 * similarityScore
			monitor.SemanticHit(doc)
		}

		// Apply verbatim match boost
		if containsAllQueryWords(doc.Text, query) {
			score += 0.3
		}

		results = append(results, &core.SearchResult{
			Document: doc,
			Score:    score,
		})
	}

	// Sort by score descending
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}
