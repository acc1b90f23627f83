package reembed

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storyloom/distill/ai/mock"
	"github.com/storyloom/distill/core"
	"github.com/storyloom/distill/storage"
	"github.com/storyloom/distill/storage/badger"
)

// newTestRepos returns in-memory repositories torn down with the test.
func newTestRepos(t *testing.T) (storage.DocumentRepository, storage.ArtifactRepository) {
	t.Helper()

	documents, artifacts, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = documents.Close()
		_ = artifacts.Close()
		_ = backend.Close()
	})
	return documents, artifacts
}

// seedDocument stores a completed document with one chunk per text.
func seedDocument(t *testing.T, documents storage.DocumentRepository, artifacts storage.ArtifactRepository, title string, texts ...string) *core.Document {
	t.Helper()
	ctx := context.Background()

	doc, err := documents.CreateDocument(ctx, &core.Document{
		Title:  title,
		Text:   strings.Join(texts, " "),
		Status: core.DocumentCompleted,
	})
	require.NoError(t, err)

	chunks := make([]core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = core.Chunk{
			DocumentId: doc.Id,
			Index:      i,
			Text:       text,
			WordCount:  len(strings.Fields(text)),
		}
	}
	require.NoError(t, artifacts.BulkInsertChunks(ctx, chunks...))
	return doc
}

// requireUnitVectors asserts every stored chunk of the document carries a
// unit-length embedding.
func requireUnitVectors(t *testing.T, artifacts storage.ArtifactRepository, documentID core.ID) {
	t.Helper()

	chunks, err := artifacts.GetChunks(context.Background(), documentID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		require.NotEmpty(t, chunk.Vector, "chunk %d of document %d has no vector", chunk.Index, documentID)
		var sumSquares float64
		for _, v := range chunk.Vector {
			sumSquares += float64(v) * float64(v)
		}
		require.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5,
			"chunk %d of document %d is not unit length", chunk.Index, documentID)
	}
}

func TestReembedder_Run(t *testing.T) {
	documents, artifacts := newTestRepos(t)
	notes := seedDocument(t, documents, artifacts, "Community notes",
		"The library hosts a youth language program.",
		"Elders asked for weekend sessions.",
		"Attendance doubled over the winter.")
	report := seedDocument(t, documents, artifacts, "Annual report",
		"Funding covers two more staff positions.",
		"The harvest camp returns next spring.")

	embedder := mock.NewMockEmbedder()
	config := DefaultConfig()
	config.BatchSize = 2
	config.ReportInterval = 1

	var out bytes.Buffer
	reembedder := NewReembedder(documents, artifacts, embedder, config, &out)
	require.NoError(t, reembedder.Run(context.Background()))

	requireUnitVectors(t, artifacts, notes.Id)
	requireUnitVectors(t, artifacts, report.Id)

	require.Contains(t, out.String(), "Starting reembedding of 5 chunks")
	require.Contains(t, out.String(), "Reembedding complete")
	// 5 chunks at batch size 2 is three EmbedTexts calls.
	require.Equal(t, 3, embedder.CallCount())
}

func TestReembedder_Run_EmptyStore(t *testing.T) {
	documents, artifacts := newTestRepos(t)

	embedder := mock.NewMockEmbedder()
	var out bytes.Buffer
	reembedder := NewReembedder(documents, artifacts, embedder, DefaultConfig(), &out)

	require.NoError(t, reembedder.Run(context.Background()))
	require.Contains(t, out.String(), "No chunks stored")
	require.Zero(t, embedder.CallCount())
}

func TestReembedder_Run_EmbedderFailure(t *testing.T) {
	documents, artifacts := newTestRepos(t)
	seedDocument(t, documents, artifacts, "Notes", "One chunk of text.")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("model offline")
	}

	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = time.Millisecond

	var out bytes.Buffer
	reembedder := NewReembedder(documents, artifacts, embedder, config, &out)

	err := reembedder.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to process batch")
}

func TestReembedder_Run_ContextCanceled(t *testing.T) {
	documents, artifacts := newTestRepos(t)
	seedDocument(t, documents, artifacts, "Notes",
		"First chunk.", "Second chunk.", "Third chunk.")

	embedder := mock.NewMockEmbedder()
	config := DefaultConfig()
	config.BatchSize = 1

	ctx, cancel := context.WithCancel(context.Background())
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		// Cancel after the first batch so the loop stops between batches.
		cancel()
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	var out bytes.Buffer
	reembedder := NewReembedder(documents, artifacts, embedder, config, &out)

	err := reembedder.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, embedder.CallCount())
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.Equal(t, 100, config.BatchSize)
	require.Equal(t, 100, config.ReportInterval)
	require.Equal(t, 3, config.MaxRetries)
	require.Equal(t, time.Second, config.RetryDelay)
}
