package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/ai/mock"
	"github.com/storyloom/distill/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeChunks(n int) []core.Chunk {
	chunks := make([]core.Chunk, n)
	for i := range chunks {
		chunks[i] = core.Chunk{
			DocumentId: 1,
			Index:      i,
			Text:       "community garden meeting notes for the month",
		}
	}
	return chunks
}

func TestAnalyzeChunks_AllSucceed(t *testing.T) {
	analyzer := mock.NewMockAnalyzer()
	analyzer.AnalyzeChunkFunc = func(ctx context.Context, text string, docCtx ai.DocumentContext) (*ai.ChunkAnalysis, error) {
		return &ai.ChunkAnalysis{
			Themes:  []ai.ExtractedTheme{{Name: "community health", Confidence: 0.7}},
			Summary: "chunk summary",
		}, nil
	}

	inv := NewInvoker(analyzer, 3)
	results, err := inv.AnalyzeChunks(context.Background(), makeChunks(5), ai.DocumentContext{Title: "Notes"})

	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Equal(t, 5, analyzer.CallCount())

	for i, result := range results {
		assert.Equal(t, i, result.ChunkIndex)
		assert.Equal(t, core.ProvenanceAI, result.Provenance)
		require.Len(t, result.Themes, 1)
		assert.Equal(t, core.ProvenanceAI, result.Themes[0].Provenance)
	}
}

func TestAnalyzeChunks_PartialFailure(t *testing.T) {
	boom := errors.New("capability down")
	analyzer := mock.NewMockAnalyzer()
	analyzer.AnalyzeChunkFunc = func(ctx context.Context, text string, docCtx ai.DocumentContext) (*ai.ChunkAnalysis, error) {
		if docCtx.ChunkIndex == 2 {
			return nil, ai.NewCapabilityError("analyze", boom, true)
		}
		return &ai.ChunkAnalysis{Summary: "ok"}, nil
	}

	inv := NewInvoker(analyzer, 3)
	results, err := inv.AnalyzeChunks(context.Background(), makeChunks(5), ai.DocumentContext{})

	// One failed chunk never fails the document.
	require.NoError(t, err)
	require.Len(t, results, 4)

	var indexes []int
	for _, result := range results {
		indexes = append(indexes, result.ChunkIndex)
	}
	assert.Equal(t, []int{0, 1, 3, 4}, indexes)
}

func TestAnalyzeChunks_AllFail(t *testing.T) {
	boom := errors.New("capability down")
	analyzer := mock.NewMockAnalyzer()
	analyzer.AnalyzeChunkFunc = func(ctx context.Context, text string, docCtx ai.DocumentContext) (*ai.ChunkAnalysis, error) {
		return nil, ai.NewCapabilityError("analyze", boom, true)
	}

	inv := NewInvoker(analyzer, 3)
	results, err := inv.AnalyzeChunks(context.Background(), makeChunks(5), ai.DocumentContext{})

	assert.Nil(t, results)
	require.ErrorIs(t, err, ErrAllChunksFailed)
	// Per-chunk causes stay reachable through the join.
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 5, analyzer.CallCount())
}

func TestAnalyzeChunks_BatchBound(t *testing.T) {
	var mu sync.Mutex
	current, maxSeen := 0, 0

	analyzer := mock.NewMockAnalyzer()
	analyzer.AnalyzeChunkFunc = func(ctx context.Context, text string, docCtx ai.DocumentContext) (*ai.ChunkAnalysis, error) {
		mu.Lock()
		current++
		if current > maxSeen {
			maxSeen = current
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		current--
		mu.Unlock()
		return &ai.ChunkAnalysis{}, nil
	}

	inv := NewInvoker(analyzer, 2)
	_, err := inv.AnalyzeChunks(context.Background(), makeChunks(6), ai.DocumentContext{})

	require.NoError(t, err)
	assert.Equal(t, 6, analyzer.CallCount())
	assert.LessOrEqual(t, maxSeen, 2, "batch size must bound concurrent capability calls")
}

func TestAnalyzeChunks_ContextCancelled(t *testing.T) {
	analyzer := mock.NewMockAnalyzer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := NewInvoker(analyzer, 3)
	results, err := inv.AnalyzeChunks(ctx, makeChunks(5), ai.DocumentContext{})

	assert.Nil(t, results)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, analyzer.CallCount())
}

func TestAnalyzeChunks_Empty(t *testing.T) {
	inv := NewInvoker(mock.NewMockAnalyzer(), 3)
	results, err := inv.AnalyzeChunks(context.Background(), nil, ai.DocumentContext{})

	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestAnalyzeChunks_DocumentContextPropagated(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]ai.DocumentContext)

	analyzer := mock.NewMockAnalyzer()
	analyzer.AnalyzeChunkFunc = func(ctx context.Context, text string, docCtx ai.DocumentContext) (*ai.ChunkAnalysis, error) {
		mu.Lock()
		seen[docCtx.ChunkIndex] = docCtx
		mu.Unlock()
		return &ai.ChunkAnalysis{}, nil
	}

	inv := NewInvoker(analyzer, 2)
	_, err := inv.AnalyzeChunks(context.Background(), makeChunks(3), ai.DocumentContext{Title: "Annual Report"})

	require.NoError(t, err)
	require.Len(t, seen, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, "Annual Report", seen[i].Title)
		assert.Equal(t, 3, seen[i].TotalChunks)
	}

	// A caller-supplied total survives; the invoker only fills it in when
	// unknown, so analyzing a subset keeps the document's real count.
	mu.Lock()
	clear(seen)
	mu.Unlock()

	_, err = inv.AnalyzeChunks(context.Background(), makeChunks(2), ai.DocumentContext{TotalChunks: 9})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	for i := 0; i < 2; i++ {
		assert.Equal(t, 9, seen[i].TotalChunks)
	}
}
