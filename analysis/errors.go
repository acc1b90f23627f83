package analysis

import (
	"errors"
	"fmt"
)

// Analysis error sentinels. Use errors.Is to check.
var (
	// ErrAllChunksFailed indicates every chunk's capability call failed and
	// the document should be escalated to fallback analysis.
	ErrAllChunksFailed = errors.New("all chunks failed analysis")

	// ErrNoResults indicates aggregation was asked to merge zero results.
	ErrNoResults = errors.New("no results to aggregate")
)

// AggregationError reports a malformed per-chunk result, naming the chunk
// that carried it.
type AggregationError struct {
	ChunkIndex int
	Err        error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate chunk %d: %v", e.ChunkIndex, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}
