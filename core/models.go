package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentStatus tracks a document through the processing lifecycle.
type DocumentStatus int

const (
	// DocumentQueued means the document is waiting for a processing slot.
	DocumentQueued DocumentStatus = iota + 1
	// DocumentProcessing means analysis is in flight.
	DocumentProcessing
	// DocumentCompleted means artifacts were produced, possibly degraded.
	DocumentCompleted
	// DocumentFailed means no usable result could be produced.
	DocumentFailed
)

func (s DocumentStatus) String() string {
	switch s {
	case DocumentQueued:
		return "queued"
	case DocumentProcessing:
		return "processing"
	case DocumentCompleted:
		return "completed"
	case DocumentFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Provenance records whether an artifact came from the language capability
// or from rule-based fallback analysis.
type Provenance int

const (
	// ProvenanceAI marks results produced by the external capability.
	ProvenanceAI Provenance = iota + 1
	// ProvenanceFallback marks results produced by rule-based analysis.
	ProvenanceFallback
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceAI:
		return "ai"
	case ProvenanceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Sensitivity classifies how freely a quote may be shared.
type Sensitivity int

const (
	// SensitivityPublic quotes may appear anywhere.
	SensitivityPublic Sensitivity = iota + 1
	// SensitivityRestricted quotes need reviewer approval before display.
	SensitivityRestricted
	// SensitivitySacred quotes are culturally protected and never shown publicly.
	SensitivitySacred
)

func (s Sensitivity) String() string {
	switch s {
	case SensitivityPublic:
		return "public"
	case SensitivityRestricted:
		return "restricted"
	case SensitivitySacred:
		return "sacred"
	default:
		return "unknown"
	}
}

// InsightCategory classifies what kind of observation an insight captures.
type InsightCategory int

const (
	// CategoryGap marks an unmet community need.
	CategoryGap InsightCategory = iota + 1
	// CategoryOpportunity marks a possible improvement or initiative.
	CategoryOpportunity
	// CategorySuccess marks something reported as working well.
	CategorySuccess
	// CategoryBarrier marks an obstacle blocking progress.
	CategoryBarrier
)

func (c InsightCategory) String() string {
	switch c {
	case CategoryGap:
		return "gap"
	case CategoryOpportunity:
		return "opportunity"
	case CategorySuccess:
		return "success"
	case CategoryBarrier:
		return "barrier"
	default:
		return "unknown"
	}
}

// Document is a unit of uploaded long-form text moving through the pipeline.
type Document struct {
	Id         ID
	Title      string
	Text       string
	Source     string // file path or caller-supplied origin
	Status     DocumentStatus
	Provenance Provenance // set on completion
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Chunk is a bounded, overlapping segment of a document's text.
// Start/End are rune offsets into the document text. StartPage/EndPage are
// 1-based form-feed page numbers, zero when the text carries no page breaks.
type Chunk struct {
	DocumentId ID
	Index      int
	Start      int
	End        int
	StartPage  int
	EndPage    int
	Text       string
	WordCount  int
	Vector     []float32 // embedding, populated post-analysis
}

// Theme is a recurring topic detected across a document.
type Theme struct {
	Name       string
	Confidence float64
	Evidence   []string
	Provenance Provenance
}

// Quote is an attributed span of speech extracted from a document.
type Quote struct {
	Text        string
	Speaker     string
	Confidence  float64
	Sensitivity Sensitivity
	Provenance  Provenance
}

// Insight is an actionable observation extracted from a document.
type Insight struct {
	Text       string
	Category   InsightCategory
	Importance float64
	Provenance Provenance
}

// Keyword is a significant term with its occurrence count.
type Keyword struct {
	Term       string
	Frequency  int
	Provenance Provenance
}

// AnalysisResult holds the artifacts extracted from a single chunk.
type AnalysisResult struct {
	ChunkIndex int
	Themes     []Theme
	Quotes     []Quote
	Insights   []Insight
	Keywords   []Keyword
	Summary    string
	Provenance Provenance
}

// AggregatedResult is the merged, document-level view of all chunk results.
// ChunksAnalyzed counts the chunk results that contributed; ChunksFailed
// counts chunks dropped because their capability call failed.
type AggregatedResult struct {
	DocumentId     ID
	Themes         []Theme
	Quotes         []Quote
	Insights       []Insight
	Keywords       []Keyword
	Summary        string
	Provenance     Provenance
	ChunksAnalyzed int
	ChunksFailed   int
}

// SimilarChunk is a chunk match from vector similarity search.
type SimilarChunk struct {
	DocumentId ID
	ChunkIndex int
	Score      float32
}

// SearchResult pairs a document with its hybrid search relevance score.
type SearchResult struct {
	Document *Document
	Score    float32
}
