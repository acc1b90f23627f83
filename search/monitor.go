package search

import (
	"iter"

	"github.com/storyloom/distill/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(documentIds []uint64)
	AfterQueryTokenization(terms []string)
	FoundKeywordMatches(term string, documentIds []uint64)
	AfterKeywordSearch(iter.Seq[uint64])
	AfterDocumentRetrieval(documents []*core.Document)
	SemanticAndKeywordHit(doc *core.Document)
	SemanticHit(doc *core.Document)
	KeywordHit(doc *core.Document)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterSemanticSearch(_ []uint64)            {}
func (n *noopMonitor) AfterQueryTokenization(_ []string)         {}
func (n *noopMonitor) FoundKeywordMatches(_ string, _ []uint64)  {}
func (n *noopMonitor) AfterKeywordSearch(_ iter.Seq[uint64])     {}
func (n *noopMonitor) AfterDocumentRetrieval(_ []*core.Document) {}
func (n *noopMonitor) SemanticAndKeywordHit(_ *core.Document)    {}
func (n *noopMonitor) SemanticHit(_ *core.Document)              {}
func (n *noopMonitor) KeywordHit(_ *core.Document)               {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)             {}
