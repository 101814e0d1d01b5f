package search

import "github.com/coursehound/coursehound/core"

// MatchMonitor provides hooks to observe the match pipeline.
// Implement this interface to track which tier answered a query and the
// intermediate candidates along the way.
type MatchMonitor interface {
	Start(query string)
	BrowseDefault(total int)
	CodeTierHit(records []*core.Record)
	FuzzyTierHit(records []*core.Record)
	VectorScore(code string, score float64)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of MatchMonitor
type noopMonitor struct{}

var _ MatchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                   {}
func (n *noopMonitor) BrowseDefault(_ int)              {}
func (n *noopMonitor) CodeTierHit(_ []*core.Record)     {}
func (n *noopMonitor) FuzzyTierHit(_ []*core.Record)    {}
func (n *noopMonitor) VectorScore(_ string, _ float64)  {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)    {}
