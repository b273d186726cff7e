package screen

import (
	"sort"

	"github.com/mkweon/athena/internal/indicator"
)

// GroupContext holds per-group peer data for one screening date: each
// member's revenue series (oldest first) and latest gross margin. All
// leadership and margin-advantage signals derive from it.
type GroupContext struct {
	// revenues[entityID] is the member's revenue series, oldest first.
	revenues map[string][]float64
	margins  map[string]float64
}

// NewGroupContext builds a context from collected member metrics.
func NewGroupContext(members []*EntityMetrics) *GroupContext {
	g := &GroupContext{
		revenues: make(map[string][]float64, len(members)),
		margins:  make(map[string]float64),
	}
	for _, m := range members {
		if len(m.RevenueSeries) > 0 {
			g.revenues[m.Entity.ID] = m.RevenueSeries
		}
		if m.HasGrossMargin {
			g.margins[m.Entity.ID] = m.GrossMargin
		}
	}
	return g
}

// Size returns the number of members with revenue data.
func (g *GroupContext) Size() int {
	return len(g.revenues)
}

// latestRevenues returns every member's most recent revenue.
func (g *GroupContext) latestRevenues() []float64 {
	out := make([]float64, 0, len(g.revenues))
	for _, series := range g.revenues {
		out = append(out, series[len(series)-1])
	}
	return out
}

// Concentration computes the top-N revenue share of the group.
func (g *GroupContext) Concentration(topN int) (float64, error) {
	return indicator.ConcentrationRatio(g.latestRevenues(), topN)
}

// Rank returns the entity's 1-based revenue rank in the group, or false
// when the entity has no revenue data.
func (g *GroupContext) Rank(entityID string) (int, bool) {
	series, ok := g.revenues[entityID]
	if !ok {
		return 0, false
	}
	return indicator.Rank(series[len(series)-1], g.latestRevenues()), true
}

// RankHistory returns the entity's rank over the last window periods,
// oldest first. Members missing a period are skipped for that period's
// peer set. Returns false when the entity's series is shorter than window.
func (g *GroupContext) RankHistory(entityID string, window int) ([]int, bool) {
	series, ok := g.revenues[entityID]
	if !ok || len(series) < window {
		return nil, false
	}

	ranks := make([]int, 0, window)
	for offset := window; offset >= 1; offset-- {
		idx := len(series) - offset
		var peers []float64
		for _, peer := range g.revenues {
			if len(peer) >= offset {
				peers = append(peers, peer[len(peer)-offset])
			}
		}
		ranks = append(ranks, indicator.Rank(series[idx], peers))
	}
	return ranks, true
}

// RelativeSize returns the entity's latest revenue over the group
// leader's, or false without revenue data.
func (g *GroupContext) RelativeSize(entityID string) (float64, bool) {
	series, ok := g.revenues[entityID]
	if !ok {
		return 0, false
	}
	rel, err := indicator.RelativeSize(series[len(series)-1], g.latestRevenues())
	if err != nil {
		return 0, false
	}
	return rel, true
}

// MarginAdvantage returns the entity's gross margin minus the group
// median, or false when either side is missing.
func (g *GroupContext) MarginAdvantage(entityID string) (float64, bool) {
	own, ok := g.margins[entityID]
	if !ok || len(g.margins) == 0 {
		return 0, false
	}

	all := make([]float64, 0, len(g.margins))
	for _, m := range g.margins {
		all = append(all, m)
	}
	sort.Float64s(all)

	var median float64
	n := len(all)
	if n%2 == 1 {
		median = all[n/2]
	} else {
		median = (all[n/2-1] + all[n/2]) / 2
	}
	return own - median, true
}
