package screen

import (
	"github.com/mkweon/athena/internal/indicator"
	"github.com/mkweon/athena/internal/strategy"
)

// Qualifier implements the qualification stage: every rule must hold.
// Evaluation short-circuits on the first unmet rule.
type Qualifier struct {
	config strategy.Qualification
}

// NewQualifier creates a qualifier from the strategy qualification rules.
func NewQualifier(config strategy.Qualification) *Qualifier {
	return &Qualifier{config: config}
}

// Check runs all qualification rules. An empty reason means qualified.
// Missing or undefined inputs disqualify rather than pass by default.
func (q *Qualifier) Check(m *EntityMetrics, group *GroupContext) string {
	// Profitability floor on the multi-year ROE average.
	avgROE, err := indicator.Average(m.ROESeries)
	if err != nil {
		return "insufficient_roe_history"
	}
	if avgROE < q.config.MinROEAverage {
		return "roe_below_floor"
	}

	// Balance-sheet safety.
	if !m.HasDebtRatio || m.DebtRatio > q.config.MaxDebtRatio {
		return "debt_ratio"
	}
	if !m.HasCurrentRatio || m.CurrentRatio < q.config.MinCurrentRatio {
		return "current_ratio"
	}

	// Leadership requirement, tiered by how concentrated the group is.
	if group == nil || group.Size() == 0 {
		return "no_peer_group"
	}
	concentration, err := group.Concentration(q.config.ConcentrationTopN)
	if err != nil {
		return "concentration_undefined"
	}
	requiredRank := q.config.RequiredRank(concentration)

	rank, ok := group.Rank(m.Entity.ID)
	if !ok {
		return "no_revenue_data"
	}
	if rank > requiredRank {
		return "leadership_rank"
	}

	// Reject nominal leaders of trivial size.
	rel, ok := group.RelativeSize(m.Entity.ID)
	if !ok || rel < q.config.MinRelativeToLeader {
		return "relative_size"
	}

	return ""
}
