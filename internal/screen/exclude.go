package screen

import (
	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/indicator"
	"github.com/mkweon/athena/internal/strategy"
)

// Excluder implements the exclusion stage: any rule vetoes, but every
// rule is still evaluated so the full reason list survives for audit.
type Excluder struct {
	config strategy.Exclusion
}

// NewExcluder creates an excluder from the strategy exclusion rules.
func NewExcluder(config strategy.Exclusion) *Excluder {
	return &Excluder{config: config}
}

// Check runs all veto rules and returns every reason that fired.
// An empty slice means the entity survives.
func (e *Excluder) Check(m *EntityMetrics, group *GroupContext) []contracts.ExclusionReason {
	var reasons []contracts.ExclusionReason

	if m.Entity.Flagged {
		reasons = append(reasons, contracts.ReasonFlagged)
	}
	if e.rankDeclining(m, group) {
		reasons = append(reasons, contracts.ReasonRankDecline)
	}
	if e.valueTrap(m) {
		reasons = append(reasons, contracts.ReasonValueTrap)
	}
	if e.governanceRisk(m) {
		reasons = append(reasons, contracts.ReasonGovernanceRisk)
	}
	if m.IntegrityViolation {
		reasons = append(reasons, contracts.ReasonIntegrityRecord)
	}
	if m.HasGoodwillRatio && m.GoodwillRatio > e.config.MaxGoodwillRatio {
		reasons = append(reasons, contracts.ReasonGoodwillRisk)
	}
	if e.consecutiveDecline(m) {
		reasons = append(reasons, contracts.ReasonProfitDecline)
	}

	return reasons
}

// rankDeclining fires when the peer rank worsened at every step of the
// window. A single recovery breaks the pattern.
func (e *Excluder) rankDeclining(m *EntityMetrics, group *GroupContext) bool {
	if group == nil {
		return false
	}
	ranks, ok := group.RankHistory(m.Entity.ID, e.config.RankWindow)
	if !ok || len(ranks) < 2 {
		return false
	}
	for i := 1; i < len(ranks); i++ {
		if ranks[i] <= ranks[i-1] {
			return false
		}
	}
	return true
}

// valueTrap branches by cyclicality. Non-cyclical entities are trapped
// when valuation is low and profitability trends down; cyclical entities
// are judged by their worst year instead, since swings are expected.
func (e *Excluder) valueTrap(m *EntityMetrics) bool {
	if m.Entity.Cyclicality == contracts.Cyclical {
		worst, err := indicator.Min(m.ROESeries)
		if err != nil {
			return false
		}
		return worst < e.config.CyclicalMinWorstROE
	}

	if !m.HasValuationPercentile || m.ValuationPercentile > e.config.ValueTrapMaxPercentile {
		return false
	}
	slope, err := indicator.TrendSlope(m.ROESeries)
	if err != nil {
		return false
	}
	return slope < e.config.ValueTrapMaxSlope
}

func (e *Excluder) governanceRisk(m *EntityMetrics) bool {
	if m.HasPledgeRatio && m.PledgeRatio > e.config.MaxPledgeRatio {
		return true
	}
	if m.HasRelatedTxnRatio && m.RelatedTxnRatio > e.config.MaxRelatedTxnRatio {
		return true
	}
	return false
}

// consecutiveDecline fires only when net profit fell by more than the
// threshold in each of the required consecutive periods.
func (e *Excluder) consecutiveDecline(m *EntityMetrics) bool {
	series := m.NetProfitSeries
	need := e.config.DeclinePeriods
	if len(series) < need+1 {
		return false
	}

	for i := len(series) - need; i < len(series); i++ {
		rate, err := indicator.GrowthRate(series[i-1], series[i])
		if err != nil || rate > -e.config.DeclineThreshold {
			return false
		}
	}
	return true
}
