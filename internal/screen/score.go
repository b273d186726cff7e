package screen

import (
	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/indicator"
	"github.com/mkweon/athena/internal/strategy"
)

// Scorer implements the scoring stage. Every sub-score maps a metric
// through its rule table; a missing or undefined metric contributes zero
// rather than failing the entity.
type Scorer struct {
	config strategy.Scoring
}

// NewScorer creates a scorer from the strategy scoring tables.
func NewScorer(config strategy.Scoring) *Scorer {
	return &Scorer{config: config}
}

// Score computes both sub-score families for an entity.
func (s *Scorer) Score(m *EntityMetrics, group *GroupContext) (contracts.FinancialBreakdown, contracts.CompetitiveBreakdown) {
	return s.scoreFinancial(m), s.scoreCompetitive(m, group)
}

func (s *Scorer) scoreFinancial(m *EntityMetrics) contracts.FinancialBreakdown {
	var b contracts.FinancialBreakdown

	if avg, err := indicator.Average(m.ROESeries); err == nil {
		b.ROEStability = s.config.ROEStability.Evaluate(avg)
	}
	if m.HasROIC {
		b.ROICLevel = s.config.ROICLevel.Evaluate(m.ROIC)
	}
	if m.HasCashflowQuality {
		b.CashflowQuality = s.config.CashflowQuality.Evaluate(m.CashflowQuality)
	}
	if m.HasDebtRatio {
		b.Leverage = s.config.Leverage.Evaluate(m.DebtRatio)
	}

	return b
}

func (s *Scorer) scoreCompetitive(m *EntityMetrics, group *GroupContext) contracts.CompetitiveBreakdown {
	var b contracts.CompetitiveBreakdown
	if group == nil {
		return b
	}

	b.LeaderPosition = s.scoreLeaderPosition(m, group)
	b.LeaderTrend = s.scoreLeaderTrend(m, group)

	if adv, ok := group.MarginAdvantage(m.Entity.ID); ok {
		b.ProfitMargin = s.config.ProfitMargin.Evaluate(adv)
	}
	b.Growth = s.scoreGrowth(m)

	return b
}

// scoreLeaderPosition awards the first band whose rank ceiling and
// relative-size floor both hold. Bands are ordered best rank first.
func (s *Scorer) scoreLeaderPosition(m *EntityMetrics, group *GroupContext) float64 {
	rank, ok := group.Rank(m.Entity.ID)
	if !ok {
		return 0
	}
	rel, ok := group.RelativeSize(m.Entity.ID)
	if !ok {
		return 0
	}

	for _, band := range s.config.LeaderPosition {
		if rank <= band.MaxRank && rel >= band.MinRelativeSize {
			return band.Points
		}
	}
	return 0
}

// scoreLeaderTrend awards by rank change over the growth lookback.
// Negative change is an improving rank.
func (s *Scorer) scoreLeaderTrend(m *EntityMetrics, group *GroupContext) float64 {
	ranks, ok := group.RankHistory(m.Entity.ID, s.config.GrowthYears)
	if !ok || len(ranks) < 2 {
		return 0
	}
	change := ranks[len(ranks)-1] - ranks[0]

	for _, band := range s.config.LeaderTrend {
		if change <= band.MaxChange {
			return band.Points
		}
	}
	return 0
}

func (s *Scorer) scoreGrowth(m *EntityMetrics) float64 {
	series := m.RevenueSeries
	if len(series) < 2 {
		return 0
	}
	years := len(series) - 1
	if years > s.config.GrowthYears {
		years = s.config.GrowthYears
		series = series[len(series)-years-1:]
	}

	cagr, err := indicator.CAGR(series[0], series[len(series)-1], years)
	if err != nil {
		return 0
	}
	return s.config.Growth.Evaluate(cagr)
}
