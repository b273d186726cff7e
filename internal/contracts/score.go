package contracts

import "time"

// ExclusionReason is a machine-readable veto code from the exclusion gate.
type ExclusionReason string

const (
	ReasonFlagged          ExclusionReason = "FLAGGED_STATUS"
	ReasonRankDecline      ExclusionReason = "RANK_DECLINE"
	ReasonValueTrap        ExclusionReason = "VALUE_TRAP"
	ReasonGovernanceRisk   ExclusionReason = "GOVERNANCE_RISK"
	ReasonIntegrityRecord  ExclusionReason = "INTEGRITY_RECORD"
	ReasonGoodwillRisk     ExclusionReason = "GOODWILL_RISK"
	ReasonProfitDecline    ExclusionReason = "PROFIT_DECLINE"
	ReasonInsufficientData ExclusionReason = "INSUFFICIENT_DATA"

	// ReasonDiversification marks a pool member pruned by the group cap,
	// not vetoed by an exclusion rule.
	ReasonDiversification ExclusionReason = "DIVERSIFICATION_CAP"
)

// FinancialBreakdown holds the financial-quality sub-scores. Each sub-score
// is bounded by its configured weight.
type FinancialBreakdown struct {
	ROEStability    float64 `json:"roe_stability"`
	ROICLevel       float64 `json:"roic_level"`
	CashflowQuality float64 `json:"cashflow_quality"`
	Leverage        float64 `json:"leverage"`
}

// Sum returns the financial-quality total.
func (b FinancialBreakdown) Sum() float64 {
	return b.ROEStability + b.ROICLevel + b.CashflowQuality + b.Leverage
}

// CompetitiveBreakdown holds the competitive-advantage sub-scores.
type CompetitiveBreakdown struct {
	LeaderPosition float64 `json:"leader_position"`
	LeaderTrend    float64 `json:"leader_trend"`
	ProfitMargin   float64 `json:"profit_margin"`
	Growth         float64 `json:"growth"`
}

// Sum returns the competitive-advantage total.
func (b CompetitiveBreakdown) Sum() float64 {
	return b.LeaderPosition + b.LeaderTrend + b.ProfitMargin + b.Growth
}

// ScoreRecord is the output of screening a single entity at a date.
// Created once per (entity, date) pair and never mutated; a later rebalance
// produces a new record.
type ScoreRecord struct {
	Entity string    `json:"entity"`
	Name   string    `json:"name"`
	Group  string    `json:"group"` // top-level classification as of Date
	Date   time.Time `json:"date"`

	PassedQualification bool `json:"passed_qualification"`
	PassedExclusion     bool `json:"passed_exclusion"`
	PassedScoring       bool `json:"passed_scoring"`

	ExclusionReasons []ExclusionReason `json:"exclusion_reasons,omitempty"`

	Financial   FinancialBreakdown   `json:"financial"`
	Competitive CompetitiveBreakdown `json:"competitive"`
	TotalScore  float64              `json:"total_score"` // 0–100
}

// InPool reports whether the entity survived all three gates.
func (s *ScoreRecord) InPool() bool {
	return s.PassedQualification && s.PassedExclusion && s.PassedScoring
}

// HasReason reports whether a specific exclusion reason was recorded.
func (s *ScoreRecord) HasReason(r ExclusionReason) bool {
	for _, reason := range s.ExclusionReasons {
		if reason == r {
			return true
		}
	}
	return false
}
