package strategy

import "time"

// Config is the full screening strategy definition. It is loaded once,
// validated, and treated as immutable for the rest of the run.
type Config struct {
	Meta            Meta            `yaml:"meta" json:"meta"`
	Qualification   Qualification   `yaml:"qualification" json:"qualification"`
	Exclusion       Exclusion       `yaml:"exclusion" json:"exclusion"`
	Scoring         Scoring         `yaml:"scoring" json:"scoring"`
	Diversification Diversification `yaml:"diversification" json:"diversification"`
	Portfolio       PortfolioRules  `yaml:"portfolio" json:"portfolio"`
	Backtest        BacktestRules   `yaml:"backtest" json:"backtest"`
}

// Meta identifies a strategy revision.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Band is one row of an ordered (threshold, points) table.
type Band struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Points    float64 `yaml:"points" json:"points"`
}

// RuleTable maps a continuous metric to points by selecting the highest
// threshold the metric meets. Inverted tables select the lowest threshold
// the metric stays under, for metrics where smaller is better.
type RuleTable struct {
	Bands    []Band `yaml:"bands" json:"bands"`
	Inverted bool   `yaml:"inverted,omitempty" json:"inverted,omitempty"`
}

// Evaluate returns the points for value, or 0 when no band matches.
func (t *RuleTable) Evaluate(value float64) float64 {
	if t.Inverted {
		// Bands sorted ascending by threshold; first ceiling that holds wins.
		for _, b := range t.Bands {
			if value <= b.Threshold {
				return b.Points
			}
		}
		return 0
	}
	// Bands sorted descending by threshold; first floor that holds wins.
	for _, b := range t.Bands {
		if value >= b.Threshold {
			return b.Points
		}
	}
	return 0
}

// MaxPoints returns the largest award in the table. Used by validation
// to bound the total score.
func (t *RuleTable) MaxPoints() float64 {
	var max float64
	for _, b := range t.Bands {
		if b.Points > max {
			max = b.Points
		}
	}
	return max
}

// ConcentrationTier maps a peer-group concentration ratio floor to the
// leadership rank an entity must hold within that group.
type ConcentrationTier struct {
	MinRatio    float64 `yaml:"min_ratio" json:"min_ratio"`
	MaxRank     int     `yaml:"max_rank" json:"max_rank"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
}

// Qualification holds the AND-combined entry rules.
type Qualification struct {
	MinROEAverage   float64 `yaml:"min_roe_average" json:"min_roe_average"`
	ROEYears        int     `yaml:"roe_years" json:"roe_years"`
	MaxDebtRatio    float64 `yaml:"max_debt_ratio" json:"max_debt_ratio"`
	MinCurrentRatio float64 `yaml:"min_current_ratio" json:"min_current_ratio"`

	// Leadership requirement, tiered by group concentration.
	ConcentrationTopN   int                 `yaml:"concentration_top_n" json:"concentration_top_n"`
	ConcentrationTiers  []ConcentrationTier `yaml:"concentration_tiers" json:"concentration_tiers"`
	MinRelativeToLeader float64             `yaml:"min_relative_to_leader" json:"min_relative_to_leader"`
}

// RequiredRank resolves the leadership rank cutoff for a concentration
// ratio. Tiers are ordered by descending min_ratio; the first floor that
// holds wins. Ratio below every tier means only the outright leader passes.
func (q *Qualification) RequiredRank(concentration float64) int {
	for _, tier := range q.ConcentrationTiers {
		if concentration >= tier.MinRatio {
			return tier.MaxRank
		}
	}
	return 1
}

// Exclusion holds the OR-combined veto rules.
type Exclusion struct {
	RankWindow int `yaml:"rank_window" json:"rank_window"`

	// Value trap, branched by cyclicality.
	ValueTrapMaxPercentile float64 `yaml:"value_trap_max_percentile" json:"value_trap_max_percentile"`
	ValueTrapMaxSlope      float64 `yaml:"value_trap_max_slope" json:"value_trap_max_slope"`
	CyclicalMinWorstROE    float64 `yaml:"cyclical_min_worst_roe" json:"cyclical_min_worst_roe"`

	// Governance.
	MaxPledgeRatio      float64 `yaml:"max_pledge_ratio" json:"max_pledge_ratio"`
	MaxRelatedTxnRatio  float64 `yaml:"max_related_txn_ratio" json:"max_related_txn_ratio"`
	IntegrityLookback   int     `yaml:"integrity_lookback_years" json:"integrity_lookback_years"`
	MaxGoodwillRatio    float64 `yaml:"max_goodwill_ratio" json:"max_goodwill_ratio"`

	// Consecutive profit decline.
	DeclineThreshold float64 `yaml:"decline_threshold" json:"decline_threshold"`
	DeclinePeriods   int     `yaml:"decline_periods" json:"decline_periods"`
}

// LeaderBand awards points by rank, gated on relative size to the leader.
type LeaderBand struct {
	MaxRank         int     `yaml:"max_rank" json:"max_rank"`
	MinRelativeSize float64 `yaml:"min_relative_size" json:"min_relative_size"`
	Points          float64 `yaml:"points" json:"points"`
}

// TrendBand awards points by rank change over the lookback window.
// Negative change means the rank improved.
type TrendBand struct {
	MaxChange int     `yaml:"max_change" json:"max_change"`
	Points    float64 `yaml:"points" json:"points"`
}

// Scoring holds the sub-score tables. Financial and competitive families
// each contribute at most half the total.
type Scoring struct {
	PassThreshold float64 `yaml:"pass_threshold" json:"pass_threshold"`

	ROEStability    RuleTable `yaml:"roe_stability" json:"roe_stability"`
	ROICLevel       RuleTable `yaml:"roic_level" json:"roic_level"`
	CashflowQuality RuleTable `yaml:"cashflow_quality" json:"cashflow_quality"`
	Leverage        RuleTable `yaml:"leverage" json:"leverage"`

	LeaderPosition []LeaderBand `yaml:"leader_position" json:"leader_position"`
	LeaderTrend    []TrendBand  `yaml:"leader_trend" json:"leader_trend"`
	ProfitMargin   RuleTable    `yaml:"profit_margin" json:"profit_margin"`
	Growth         RuleTable    `yaml:"growth" json:"growth"`
	GrowthYears    int          `yaml:"growth_years" json:"growth_years"`
}

// Diversification bounds any one top-level group's share of the pool.
type Diversification struct {
	MinPoolSize   int     `yaml:"min_pool_size" json:"min_pool_size"`
	MaxGroupRatio float64 `yaml:"max_group_ratio" json:"max_group_ratio"`
	ExemptCount   int     `yaml:"exempt_count" json:"exempt_count"`
}

// PortfolioRules controls portfolio construction.
type PortfolioRules struct {
	MaxPositions int     `yaml:"max_positions" json:"max_positions"`
	WeightMethod string  `yaml:"weight_method" json:"weight_method"` // equal | score
	LotSize      int64   `yaml:"lot_size" json:"lot_size"`
	CostRate     float64 `yaml:"cost_rate" json:"cost_rate"`
}

// BacktestRules controls the simulation driver.
type BacktestRules struct {
	RebalanceFrequency string        `yaml:"rebalance_frequency" json:"rebalance_frequency"` // monthly | quarterly | semi_annual | yearly
	InitialCapital     float64       `yaml:"initial_capital" json:"initial_capital"`
	Benchmark          string        `yaml:"benchmark,omitempty" json:"benchmark,omitempty"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	Workers            int           `yaml:"workers" json:"workers"`
}
