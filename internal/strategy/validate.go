package strategy

import (
	"fmt"
	"sort"

	"github.com/mkweon/athena/internal/contracts"
)

const totalScoreCeiling = 100

// Validate checks structural and numeric constraints of a Config.
// A failure here is fatal to the run, not a per-entity degradation.
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return contracts.NewConfigurationError("meta.strategy_id", "required")
	}

	// === Qualification ===
	if cfg.Qualification.ROEYears < 1 {
		return contracts.NewConfigurationError("qualification.roe_years", "must be >= 1")
	}
	if cfg.Qualification.MaxDebtRatio <= 0 {
		return contracts.NewConfigurationError("qualification.max_debt_ratio", "must be > 0")
	}
	if cfg.Qualification.ConcentrationTopN < 1 {
		return contracts.NewConfigurationError("qualification.concentration_top_n", "must be >= 1")
	}
	if len(cfg.Qualification.ConcentrationTiers) == 0 {
		return contracts.NewConfigurationError("qualification.concentration_tiers", "at least one tier required")
	}
	if !sort.SliceIsSorted(cfg.Qualification.ConcentrationTiers, func(i, j int) bool {
		return cfg.Qualification.ConcentrationTiers[i].MinRatio > cfg.Qualification.ConcentrationTiers[j].MinRatio
	}) {
		return contracts.NewConfigurationError("qualification.concentration_tiers", "must be ordered by descending min_ratio")
	}
	for i, tier := range cfg.Qualification.ConcentrationTiers {
		if tier.MaxRank < 1 {
			return contracts.NewConfigurationError(
				fmt.Sprintf("qualification.concentration_tiers[%d].max_rank", i), "must be >= 1")
		}
	}
	if cfg.Qualification.MinRelativeToLeader < 0 || cfg.Qualification.MinRelativeToLeader > 1 {
		return contracts.NewConfigurationError("qualification.min_relative_to_leader", "must be in [0, 1]")
	}

	// === Exclusion ===
	if cfg.Exclusion.RankWindow < 2 {
		return contracts.NewConfigurationError("exclusion.rank_window", "must be >= 2")
	}
	if cfg.Exclusion.DeclinePeriods < 1 {
		return contracts.NewConfigurationError("exclusion.decline_periods", "must be >= 1")
	}
	if cfg.Exclusion.DeclineThreshold <= 0 {
		return contracts.NewConfigurationError("exclusion.decline_threshold", "must be > 0")
	}

	// === Scoring ===
	if cfg.Scoring.PassThreshold < 0 || cfg.Scoring.PassThreshold > totalScoreCeiling {
		return contracts.NewConfigurationError("scoring.pass_threshold",
			fmt.Sprintf("must be in [0, %d]", totalScoreCeiling))
	}
	tables := map[string]*RuleTable{
		"scoring.roe_stability":    &cfg.Scoring.ROEStability,
		"scoring.roic_level":       &cfg.Scoring.ROICLevel,
		"scoring.cashflow_quality": &cfg.Scoring.CashflowQuality,
		"scoring.leverage":         &cfg.Scoring.Leverage,
		"scoring.profit_margin":    &cfg.Scoring.ProfitMargin,
		"scoring.growth":           &cfg.Scoring.Growth,
	}
	for field, table := range tables {
		if err := validateTable(field, table); err != nil {
			return err
		}
	}
	if len(cfg.Scoring.LeaderPosition) == 0 {
		return contracts.NewConfigurationError("scoring.leader_position", "at least one band required")
	}
	if !sort.SliceIsSorted(cfg.Scoring.LeaderPosition, func(i, j int) bool {
		return cfg.Scoring.LeaderPosition[i].MaxRank < cfg.Scoring.LeaderPosition[j].MaxRank
	}) {
		return contracts.NewConfigurationError("scoring.leader_position", "must be ordered by ascending max_rank")
	}
	if len(cfg.Scoring.LeaderTrend) == 0 {
		return contracts.NewConfigurationError("scoring.leader_trend", "at least one band required")
	}
	if cfg.Scoring.GrowthYears < 1 {
		return contracts.NewConfigurationError("scoring.growth_years", "must be >= 1")
	}

	// The eight sub-score maxima must not exceed the fixed total range.
	maxTotal := cfg.Scoring.ROEStability.MaxPoints() +
		cfg.Scoring.ROICLevel.MaxPoints() +
		cfg.Scoring.CashflowQuality.MaxPoints() +
		cfg.Scoring.Leverage.MaxPoints() +
		maxLeaderPoints(cfg.Scoring.LeaderPosition) +
		maxTrendPoints(cfg.Scoring.LeaderTrend) +
		cfg.Scoring.ProfitMargin.MaxPoints() +
		cfg.Scoring.Growth.MaxPoints()
	if maxTotal > totalScoreCeiling {
		return contracts.NewConfigurationError("scoring",
			fmt.Sprintf("sub-score maxima sum to %.1f, exceeds %d", maxTotal, totalScoreCeiling))
	}

	// === Diversification ===
	if cfg.Diversification.MaxGroupRatio <= 0 || cfg.Diversification.MaxGroupRatio > 1 {
		return contracts.NewConfigurationError("diversification.max_group_ratio", "must be in (0, 1]")
	}
	if cfg.Diversification.MinPoolSize < 1 {
		return contracts.NewConfigurationError("diversification.min_pool_size", "must be >= 1")
	}

	// === Portfolio ===
	if cfg.Portfolio.MaxPositions < 1 {
		return contracts.NewConfigurationError("portfolio.max_positions", "must be >= 1")
	}
	if cfg.Portfolio.WeightMethod != WeightEqual && cfg.Portfolio.WeightMethod != WeightScore {
		return contracts.NewConfigurationError("portfolio.weight_method",
			fmt.Sprintf("must be %q or %q", WeightEqual, WeightScore))
	}
	if cfg.Portfolio.LotSize < 1 {
		return contracts.NewConfigurationError("portfolio.lot_size", "must be >= 1")
	}
	if cfg.Portfolio.CostRate < 0 || cfg.Portfolio.CostRate >= 1 {
		return contracts.NewConfigurationError("portfolio.cost_rate", "must be in [0, 1)")
	}

	// === Backtest ===
	switch cfg.Backtest.RebalanceFrequency {
	case FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnual, FrequencyYearly:
	default:
		return contracts.NewConfigurationError("backtest.rebalance_frequency",
			"must be one of: monthly, quarterly, semi_annual, yearly")
	}
	if cfg.Backtest.InitialCapital <= 0 {
		return contracts.NewConfigurationError("backtest.initial_capital", "must be > 0")
	}
	if cfg.Backtest.Workers < 1 {
		return contracts.NewConfigurationError("backtest.workers", "must be >= 1")
	}

	return nil
}

func validateTable(field string, t *RuleTable) error {
	if len(t.Bands) == 0 {
		return contracts.NewConfigurationError(field, "at least one band required")
	}
	ordered := sort.SliceIsSorted(t.Bands, func(i, j int) bool {
		if t.Inverted {
			return t.Bands[i].Threshold < t.Bands[j].Threshold
		}
		return t.Bands[i].Threshold > t.Bands[j].Threshold
	})
	if !ordered {
		dir := "descending"
		if t.Inverted {
			dir = "ascending"
		}
		return contracts.NewConfigurationError(field, "bands must be ordered by "+dir+" threshold")
	}
	for i, b := range t.Bands {
		if b.Points < 0 {
			return contracts.NewConfigurationError(fmt.Sprintf("%s.bands[%d].points", field, i), "must be >= 0")
		}
	}
	return nil
}

func maxLeaderPoints(bands []LeaderBand) float64 {
	var max float64
	for _, b := range bands {
		if b.Points > max {
			max = b.Points
		}
	}
	return max
}

func maxTrendPoints(bands []TrendBand) float64 {
	var max float64
	for _, b := range bands {
		if b.Points > max {
			max = b.Points
		}
	}
	return max
}
