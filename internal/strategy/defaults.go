package strategy

import "time"

// Default returns the built-in strategy. Threshold values are hand-tuned
// business constants carried over from production screening runs.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "quality-leaders",
			Version:    "1.0",
		},
		Qualification: Qualification{
			MinROEAverage:     0.10,
			ROEYears:          3,
			MaxDebtRatio:      0.80,
			MinCurrentRatio:   1.0,
			ConcentrationTopN: 3,
			ConcentrationTiers: []ConcentrationTier{
				{MinRatio: 0.70, MaxRank: 3, Description: "high concentration"},
				{MinRatio: 0.40, MaxRank: 2, Description: "medium concentration"},
			},
			MinRelativeToLeader: 0.20,
		},
		Exclusion: Exclusion{
			RankWindow:             3,
			ValueTrapMaxPercentile: 0.20,
			ValueTrapMaxSlope:      -0.02,
			CyclicalMinWorstROE:    0.05,
			MaxPledgeRatio:         0.50,
			MaxRelatedTxnRatio:     0.30,
			IntegrityLookback:      3,
			MaxGoodwillRatio:       0.30,
			DeclineThreshold:       0.10,
			DeclinePeriods:         2,
		},
		Scoring: Scoring{
			PassThreshold: 60,
			ROEStability: RuleTable{Bands: []Band{
				{Threshold: 0.20, Points: 15},
				{Threshold: 0.15, Points: 12},
				{Threshold: 0.10, Points: 8},
				{Threshold: 0.05, Points: 4},
			}},
			ROICLevel: RuleTable{Bands: []Band{
				{Threshold: 0.15, Points: 15},
				{Threshold: 0.12, Points: 12},
				{Threshold: 0.08, Points: 8},
				{Threshold: 0.05, Points: 4},
			}},
			CashflowQuality: RuleTable{Bands: []Band{
				{Threshold: 1.2, Points: 12},
				{Threshold: 1.0, Points: 9},
				{Threshold: 0.8, Points: 6},
				{Threshold: 0.5, Points: 3},
			}},
			Leverage: RuleTable{Inverted: true, Bands: []Band{
				{Threshold: 0.30, Points: 8},
				{Threshold: 0.45, Points: 6},
				{Threshold: 0.60, Points: 4},
				{Threshold: 0.80, Points: 2},
			}},
			LeaderPosition: []LeaderBand{
				{MaxRank: 1, MinRelativeSize: 0, Points: 15},
				{MaxRank: 2, MinRelativeSize: 0.40, Points: 12},
				{MaxRank: 3, MinRelativeSize: 0.30, Points: 9},
			},
			LeaderTrend: []TrendBand{
				{MaxChange: -1, Points: 10}, // rank improved
				{MaxChange: 0, Points: 7},   // rank held
				{MaxChange: 1, Points: 3},
			},
			ProfitMargin: RuleTable{Bands: []Band{
				{Threshold: 0.10, Points: 15},
				{Threshold: 0.05, Points: 12},
				{Threshold: 0.00, Points: 8},
				{Threshold: -0.05, Points: 4},
			}},
			Growth: RuleTable{Bands: []Band{
				{Threshold: 0.15, Points: 10},
				{Threshold: 0.10, Points: 8},
				{Threshold: 0.05, Points: 5},
				{Threshold: 0.00, Points: 2},
			}},
			GrowthYears: 3,
		},
		Diversification: Diversification{
			MinPoolSize:   10,
			MaxGroupRatio: 0.35,
			ExemptCount:   2,
		},
		Portfolio: PortfolioRules{
			MaxPositions: 20,
			WeightMethod: WeightEqual,
			LotSize:      100,
			CostRate:     0.0015,
		},
		Backtest: BacktestRules{
			RebalanceFrequency: FrequencyQuarterly,
			InitialCapital:     1_000_000,
			FetchTimeout:       10 * time.Second,
			Workers:            8,
		},
	}
}

// Weight method names accepted by PortfolioRules.WeightMethod.
const (
	WeightEqual = "equal"
	WeightScore = "score"
)

// Rebalance frequency names accepted by BacktestRules.RebalanceFrequency.
const (
	FrequencyMonthly    = "monthly"
	FrequencyQuarterly  = "quarterly"
	FrequencySemiAnnual = "semi_annual"
	FrequencyYearly     = "yearly"
)
