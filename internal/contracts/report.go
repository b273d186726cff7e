package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metric is a possibly-undefined float. A zero-denominator ratio or a
// too-short sample yields an undefined metric, never an error or a NaN.
type Metric struct {
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

// DefinedMetric wraps a computed value.
func DefinedMetric(v float64) Metric {
	return Metric{Value: v, OK: true}
}

// UndefinedMetric returns the zero Metric.
func UndefinedMetric() Metric {
	return Metric{}
}

// PeriodReturn is the realized outcome of holding a Portfolio from one
// rebalance date to the next. The ordered sequence of PeriodReturns forms the
// backtest's value trajectory: EndValue of period i is the basis for
// StartValue of period i+1 after rebalancing cost.
type PeriodReturn struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	StartValue decimal.Decimal `json:"start_value"`
	EndValue   decimal.Decimal `json:"end_value"`
	Cost       decimal.Decimal `json:"cost"` // transaction cost paid at the opening rebalance

	Return        float64            `json:"return"`         // portfolio-level blended return
	EntityReturns map[string]float64 `json:"entity_returns"` // per-entity realized return

	EmptyPool bool   `json:"empty_pool,omitempty"` // no entity qualified at the opening rebalance
	Warning   string `json:"warning,omitempty"`
}

// BenchmarkComparison holds the same metrics recomputed for a benchmark
// series plus the relative measures.
type BenchmarkComparison struct {
	Benchmark        string  `json:"benchmark"`
	CumulativeReturn float64 `json:"cumulative_return"`
	AnnualizedReturn Metric  `json:"annualized_return"`
	ExcessReturn     float64 `json:"excess_return"`
	TrackingError    Metric  `json:"tracking_error"`
	InformationRatio Metric  `json:"information_ratio"`
}

// PerformanceReport is the read-only aggregation over a full PeriodReturn
// sequence. Computed once at the end of a backtest run.
type PerformanceReport struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Periods   int       `json:"periods"`

	CumulativeReturn float64 `json:"cumulative_return"`
	AnnualizedReturn Metric  `json:"annualized_return"`

	Volatility         Metric  `json:"volatility"`
	DownsideVolatility Metric  `json:"downside_volatility"`
	MaxDrawdown        float64 `json:"max_drawdown"`

	Sharpe  Metric `json:"sharpe"`
	Sortino Metric `json:"sortino"`
	Calmar  Metric `json:"calmar"`

	// Historical tail risk at 95% confidence, per period.
	ValueAtRisk       Metric `json:"value_at_risk"`
	ExpectedShortfall Metric `json:"expected_shortfall"`

	WinRate float64 `json:"win_rate"`

	Benchmark *BenchmarkComparison `json:"benchmark,omitempty"`
}
