package analytics

import (
	"math"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/pkg/logger"
)

// Analyzer turns a backtest's period returns into a performance report.
// ⭐ SSOT: return and risk formulas live here and nowhere else.
type Analyzer struct {
	riskFreeRate float64
	logger       *logger.Logger
}

// NewAnalyzer creates an analyzer with the annual risk-free rate used by
// the risk-adjusted ratios.
func NewAnalyzer(riskFreeRate float64, log *logger.Logger) *Analyzer {
	return &Analyzer{riskFreeRate: riskFreeRate, logger: log}
}

// Analyze builds the full report. Degenerate denominators produce
// Undefined metrics, never errors: a flat track record is a valid
// result, not a failure.
func (a *Analyzer) Analyze(periods []contracts.PeriodReturn, periodsPerYear float64) *contracts.PerformanceReport {
	report := &contracts.PerformanceReport{Periods: len(periods)}
	if len(periods) == 0 {
		report.AnnualizedReturn = contracts.UndefinedMetric()
		report.Volatility = contracts.UndefinedMetric()
		report.DownsideVolatility = contracts.UndefinedMetric()
		report.Sharpe = contracts.UndefinedMetric()
		report.Sortino = contracts.UndefinedMetric()
		report.Calmar = contracts.UndefinedMetric()
		report.ValueAtRisk = contracts.UndefinedMetric()
		report.ExpectedShortfall = contracts.UndefinedMetric()
		return report
	}

	report.StartDate = periods[0].Start
	report.EndDate = periods[len(periods)-1].End

	returns := make([]float64, len(periods))
	for i, p := range periods {
		returns[i] = p.Return
	}

	report.CumulativeReturn = CumulativeReturn(returns)

	years := report.EndDate.Sub(report.StartDate).Hours() / 24 / 365.25
	report.AnnualizedReturn = AnnualizedReturn(report.CumulativeReturn, years)

	report.Volatility = AnnualizedVolatility(returns, periodsPerYear)
	report.DownsideVolatility = DownsideVolatility(returns, periodsPerYear)
	report.MaxDrawdown = MaxDrawdown(equityCurve(periods))
	report.WinRate = winRate(returns)

	report.Sharpe = ratio(sub(report.AnnualizedReturn, a.riskFreeRate), report.Volatility)
	report.Sortino = ratio(sub(report.AnnualizedReturn, a.riskFreeRate), report.DownsideVolatility)
	report.Calmar = ratioScalar(report.AnnualizedReturn, report.MaxDrawdown)

	report.ValueAtRisk = ValueAtRisk(returns, 0.95)
	report.ExpectedShortfall = ExpectedShortfall(returns, 0.95)

	a.logger.WithFields(map[string]interface{}{
		"stage":             contracts.StageAnalytics.ShortName(),
		"periods":           len(periods),
		"cumulative_return": report.CumulativeReturn,
		"max_drawdown":      report.MaxDrawdown,
	}).Info("Performance analysis completed")

	return report
}

// Compare fills in the benchmark section. benchmarkReturns must align
// one-to-one with the report's periods.
func (a *Analyzer) Compare(report *contracts.PerformanceReport, benchmark string, portfolioReturns, benchmarkReturns []float64) {
	cmp := &contracts.BenchmarkComparison{Benchmark: benchmark}
	cmp.CumulativeReturn = CumulativeReturn(benchmarkReturns)

	years := report.EndDate.Sub(report.StartDate).Hours() / 24 / 365.25
	cmp.AnnualizedReturn = AnnualizedReturn(cmp.CumulativeReturn, years)
	cmp.ExcessReturn = report.CumulativeReturn - cmp.CumulativeReturn

	if len(portfolioReturns) == len(benchmarkReturns) && len(portfolioReturns) > 0 {
		diffs := make([]float64, len(portfolioReturns))
		for i := range portfolioReturns {
			diffs[i] = portfolioReturns[i] - benchmarkReturns[i]
		}
		// Tracking error stays at period frequency alongside the
		// per-period mean, so the ratio is internally consistent.
		te := stdDev(diffs)
		if te > 0 {
			cmp.TrackingError = contracts.DefinedMetric(te)
			cmp.InformationRatio = contracts.DefinedMetric(mean(diffs) / te)
		} else {
			cmp.TrackingError = contracts.UndefinedMetric()
			cmp.InformationRatio = contracts.UndefinedMetric()
		}
	} else {
		cmp.TrackingError = contracts.UndefinedMetric()
		cmp.InformationRatio = contracts.UndefinedMetric()
	}

	report.Benchmark = cmp
}

// CumulativeReturn chains period returns: prod(1+r) - 1.
func CumulativeReturn(returns []float64) float64 {
	wealth := 1.0
	for _, r := range returns {
		wealth *= 1 + r
	}
	return wealth - 1
}

// AnnualizedReturn converts a cumulative return over a span of years.
// Undefined for non-positive spans or a wealth-wiping loss.
func AnnualizedReturn(cumulative, years float64) contracts.Metric {
	if years <= 0 || cumulative <= -1 {
		return contracts.UndefinedMetric()
	}
	return contracts.DefinedMetric(math.Pow(1+cumulative, 1/years) - 1)
}

// AnnualizedVolatility scales the period-return standard deviation by
// sqrt(periods per year). Undefined below two observations.
func AnnualizedVolatility(returns []float64, periodsPerYear float64) contracts.Metric {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return contracts.UndefinedMetric()
	}
	return contracts.DefinedMetric(stdDev(returns) * math.Sqrt(periodsPerYear))
}

// DownsideVolatility is the volatility of negative periods only,
// measured against zero. Undefined when no period lost money.
func DownsideVolatility(returns []float64, periodsPerYear float64) contracts.Metric {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return contracts.UndefinedMetric()
	}
	var sq float64
	n := 0
	for _, r := range returns {
		if r < 0 {
			sq += r * r
			n++
		}
	}
	if n == 0 {
		return contracts.UndefinedMetric()
	}
	return contracts.DefinedMetric(math.Sqrt(sq/float64(len(returns)-1)) * math.Sqrt(periodsPerYear))
}

// MaxDrawdown walks the net-asset curve against its running peak and
// returns the deepest relative fall, as a positive fraction.
func MaxDrawdown(curve []float64) float64 {
	var peak, worst float64
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func equityCurve(periods []contracts.PeriodReturn) []float64 {
	curve := make([]float64, 0, len(periods)+1)
	if len(periods) > 0 {
		start, _ := periods[0].StartValue.Float64()
		curve = append(curve, start)
	}
	for _, p := range periods {
		end, _ := p.EndValue.Float64()
		curve = append(curve, end)
	}
	return curve
}

func winRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation (n-1 divisor).
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

// sub subtracts a scalar from a metric, keeping undefinedness.
func sub(m contracts.Metric, x float64) contracts.Metric {
	if !m.OK {
		return m
	}
	return contracts.DefinedMetric(m.Value - x)
}

// ratio divides two metrics; a zero or undefined denominator is Undefined.
func ratio(num, den contracts.Metric) contracts.Metric {
	if !num.OK || !den.OK || den.Value == 0 {
		return contracts.UndefinedMetric()
	}
	return contracts.DefinedMetric(num.Value / den.Value)
}

// ratioScalar divides a metric by a scalar denominator.
func ratioScalar(num contracts.Metric, den float64) contracts.Metric {
	if !num.OK || den == 0 {
		return contracts.UndefinedMetric()
	}
	return contracts.DefinedMetric(num.Value / den)
}
