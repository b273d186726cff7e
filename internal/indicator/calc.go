package indicator

import (
	"fmt"
	"math"
	"sort"

	"github.com/mkweon/athena/internal/contracts"
)

// MinObservations is the shortest series accepted by the multi-year
// aggregates. Anything shorter is not a trend, it is noise.
const MinObservations = 3

// ROE computes return on equity. Non-positive equity makes the ratio
// meaningless rather than merely extreme.
func ROE(netProfit, equity float64) (float64, error) {
	if equity <= 0 {
		return 0, fmt.Errorf("roe with equity %.2f: %w", equity, contracts.ErrUndefined)
	}
	return netProfit / equity, nil
}

// Average computes the arithmetic mean of a multi-year series.
func Average(values []float64) (float64, error) {
	if len(values) < MinObservations {
		return 0, fmt.Errorf("average needs %d observations, have %d: %w",
			MinObservations, len(values), contracts.ErrUndefined)
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Min returns the smallest value of a multi-year series.
func Min(values []float64) (float64, error) {
	if len(values) < MinObservations {
		return 0, fmt.Errorf("min needs %d observations, have %d: %w",
			MinObservations, len(values), contracts.ErrUndefined)
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min, nil
}

// StdDev computes the population standard deviation of a series.
func StdDev(values []float64) (float64, error) {
	mean, err := Average(values)
	if err != nil {
		return 0, err
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values))), nil
}

// TrendSlope fits an ordinary least squares line over the series indexed
// 0, 1, 2, ... and returns its slope per period.
func TrendSlope(values []float64) (float64, error) {
	n := len(values)
	if n < MinObservations {
		return 0, fmt.Errorf("slope needs %d observations, have %d: %w",
			MinObservations, n, contracts.ErrUndefined)
	}

	// With x = 0..n-1 the denominator only depends on n.
	meanX := float64(n-1) / 2
	var meanY float64
	for _, v := range values {
		meanY += v
	}
	meanY /= float64(n)

	var num, den float64
	for i, v := range values {
		dx := float64(i) - meanX
		num += dx * (v - meanY)
		den += dx * dx
	}
	return num / den, nil
}

// CAGR computes the compound annual growth rate from start to end over
// years periods. Non-positive start values or spans make it undefined.
func CAGR(start, end float64, years int) (float64, error) {
	if start <= 0 || years <= 0 {
		return 0, fmt.Errorf("cagr start %.2f over %d years: %w", start, years, contracts.ErrUndefined)
	}
	if end <= 0 {
		// A sign flip has no meaningful compound rate.
		return 0, fmt.Errorf("cagr end %.2f: %w", end, contracts.ErrUndefined)
	}
	return math.Pow(end/start, 1/float64(years)) - 1, nil
}

// GrowthRate computes the simple period-over-period rate (end-start)/|start|.
func GrowthRate(start, end float64) (float64, error) {
	if start == 0 {
		return 0, fmt.Errorf("growth from zero base: %w", contracts.ErrUndefined)
	}
	return (end - start) / math.Abs(start), nil
}

// CashflowQuality computes operating cash flow over net income.
// Non-positive net income makes the quality ratio undefined.
func CashflowQuality(operatingCF, netIncome float64) (float64, error) {
	if netIncome <= 0 {
		return 0, fmt.Errorf("ocf/ni with net income %.2f: %w", netIncome, contracts.ErrUndefined)
	}
	return operatingCF / netIncome, nil
}

// ConcentrationRatio computes CR-N: the revenue share of the top n
// entities within a group. revenues holds every member's revenue.
func ConcentrationRatio(revenues []float64, n int) (float64, error) {
	if len(revenues) == 0 || n <= 0 {
		return 0, fmt.Errorf("cr%d over %d members: %w", n, len(revenues), contracts.ErrUndefined)
	}

	sorted := make([]float64, len(revenues))
	copy(sorted, revenues)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var total float64
	for _, r := range sorted {
		total += r
	}
	if total <= 0 {
		return 0, fmt.Errorf("cr%d with total revenue %.2f: %w", n, total, contracts.ErrUndefined)
	}

	if n > len(sorted) {
		n = len(sorted)
	}
	var top float64
	for _, r := range sorted[:n] {
		top += r
	}
	return top / total, nil
}

// Rank returns the 1-based descending rank of value within peers.
// Equal values share the better rank.
func Rank(value float64, peers []float64) int {
	rank := 1
	for _, p := range peers {
		if p > value {
			rank++
		}
	}
	return rank
}

// RelativeSize returns value divided by the largest peer value.
func RelativeSize(value float64, peers []float64) (float64, error) {
	var max float64
	for _, p := range peers {
		if p > max {
			max = p
		}
	}
	if max <= 0 {
		return 0, fmt.Errorf("relative size with leader %.2f: %w", max, contracts.ErrUndefined)
	}
	return value / max, nil
}

// Percentile returns the fraction of peers strictly below value, in [0, 1].
func Percentile(value float64, peers []float64) (float64, error) {
	if len(peers) == 0 {
		return 0, fmt.Errorf("percentile over empty peer set: %w", contracts.ErrUndefined)
	}
	below := 0
	for _, p := range peers {
		if p < value {
			below++
		}
	}
	return float64(below) / float64(len(peers)), nil
}
