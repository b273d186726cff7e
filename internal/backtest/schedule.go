package backtest

import (
	"time"

	"github.com/mkweon/athena/internal/strategy"
)

// Schedule generates the ordered rebalance dates from start to end at
// the given frequency. start is always included; end is appended as the
// closing mark when the stride does not land on it exactly.
func Schedule(start, end time.Time, frequency string) []time.Time {
	var months int
	switch frequency {
	case strategy.FrequencyMonthly:
		months = 1
	case strategy.FrequencySemiAnnual:
		months = 6
	case strategy.FrequencyYearly:
		months = 12
	default:
		months = 3
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, months, 0) {
		dates = append(dates, d)
	}
	if len(dates) > 0 && dates[len(dates)-1].Before(end) {
		dates = append(dates, end)
	}
	return dates
}

// PeriodsPerYear returns the annualization factor for a frequency.
func PeriodsPerYear(frequency string) float64 {
	switch frequency {
	case strategy.FrequencyMonthly:
		return 12
	case strategy.FrequencySemiAnnual:
		return 2
	case strategy.FrequencyYearly:
		return 1
	default:
		return 4
	}
}
