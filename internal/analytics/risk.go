package analytics

import (
	"math"
	"sort"

	"github.com/mkweon/athena/internal/contracts"
)

// Tail risk over the realized period returns, by historical simulation.
// Losses are reported as positive fractions.

// VaRMinObservations is the smallest sample a tail estimate is read from.
// Below this the percentile is dominated by single periods.
const VaRMinObservations = 10

// ValueAtRisk returns the (1-confidence) percentile loss of the return
// sample. Undefined on short samples; zero when the tail never lost money.
func ValueAtRisk(returns []float64, confidence float64) contracts.Metric {
	sorted, idx, ok := tailIndex(returns, confidence)
	if !ok {
		return contracts.UndefinedMetric()
	}
	if sorted[idx] >= 0 {
		return contracts.DefinedMetric(0)
	}
	return contracts.DefinedMetric(-sorted[idx])
}

// ExpectedShortfall returns the mean loss of the periods at or beyond
// the VaR cutoff.
func ExpectedShortfall(returns []float64, confidence float64) contracts.Metric {
	sorted, idx, ok := tailIndex(returns, confidence)
	if !ok {
		return contracts.UndefinedMetric()
	}

	var sum float64
	for i := 0; i <= idx; i++ {
		sum += sorted[i]
	}
	avg := sum / float64(idx+1)
	if avg >= 0 {
		return contracts.DefinedMetric(0)
	}
	return contracts.DefinedMetric(-avg)
}

// tailIndex sorts the sample ascending and locates the VaR cutoff.
func tailIndex(returns []float64, confidence float64) ([]float64, int, bool) {
	if len(returns) < VaRMinObservations || confidence <= 0 || confidence >= 1 {
		return nil, 0, false
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted, idx, true
}
