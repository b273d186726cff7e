package pit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/pkg/logger"
)

// Publication lags applied when a report carries no declared publication date,
// or declares one earlier than the earliest possible disclosure.
const (
	AnnualLagMonths    = 4
	QuarterlyLagMonths = 1
)

// View answers "what was known on this date" questions against a FactSource.
// ⭐ SSOT: every read of fundamental data during screening goes through here.
type View struct {
	source contracts.FactSource
	cache  *runCache
	logger *logger.Logger
}

// NewView creates a point-in-time view over the given source.
func NewView(source contracts.FactSource, log *logger.Logger) *View {
	return &View{
		source: source,
		cache:  newRunCache(),
		logger: log,
	}
}

// EffectivePublication returns the date a fact became observable.
// A declared publication date counts only if it is not earlier than
// period end plus the statutory lag for its frequency.
func EffectivePublication(f *contracts.Fact) time.Time {
	var lag int
	switch f.Frequency {
	case contracts.FrequencyDaily:
		lag = 0
	case contracts.FrequencyQuarterly:
		lag = QuarterlyLagMonths
	default:
		lag = AnnualLagMonths
	}

	floor := f.PeriodEnd
	if lag > 0 {
		// End-of-month arithmetic: AddDate would normalize Dec 31 + 4
		// months to May 1, one day past the disclosure deadline.
		y, m, _ := f.PeriodEnd.Date()
		floor = time.Date(y, m+time.Month(lag)+1, 1, 0, 0, 0, 0, f.PeriodEnd.Location()).AddDate(0, 0, -1)
	}
	if f.PublishedAt.After(floor) {
		return f.PublishedAt
	}
	return floor
}

// Reset drops all memoized series. Call between runs when the underlying
// source may have received new publications.
func (v *View) Reset() {
	v.cache.Flush()
}

// LatestFact returns the most recent fact for one field that was observable
// on asOf. Selection is by latest report period, ties by latest publication.
// Returns contracts.ErrDataUnavailable when nothing was observable.
func (v *View) LatestFact(ctx context.Context, entity, field string, asOf time.Time) (*contracts.Fact, error) {
	facts, err := v.History(ctx, entity, field, asOf, 0)
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return nil, fmt.Errorf("entity %s field %s as of %s: %w",
			entity, field, asOf.Format("2006-01-02"), contracts.ErrDataUnavailable)
	}
	return &facts[len(facts)-1], nil
}

// History returns up to limit observable facts for one field, ordered by
// report period ascending. limit <= 0 means no limit. Facts whose effective
// publication falls after asOf are never returned.
func (v *View) History(ctx context.Context, entity, field string, asOf time.Time, limit int) ([]contracts.Fact, error) {
	all, err := v.fetch(ctx, entity, field, asOf)
	if err != nil {
		return nil, err
	}

	observable := make([]contracts.Fact, 0, len(all))
	for _, f := range all {
		if !EffectivePublication(&f).After(asOf) {
			observable = append(observable, f)
		}
	}

	// Keep only the latest publication per report period.
	byPeriod := make(map[time.Time]contracts.Fact, len(observable))
	for _, f := range observable {
		prev, ok := byPeriod[f.PeriodEnd]
		if !ok || f.NewerThan(&prev) {
			byPeriod[f.PeriodEnd] = f
		}
	}

	result := make([]contracts.Fact, 0, len(byPeriod))
	for _, f := range byPeriod {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PeriodEnd.Before(result[j].PeriodEnd)
	})

	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

// LatestValue is LatestFact reduced to the numeric value.
func (v *View) LatestValue(ctx context.Context, entity, field string, asOf time.Time) (float64, error) {
	f, err := v.LatestFact(ctx, entity, field, asOf)
	if err != nil {
		return 0, err
	}
	return f.Value, nil
}

// Values returns the numeric series of up to limit observable facts,
// ordered oldest first.
func (v *View) Values(ctx context.Context, entity, field string, asOf time.Time, limit int) ([]float64, error) {
	facts, err := v.History(ctx, entity, field, asOf, limit)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(facts))
	for i, f := range facts {
		values[i] = f.Value
	}
	return values, nil
}

// fetch pulls the raw series from the source, memoized per (entity, field).
// The cache stores everything up to asOf; later asOf dates within the same
// run refetch because a wider window may expose more facts.
func (v *View) fetch(ctx context.Context, entity, field string, asOf time.Time) ([]contracts.Fact, error) {
	if cached, ok := v.cache.get(entity, field, asOf); ok {
		return cached, nil
	}

	from := asOf.AddDate(-12, 0, 0)
	facts, err := v.source.Fetch(ctx, entity, []string{field}, from, asOf)
	if err != nil {
		v.logger.WithFields(map[string]interface{}{
			"stage":  contracts.StageData.ShortName(),
			"entity": entity,
			"field":  field,
			"as_of":  asOf.Format("2006-01-02"),
		}).WithError(err).Warn("fact fetch failed")
		return nil, fmt.Errorf("fetch %s/%s: %w", entity, field, contracts.ErrDataUnavailable)
	}

	v.cache.put(entity, field, asOf, facts)
	return facts, nil
}
