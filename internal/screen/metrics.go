package screen

import (
	"context"
	"fmt"
	"time"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/indicator"
	"github.com/mkweon/athena/internal/pit"
)

// EntityMetrics is everything the three filter stages need for one entity,
// computed once from the point-in-time view. Optional fields carry an ok
// flag instead of a zero value so "missing" and "zero" stay distinct.
type EntityMetrics struct {
	Entity contracts.Entity
	Group  string // top-level classification as of the screening date

	// Profitability series, oldest first.
	ROESeries       []float64
	NetProfitSeries []float64
	RevenueSeries   []float64

	ROIC            float64
	HasROIC         bool
	DebtRatio       float64
	HasDebtRatio    bool
	CurrentRatio    float64
	HasCurrentRatio bool

	CashflowQuality    float64
	HasCashflowQuality bool

	GrossMargin    float64
	HasGrossMargin bool

	GoodwillRatio      float64
	HasGoodwillRatio   bool
	PledgeRatio        float64
	HasPledgeRatio     bool
	RelatedTxnRatio    float64
	HasRelatedTxnRatio bool

	ValuationPercentile    float64
	HasValuationPercentile bool

	IntegrityViolation bool
}

// Collector assembles EntityMetrics from the point-in-time view.
// ⭐ SSOT: the filter stages never touch pit.View directly.
type Collector struct {
	view           *pit.View
	years          int // lookback for multi-year series
	integrityYears int // lookback for past integrity violations
}

// NewCollector returns a Collector with the given multi-year and
// integrity-violation lookbacks.
func NewCollector(view *pit.View, years, integrityYears int) *Collector {
	if years < indicator.MinObservations {
		years = indicator.MinObservations
	}
	if integrityYears < 1 {
		integrityYears = 1
	}
	return &Collector{view: view, years: years, integrityYears: integrityYears}
}

// Collect builds the metric bundle for one entity as of date. A missing
// core series (ROE) is a hard ErrDataUnavailable; optional ratios degrade
// to their has-flag being false.
func (c *Collector) Collect(ctx context.Context, entity contracts.Entity, asOf time.Time) (*EntityMetrics, error) {
	m := &EntityMetrics{Entity: entity}
	m.Group = entity.ClassificationAt(asOf).Level1

	roe, err := c.view.Values(ctx, entity.ID, contracts.FieldROE, asOf, c.years)
	if err != nil {
		return nil, err
	}
	if len(roe) == 0 {
		return nil, fmt.Errorf("entity %s: no profitability history as of %s: %w",
			entity.ID, asOf.Format("2006-01-02"), contracts.ErrDataUnavailable)
	}
	m.ROESeries = roe

	// Optional series: absence shrinks the usable rule set, not the run.
	m.NetProfitSeries, _ = c.view.Values(ctx, entity.ID, contracts.FieldNetProfit, asOf, c.years)
	m.RevenueSeries, _ = c.view.Values(ctx, entity.ID, contracts.FieldRevenue, asOf, c.years)

	m.ROIC, m.HasROIC = c.latest(ctx, entity.ID, contracts.FieldROIC, asOf)
	m.DebtRatio, m.HasDebtRatio = c.latest(ctx, entity.ID, contracts.FieldDebtRatio, asOf)
	m.CurrentRatio, m.HasCurrentRatio = c.latest(ctx, entity.ID, contracts.FieldCurrentRatio, asOf)
	m.GrossMargin, m.HasGrossMargin = c.latest(ctx, entity.ID, contracts.FieldGrossMargin, asOf)
	m.GoodwillRatio, m.HasGoodwillRatio = c.latest(ctx, entity.ID, contracts.FieldGoodwillRatio, asOf)
	m.PledgeRatio, m.HasPledgeRatio = c.latest(ctx, entity.ID, contracts.FieldPledgeRatio, asOf)
	m.RelatedTxnRatio, m.HasRelatedTxnRatio = c.latest(ctx, entity.ID, contracts.FieldRelatedTxnRatio, asOf)
	m.ValuationPercentile, m.HasValuationPercentile = c.latest(ctx, entity.ID, contracts.FieldValuationPercent, asOf)

	if ocf, ok := c.latest(ctx, entity.ID, contracts.FieldOperatingCF, asOf); ok {
		if len(m.NetProfitSeries) > 0 {
			ni := m.NetProfitSeries[len(m.NetProfitSeries)-1]
			if q, err := indicator.CashflowQuality(ocf, ni); err == nil {
				m.CashflowQuality = q
				m.HasCashflowQuality = true
			}
		}
	}

	// A violation anywhere inside the lookback window keeps the flag up,
	// not just the latest reported period.
	if flags, err := c.view.Values(ctx, entity.ID, contracts.FieldIntegrityFlag, asOf, c.integrityYears); err == nil {
		for _, v := range flags {
			if v > 0 {
				m.IntegrityViolation = true
				break
			}
		}
	}

	return m, nil
}

func (c *Collector) latest(ctx context.Context, entity, field string, asOf time.Time) (float64, bool) {
	v, err := c.view.LatestValue(ctx, entity, field, asOf)
	if err != nil {
		return 0, false
	}
	return v, true
}
