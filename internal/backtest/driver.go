package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkweon/athena/internal/analytics"
	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/pit"
	"github.com/mkweon/athena/internal/portfolio"
	"github.com/mkweon/athena/internal/screen"
	"github.com/mkweon/athena/internal/strategy"
	"github.com/mkweon/athena/pkg/logger"
)

// Driver replays the screening pipeline over historical rebalance dates.
// The loop is strictly sequential: each date's evaluation depends on the
// prior period's ending portfolio. Parallelism lives inside the pipeline,
// never across dates. ⭐ SSOT: the simulation loop lives here only.
type Driver struct {
	view     *pit.View
	pipeline *screen.Pipeline
	engine   *portfolio.Engine
	analyzer *analytics.Analyzer
	config   *strategy.Config
	logger   *logger.Logger
}

// NewDriver wires a backtest driver from the already-constructed stages.
func NewDriver(view *pit.View, pipeline *screen.Pipeline, engine *portfolio.Engine, analyzer *analytics.Analyzer, config *strategy.Config, log *logger.Logger) *Driver {
	return &Driver{
		view:     view,
		pipeline: pipeline,
		engine:   engine,
		analyzer: analyzer,
		config:   config,
		logger:   log,
	}
}

// Result is everything a completed (or cleanly cancelled) run produced.
type Result struct {
	Report    *contracts.PerformanceReport
	Periods   []contracts.PeriodReturn
	Snapshots []*contracts.Portfolio
	Trades    []contracts.Trade
	Records   map[string][]contracts.ScoreRecord // keyed by date, 2006-01-02
}

// Run executes the backtest from start to end. Cancellation is checked
// between rebalance dates only, so an aborted run still ends on a fully
// completed rebalance; its partial Result is returned alongside ctx.Err().
func (d *Driver) Run(ctx context.Context, start, end time.Time, universe []contracts.Entity) (*Result, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("backtest start %s not before end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	dates := Schedule(start, end, d.config.Backtest.RebalanceFrequency)
	result := &Result{Records: make(map[string][]contracts.ScoreRecord)}

	current := &contracts.Portfolio{
		Date: start,
		Cash: decimal.NewFromFloat(d.config.Backtest.InitialCapital),
	}
	openValue := current.TotalValue()
	var openCost decimal.Decimal
	lastWasEmpty := false

	d.logger.WithFields(map[string]interface{}{
		"start":     start.Format("2006-01-02"),
		"end":       end.Format("2006-01-02"),
		"frequency": d.config.Backtest.RebalanceFrequency,
		"dates":     len(dates),
		"universe":  len(universe),
	}).Info("Backtest started")

	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			d.finish(ctx, result)
			return result, err
		}

		prices := d.fetchPrices(ctx, date, universe, current)

		// Close the period that ends today before trading on today.
		if i > 0 {
			marked := d.engine.MarkToMarket(current, date, prices)
			result.Periods = append(result.Periods,
				d.closePeriod(dates[i-1], date, openValue, openCost, current, marked, prices, lastWasEmpty))
			current = marked
		}

		// The final date only marks; there is no next period to open.
		if i == len(dates)-1 {
			result.Snapshots = append(result.Snapshots, current)
			break
		}

		next, trades, cost, empty, err := d.rebalance(ctx, date, universe, prices, current, result)
		if err != nil {
			return nil, err
		}
		current = next
		openValue = current.TotalValue()
		openCost = cost
		lastWasEmpty = empty
		result.Trades = append(result.Trades, trades...)
		result.Snapshots = append(result.Snapshots, current)
	}

	d.finish(ctx, result)
	d.logger.WithFields(map[string]interface{}{
		"periods":           len(result.Periods),
		"trades":            len(result.Trades),
		"cumulative_return": result.Report.CumulativeReturn,
	}).Info("Backtest completed")

	return result, nil
}

// rebalance screens the universe at date and rebuilds the portfolio from
// the surviving pool. An empty pool liquidates to cash and the run
// continues: a date with no qualifying entity is a finding, not a failure.
func (d *Driver) rebalance(ctx context.Context, date time.Time, universe []contracts.Entity, prices map[string]decimal.Decimal, current *contracts.Portfolio, result *Result) (*contracts.Portfolio, []contracts.Trade, decimal.Decimal, bool, error) {
	records, err := d.pipeline.ScreenAt(ctx, date, universe)
	if err != nil {
		return nil, nil, decimal.Zero, false, fmt.Errorf("screen at %s: %w", date.Format("2006-01-02"), err)
	}
	result.Records[date.Format("2006-01-02")] = records

	var candidates []portfolio.Candidate
	for _, rec := range screen.Pool(records) {
		price, ok := prices[rec.Entity]
		if !ok {
			// In the pool but unpriced today; cannot trade it.
			continue
		}
		candidates = append(candidates, portfolio.Candidate{
			Entity: rec.Entity,
			Name:   rec.Name,
			Score:  rec.TotalScore,
			Price:  price,
		})
	}

	empty := len(candidates) == 0
	if empty {
		poolErr := &contracts.EmptyPoolError{Date: date}
		d.logger.WithField("date", date.Format("2006-01-02")).Warn(poolErr.Error())
	}

	next, trades, err := d.engine.Rebalance(current, date, candidates)
	if err != nil {
		return nil, nil, decimal.Zero, false, err
	}

	var cost decimal.Decimal
	for _, t := range trades {
		cost = cost.Add(t.Cost)
	}
	return next, trades, cost, empty, nil
}

// closePeriod records the realized outcome between two rebalance dates.
func (d *Driver) closePeriod(start, end time.Time, startValue, cost decimal.Decimal, opened, marked *contracts.Portfolio, prices map[string]decimal.Decimal, emptyPool bool) contracts.PeriodReturn {
	period := contracts.PeriodReturn{
		Start:      start,
		End:        end,
		StartValue: startValue,
		EndValue:   marked.TotalValue(),
		Cost:       cost,
		EmptyPool:  emptyPool,
	}
	if emptyPool {
		period.Warning = (&contracts.EmptyPoolError{Date: start}).Error()
	}

	if startValue.Sign() > 0 {
		ratio, _ := period.EndValue.Div(startValue).Float64()
		period.Return = ratio - 1
	}

	period.EntityReturns = make(map[string]float64, len(opened.Positions))
	for _, pos := range opened.Positions {
		endPrice, ok := prices[pos.Entity]
		if !ok || pos.Price.Sign() <= 0 {
			continue
		}
		r, _ := endPrice.Div(pos.Price).Float64()
		period.EntityReturns[pos.Entity] = r - 1
	}
	return period
}

// fetchPrices collects closing prices for the universe and any carried
// holdings. A missing quote is degraded, not fatal.
func (d *Driver) fetchPrices(ctx context.Context, date time.Time, universe []contracts.Entity, current *contracts.Portfolio) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(universe))

	lookup := func(id string) {
		if _, done := prices[id]; done {
			return
		}
		v, err := d.view.LatestValue(ctx, id, contracts.FieldClose, date)
		if err != nil || v <= 0 {
			return
		}
		prices[id] = decimal.NewFromFloat(v)
	}

	for _, e := range universe {
		lookup(e.ID)
	}
	for _, pos := range current.Positions {
		lookup(pos.Entity)
	}
	return prices
}

// finish computes the report over whatever periods completed, including
// the benchmark comparison when one is configured.
func (d *Driver) finish(ctx context.Context, result *Result) {
	perYear := PeriodsPerYear(d.config.Backtest.RebalanceFrequency)
	result.Report = d.analyzer.Analyze(result.Periods, perYear)

	bench := d.config.Backtest.Benchmark
	if bench == "" || len(result.Periods) == 0 {
		return
	}

	portfolioReturns := make([]float64, len(result.Periods))
	benchReturns := make([]float64, 0, len(result.Periods))
	for i, p := range result.Periods {
		portfolioReturns[i] = p.Return

		startPx, err1 := d.view.LatestValue(ctx, bench, contracts.FieldClose, p.Start)
		endPx, err2 := d.view.LatestValue(ctx, bench, contracts.FieldClose, p.End)
		if err1 != nil || err2 != nil || startPx <= 0 {
			// Partial benchmark history: skip the comparison entirely
			// rather than compare misaligned series.
			d.logger.WithField("benchmark", bench).Warn("Benchmark series incomplete, comparison skipped")
			return
		}
		benchReturns = append(benchReturns, endPx/startPx-1)
	}

	d.analyzer.Compare(result.Report, bench, portfolioReturns, benchReturns)
}
