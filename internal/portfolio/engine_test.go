package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/strategy"
	"github.com/mkweon/athena/pkg/config"
	"github.com/mkweon/athena/pkg/logger"
)

func newTestEngine(rules strategy.PortfolioRules) *Engine {
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	return NewEngine(rules, log)
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func rebalanceDate() time.Time {
	return time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
}

func TestRebalance_EqualWeightWithLotFlooring(t *testing.T) {
	engine := newTestEngine(strategy.PortfolioRules{
		MaxPositions: 10,
		WeightMethod: strategy.WeightEqual,
		LotSize:      100,
		CostRate:     0,
	})

	prev := &contracts.Portfolio{Date: rebalanceDate().AddDate(0, -3, 0), Cash: dec(100000)}
	candidates := []Candidate{
		{Entity: "E1", Score: 80, Price: dec(120)},
		{Entity: "E2", Score: 70, Price: dec(45)},
	}

	next, trades, err := engine.Rebalance(prev, rebalanceDate(), candidates)
	require.NoError(t, err)

	// 50000 per entity: E1 floor(50000/12000)=4 lots = 400 shares,
	// E2 floor(50000/4500)=11 lots = 1100 shares.
	require.Len(t, next.Positions, 2)
	e1, _ := next.GetPosition("E1")
	e2, _ := next.GetPosition("E2")
	assert.Equal(t, int64(400), e1.Shares)
	assert.Equal(t, int64(1100), e2.Shares)

	// Shares are whole lot multiples.
	assert.Zero(t, e1.Shares%100)
	assert.Zero(t, e2.Shares%100)

	assert.Len(t, trades, 2)
	for _, tr := range trades {
		assert.Equal(t, contracts.TradeBuy, tr.Side)
	}
}

func TestRebalance_ValueConservedAtZeroCost(t *testing.T) {
	engine := newTestEngine(strategy.PortfolioRules{
		MaxPositions: 10,
		WeightMethod: strategy.WeightEqual,
		LotSize:      100,
		CostRate:     0,
	})

	prev := &contracts.Portfolio{
		Date: rebalanceDate().AddDate(0, -3, 0),
		Cash: dec(1234.56),
		Positions: []contracts.Position{
			{Entity: "E1", Shares: 300, Price: dec(95)},
			{Entity: "E2", Shares: 500, Price: dec(40)},
		},
	}
	before := prev.TotalValue()

	candidates := []Candidate{
		{Entity: "E2", Score: 75, Price: dec(40)},
		{Entity: "E3", Score: 85, Price: dec(60)},
	}

	next, _, err := engine.Rebalance(prev, rebalanceDate(), candidates)
	require.NoError(t, err)

	// Same marks on sale, zero cost: not a cent appears or vanishes.
	assert.True(t, next.TotalValue().Equal(before),
		"before %s, after %s", before, next.TotalValue())
}

func TestRebalance_TransactionCosts(t *testing.T) {
	engine := newTestEngine(strategy.PortfolioRules{
		MaxPositions: 10,
		WeightMethod: strategy.WeightEqual,
		LotSize:      1,
		CostRate:     0.001,
	})

	prev := &contracts.Portfolio{Date: rebalanceDate().AddDate(0, -3, 0), Cash: dec(10000)}
	candidates := []Candidate{{Entity: "E1", Score: 80, Price: dec(10)}}

	next, trades, err := engine.Rebalance(prev, rebalanceDate(), candidates)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	// Costs leave the portfolio: ending value < starting capital.
	assert.True(t, next.TotalValue().LessThan(dec(10000)))
	assert.True(t, trades[0].Cost.Sign() > 0)

	// The buy is budgeted net of cost: floor(10000/1.001/10) = 999
	// shares, spend 9990 plus 9.99 cost stays inside the capital.
	e1, _ := next.GetPosition("E1")
	assert.Equal(t, int64(999), e1.Shares)

	// Cash never goes negative.
	assert.True(t, next.Cash.Sign() >= 0)
}

func TestRebalance_ScoreWeighting(t *testing.T) {
	engine := newTestEngine(strategy.PortfolioRules{
		MaxPositions: 10,
		WeightMethod: strategy.WeightScore,
		LotSize:      1,
		CostRate:     0,
	})

	prev := &contracts.Portfolio{Date: rebalanceDate().AddDate(0, -3, 0), Cash: dec(90000)}
	candidates := []Candidate{
		{Entity: "E1", Score: 60, Price: dec(1)},
		{Entity: "E2", Score: 30, Price: dec(1)},
	}

	next, _, err := engine.Rebalance(prev, rebalanceDate(), candidates)
	require.NoError(t, err)

	e1, _ := next.GetPosition("E1")
	e2, _ := next.GetPosition("E2")
	// 2:1 score ratio carries through to the allocations.
	assert.Equal(t, int64(60000), e1.Shares)
	assert.Equal(t, int64(30000), e2.Shares)
}

func TestRebalance_MaxPositionsCutByScoreThenID(t *testing.T) {
	engine := newTestEngine(strategy.PortfolioRules{
		MaxPositions: 2,
		WeightMethod: strategy.WeightEqual,
		LotSize:      1,
		CostRate:     0,
	})

	prev := &contracts.Portfolio{Date: rebalanceDate().AddDate(0, -3, 0), Cash: dec(10000)}
	candidates := []Candidate{
		{Entity: "E3", Score: 70, Price: dec(10)},
		{Entity: "E1", Score: 70, Price: dec(10)},
		{Entity: "E2", Score: 90, Price: dec(10)},
	}

	next, _, err := engine.Rebalance(prev, rebalanceDate(), candidates)
	require.NoError(t, err)

	// E2 by score, then E1 beats E3 on the ID tie-break.
	assert.True(t, next.Contains("E2"))
	assert.True(t, next.Contains("E1"))
	assert.False(t, next.Contains("E3"))
}

func TestRebalance_EmptyPoolLiquidates(t *testing.T) {
	engine := newTestEngine(strategy.PortfolioRules{
		MaxPositions: 10,
		WeightMethod: strategy.WeightEqual,
		LotSize:      100,
		CostRate:     0,
	})

	prev := &contracts.Portfolio{
		Date: rebalanceDate().AddDate(0, -3, 0),
		Cash: dec(500),
		Positions: []contracts.Position{
			{Entity: "E1", Shares: 200, Price: dec(50)},
		},
	}

	next, trades, err := engine.Rebalance(prev, rebalanceDate(), nil)
	require.NoError(t, err)

	assert.True(t, next.Empty())
	assert.True(t, next.Cash.Equal(dec(10500)))
	require.Len(t, trades, 1)
	assert.Equal(t, contracts.TradeSell, trades[0].Side)
}

func TestRebalance_RejectsNonPositivePrice(t *testing.T) {
	engine := newTestEngine(strategy.PortfolioRules{
		MaxPositions: 10,
		WeightMethod: strategy.WeightEqual,
		LotSize:      100,
	})

	prev := &contracts.Portfolio{Date: rebalanceDate(), Cash: dec(1000)}
	_, _, err := engine.Rebalance(prev, rebalanceDate(), []Candidate{
		{Entity: "E1", Score: 80, Price: decimal.Zero},
	})
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}

func TestMarkToMarket(t *testing.T) {
	engine := newTestEngine(strategy.PortfolioRules{MaxPositions: 10, WeightMethod: strategy.WeightEqual, LotSize: 100})

	p := &contracts.Portfolio{
		Date: rebalanceDate(),
		Cash: dec(100),
		Positions: []contracts.Position{
			{Entity: "E1", Shares: 100, Price: dec(10)},
		},
	}

	later := rebalanceDate().AddDate(0, 3, 0)
	marked := engine.MarkToMarket(p, later, map[string]decimal.Decimal{"E1": dec(11)})

	// 100 shares moving 10 -> 11 with 100 cash: 1100 -> 1200.
	assert.True(t, marked.TotalValue().Equal(dec(1200)))

	// The original snapshot is untouched.
	assert.True(t, p.TotalValue().Equal(dec(1100)))
	assert.Equal(t, later, marked.Date)
}
