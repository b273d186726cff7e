package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/strategy"
	"github.com/mkweon/athena/pkg/logger"
)

// Engine rebalances portfolios between immutable snapshots.
// ⭐ SSOT: position, cash, and cost accounting live here and nowhere else.
type Engine struct {
	config strategy.PortfolioRules
	logger *logger.Logger
}

// NewEngine creates a portfolio engine from the strategy portfolio rules.
func NewEngine(config strategy.PortfolioRules, log *logger.Logger) *Engine {
	return &Engine{config: config, logger: log}
}

// Candidate is one pool member offered to the rebalance, with its
// screening score and the price observable on the rebalance date.
type Candidate struct {
	Entity string
	Name   string
	Score  float64
	Price  decimal.Decimal
}

// Rebalance liquidates the previous portfolio at current prices and
// rebuilds it from the candidate pool. The input portfolio is not
// modified; the returned snapshot and trade list are freshly allocated.
// Candidates beyond MaxPositions are cut by score descending, ties by
// entity ID.
func (e *Engine) Rebalance(prev *contracts.Portfolio, date time.Time, candidates []Candidate) (*contracts.Portfolio, []contracts.Trade, error) {
	prices := make(map[string]decimal.Decimal, len(candidates))
	for _, c := range candidates {
		if c.Price.Sign() <= 0 {
			return nil, nil, fmt.Errorf("candidate %s has price %s: %w",
				c.Entity, c.Price, contracts.ErrUndefined)
		}
		prices[c.Entity] = c.Price
	}

	capital := prev.Cash
	var trades []contracts.Trade

	// Liquidate everything first; buys below repurchase what is kept.
	// Selling at the mark keeps value conserved at zero cost.
	for _, pos := range prev.Positions {
		price, ok := prices[pos.Entity]
		if !ok {
			// No longer in the pool and no quote: exit at the carried mark.
			price = pos.Price
		}
		proceeds := price.Mul(decimal.NewFromInt(pos.Shares))
		cost := e.tradeCost(proceeds)
		capital = capital.Add(proceeds).Sub(cost)
		trades = append(trades, contracts.Trade{
			Date:   date,
			Entity: pos.Entity,
			Side:   contracts.TradeSell,
			Shares: pos.Shares,
			Price:  price,
			Cost:   cost,
		})
	}

	selected := e.selectTop(candidates)
	nums, den := e.allocationWeights(selected)

	// Trade cost comes out of each allocation, not on top of it, so a
	// fully filled buy can never overdraw cash.
	costAdj := decimal.NewFromInt(1).Add(decimal.NewFromFloat(e.config.CostRate))

	next := &contracts.Portfolio{Date: date, Cash: capital}
	for _, c := range selected {
		// Multiply before dividing so exact score ratios allocate exactly.
		target := capital.Mul(nums[c.Entity]).Div(den.Mul(costAdj))
		shares := e.floorToLot(target, c.Price)
		if shares == 0 {
			continue
		}

		spend := c.Price.Mul(decimal.NewFromInt(shares))
		cost := e.tradeCost(spend)
		next.Cash = next.Cash.Sub(spend).Sub(cost)
		next.Positions = append(next.Positions, contracts.Position{
			Entity: c.Entity,
			Shares: shares,
			Price:  c.Price,
			Weight: nums[c.Entity].Div(den).InexactFloat64(),
		})
		trades = append(trades, contracts.Trade{
			Date:   date,
			Entity: c.Entity,
			Side:   contracts.TradeBuy,
			Shares: shares,
			Price:  c.Price,
			Cost:   cost,
		})
	}

	if next.Cash.Sign() < 0 {
		return nil, nil, fmt.Errorf("rebalance at %s drove cash negative: %s",
			date.Format("2006-01-02"), next.Cash)
	}

	e.logger.WithFields(map[string]interface{}{
		"stage":     contracts.StagePortfolio.ShortName(),
		"date":      date.Format("2006-01-02"),
		"positions": len(next.Positions),
		"cash":      next.Cash.String(),
		"trades":    len(trades),
	}).Info("Rebalance completed")

	return next, trades, nil
}

// MarkToMarket revalues a portfolio at new prices without trading.
// Positions without a quote keep their carried price.
func (e *Engine) MarkToMarket(p *contracts.Portfolio, date time.Time, prices map[string]decimal.Decimal) *contracts.Portfolio {
	marked := &contracts.Portfolio{Date: date, Cash: p.Cash}
	for _, pos := range p.Positions {
		if price, ok := prices[pos.Entity]; ok && price.Sign() > 0 {
			pos.Price = price
		}
		marked.Positions = append(marked.Positions, pos)
	}
	return marked
}

func (e *Engine) selectTop(candidates []Candidate) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Entity < sorted[j].Entity
	})

	if len(sorted) > e.config.MaxPositions {
		sorted = sorted[:e.config.MaxPositions]
	}
	return sorted
}

// allocationWeights maps entities to weight numerators over a shared
// denominator. Callers divide only after multiplying by capital.
func (e *Engine) allocationWeights(selected []Candidate) (map[string]decimal.Decimal, decimal.Decimal) {
	nums := make(map[string]decimal.Decimal, len(selected))
	if len(selected) == 0 {
		return nums, decimal.NewFromInt(1)
	}

	if e.config.WeightMethod == strategy.WeightScore {
		total := decimal.Zero
		for _, c := range selected {
			total = total.Add(decimal.NewFromFloat(c.Score))
		}
		if total.Sign() > 0 {
			for _, c := range selected {
				nums[c.Entity] = decimal.NewFromFloat(c.Score)
			}
			return nums, total
		}
		// Degenerate scores fall back to equal weighting.
	}

	for _, c := range selected {
		nums[c.Entity] = decimal.NewFromInt(1)
	}
	return nums, decimal.NewFromInt(int64(len(selected)))
}

// floorToLot converts a target allocation into whole lots.
func (e *Engine) floorToLot(target, price decimal.Decimal) int64 {
	lot := decimal.NewFromInt(e.config.LotSize)
	lotPrice := price.Mul(lot)
	if lotPrice.Sign() <= 0 {
		return 0
	}
	lots := target.Div(lotPrice).Floor()
	return lots.IntPart() * e.config.LotSize
}

func (e *Engine) tradeCost(notional decimal.Decimal) decimal.Decimal {
	if e.config.CostRate == 0 {
		return decimal.Zero
	}
	return notional.Mul(decimal.NewFromFloat(e.config.CostRate))
}
