package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a single holding inside a Portfolio snapshot.
type Position struct {
	Entity string          `json:"entity"`
	Shares int64           `json:"shares"` // floored to lot size
	Price  decimal.Decimal `json:"price"`  // price used at the snapshot date
	Weight float64         `json:"weight"` // target weight at allocation time
}

// Value returns shares × price.
func (p Position) Value() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(p.Shares))
}

// Portfolio is an immutable holdings snapshot as of a rebalance date.
// Rebalancing produces a new Portfolio; the accounting history retains both.
type Portfolio struct {
	Date      time.Time       `json:"date"`
	Positions []Position      `json:"positions"` // sorted by entity ID
	Cash      decimal.Decimal `json:"cash"`
}

// TotalValue returns cash plus the value of all positions at snapshot prices.
func (p *Portfolio) TotalValue() decimal.Decimal {
	total := p.Cash
	for _, pos := range p.Positions {
		total = total.Add(pos.Value())
	}
	return total
}

// GetPosition finds a position by entity ID.
func (p *Portfolio) GetPosition(entity string) (Position, bool) {
	for _, pos := range p.Positions {
		if pos.Entity == entity {
			return pos, true
		}
	}
	return Position{}, false
}

// Contains reports whether the entity is held.
func (p *Portfolio) Contains(entity string) bool {
	_, ok := p.GetPosition(entity)
	return ok
}

// Count returns the number of positions.
func (p *Portfolio) Count() int {
	return len(p.Positions)
}

// Empty reports whether the snapshot holds no positions.
func (p *Portfolio) Empty() bool {
	return len(p.Positions) == 0
}

// TradeSide is the direction of a rebalance trade.
type TradeSide string

const (
	TradeBuy  TradeSide = "BUY"
	TradeSell TradeSide = "SELL"
)

// Trade records a single entry or exit produced by a rebalance.
type Trade struct {
	Date   time.Time       `json:"date"`
	Entity string          `json:"entity"`
	Side   TradeSide       `json:"side"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Cost   decimal.Decimal `json:"cost"` // transaction cost charged
}
