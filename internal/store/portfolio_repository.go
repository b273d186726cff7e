package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mkweon/athena/internal/contracts"
)

// PortfolioRepository persists holdings snapshots.
type PortfolioRepository struct {
	db *pgxpool.Pool
}

// NewPortfolioRepository creates a new PortfolioRepository instance
func NewPortfolioRepository(db *pgxpool.Pool) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// Save upserts a portfolio snapshot for its rebalance date.
func (r *PortfolioRepository) Save(ctx context.Context, portfolio *contracts.Portfolio) error {
	positionsJSON, err := json.Marshal(portfolio.Positions)
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}

	query := `
		INSERT INTO screen.portfolio_snapshots (
			snapshot_date, positions, cash, total_value, created_at
		) VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (snapshot_date) DO UPDATE SET
			positions = EXCLUDED.positions,
			cash = EXCLUDED.cash,
			total_value = EXCLUDED.total_value,
			created_at = NOW()
	`

	_, err = r.db.Exec(ctx, query,
		portfolio.Date,
		positionsJSON,
		portfolio.Cash.String(),
		portfolio.TotalValue().String(),
	)
	if err != nil {
		return fmt.Errorf("insert portfolio snapshot %s: %w",
			portfolio.Date.Format("2006-01-02"), err)
	}

	return nil
}

// GetByDate retrieves the snapshot at an exact rebalance date.
func (r *PortfolioRepository) GetByDate(ctx context.Context, date time.Time) (*contracts.Portfolio, error) {
	query := `
		SELECT snapshot_date, positions, cash
		FROM screen.portfolio_snapshots
		WHERE snapshot_date = $1
	`

	portfolio, err := scanPortfolio(r.db.QueryRow(ctx, query, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("portfolio at %s: %w",
				date.Format("2006-01-02"), contracts.ErrDataUnavailable)
		}
		return nil, err
	}
	return portfolio, nil
}

// Query retrieves all snapshots inside a date range, oldest first.
func (r *PortfolioRepository) Query(ctx context.Context, from, to time.Time) ([]*contracts.Portfolio, error) {
	query := `
		SELECT snapshot_date, positions, cash
		FROM screen.portfolio_snapshots
		WHERE snapshot_date BETWEEN $1 AND $2
		ORDER BY snapshot_date
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query portfolio snapshots: %w", err)
	}
	defer rows.Close()

	var portfolios []*contracts.Portfolio
	for rows.Next() {
		portfolio, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, portfolio)
	}

	return portfolios, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(row rowScanner) (*contracts.Portfolio, error) {
	portfolio := &contracts.Portfolio{}
	var positionsJSON []byte
	var cashStr string

	if err := row.Scan(&portfolio.Date, &positionsJSON, &cashStr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan portfolio snapshot: %w", err)
	}

	if len(positionsJSON) > 0 {
		if err := json.Unmarshal(positionsJSON, &portfolio.Positions); err != nil {
			return nil, fmt.Errorf("unmarshal positions: %w", err)
		}
	}

	cash, err := decimal.NewFromString(cashStr)
	if err != nil {
		return nil, fmt.Errorf("parse cash %q: %w", cashStr, err)
	}
	portfolio.Cash = cash

	return portfolio, nil
}
