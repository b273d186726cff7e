package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles all repositories over one connection pool.
// ⭐ SSOT: repository construction happens only here
type Store struct {
	Entities   *EntityRepository
	Facts      *FactRepository
	Scores     *ScoreRepository
	Portfolios *PortfolioRepository
	Reports    *ReportRepository
}

// New creates all repositories from a shared pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{
		Entities:   NewEntityRepository(db),
		Facts:      NewFactRepository(db),
		Scores:     NewScoreRepository(db),
		Portfolios: NewPortfolioRepository(db),
		Reports:    NewReportRepository(db),
	}
}
