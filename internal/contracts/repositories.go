package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: collaborator and repository interfaces are defined here only

// FactSource is the external data collaborator. Implementations own batching
// and request-rate limits; the engine only sees the fetch contract. A source
// that cannot resolve a fact after bounded retry returns ErrDataUnavailable
// for that fact, never a hard error for the whole range.
type FactSource interface {
	Fetch(ctx context.Context, entity string, fields []string, from, to time.Time) ([]Fact, error)
}

// EntityRepository resolves the screening universe.
type EntityRepository interface {
	GetByID(ctx context.Context, id string) (*Entity, error)
	ListActive(ctx context.Context, asOf time.Time) ([]*Entity, error)
}

// ScoreRepository persists ScoreRecords.
type ScoreRepository interface {
	Save(ctx context.Context, record *ScoreRecord) error
	SaveBatch(ctx context.Context, records []*ScoreRecord) error
	Query(ctx context.Context, entity string, from, to time.Time) ([]*ScoreRecord, error)
	GetPool(ctx context.Context, date time.Time, minScore float64) ([]*ScoreRecord, error)
}

// PortfolioRepository persists Portfolio snapshots.
type PortfolioRepository interface {
	Save(ctx context.Context, portfolio *Portfolio) error
	GetByDate(ctx context.Context, date time.Time) (*Portfolio, error)
	Query(ctx context.Context, from, to time.Time) ([]*Portfolio, error)
}

// ReportRepository persists backtest outcomes.
type ReportRepository interface {
	SaveReport(ctx context.Context, name string, report *PerformanceReport) error
	SavePeriods(ctx context.Context, name string, periods []PeriodReturn) error
	GetReport(ctx context.Context, name string) (*PerformanceReport, error)
}
