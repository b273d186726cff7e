package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkweon/athena/internal/contracts"
)

// ReportRepository persists backtest outcomes under a run name.
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository instance
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// SaveReport upserts the aggregated performance report for a named run.
func (r *ReportRepository) SaveReport(ctx context.Context, name string, report *contracts.PerformanceReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal performance report: %w", err)
	}

	query := `
		INSERT INTO screen.backtest_reports (
			run_name, start_date, end_date, report, created_at
		) VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (run_name) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			report = EXCLUDED.report,
			created_at = NOW()
	`

	_, err = r.db.Exec(ctx, query, name, report.StartDate, report.EndDate, reportJSON)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", name, err)
	}

	return nil
}

// SavePeriods replaces the per-period returns stored for a named run.
func (r *ReportRepository) SavePeriods(ctx context.Context, name string, periods []contracts.PeriodReturn) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin period save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM screen.backtest_periods WHERE run_name = $1`, name); err != nil {
		return fmt.Errorf("clear periods for %s: %w", name, err)
	}

	query := `
		INSERT INTO screen.backtest_periods (
			run_name, period_index, period_start, period_end, detail
		) VALUES ($1, $2, $3, $4, $5)
	`

	for i, period := range periods {
		detailJSON, err := json.Marshal(period)
		if err != nil {
			return fmt.Errorf("marshal period %d: %w", i, err)
		}
		if _, err := tx.Exec(ctx, query, name, i, period.Start, period.End, detailJSON); err != nil {
			return fmt.Errorf("insert period %d for %s: %w", i, name, err)
		}
	}

	return tx.Commit(ctx)
}

// GetReport retrieves a named run's performance report.
func (r *ReportRepository) GetReport(ctx context.Context, name string) (*contracts.PerformanceReport, error) {
	query := `
		SELECT report
		FROM screen.backtest_reports
		WHERE run_name = $1
	`

	var reportJSON []byte
	if err := r.db.QueryRow(ctx, query, name).Scan(&reportJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", name, contracts.ErrDataUnavailable)
		}
		return nil, fmt.Errorf("query report %s: %w", name, err)
	}

	report := &contracts.PerformanceReport{}
	if err := json.Unmarshal(reportJSON, report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", name, err)
	}

	return report, nil
}

// GetPeriods retrieves a named run's per-period returns in order.
func (r *ReportRepository) GetPeriods(ctx context.Context, name string) ([]contracts.PeriodReturn, error) {
	query := `
		SELECT detail
		FROM screen.backtest_periods
		WHERE run_name = $1
		ORDER BY period_index
	`

	rows, err := r.db.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("query periods %s: %w", name, err)
	}
	defer rows.Close()

	var periods []contracts.PeriodReturn
	for rows.Next() {
		var detailJSON []byte
		if err := rows.Scan(&detailJSON); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		var period contracts.PeriodReturn
		if err := json.Unmarshal(detailJSON, &period); err != nil {
			return nil, fmt.Errorf("unmarshal period: %w", err)
		}
		periods = append(periods, period)
	}

	return periods, rows.Err()
}
