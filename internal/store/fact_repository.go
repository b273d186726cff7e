package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkweon/athena/internal/contracts"
)

// FactRepository stores raw facts and serves them back as a FactSource.
// It sits between the provider and the point-in-time view so repeated
// backtests do not refetch the same history.
type FactRepository struct {
	db *pgxpool.Pool
}

// NewFactRepository creates a new FactRepository instance
func NewFactRepository(db *pgxpool.Pool) *FactRepository {
	return &FactRepository{db: db}
}

// Fetch implements contracts.FactSource over the facts table.
func (r *FactRepository) Fetch(ctx context.Context, entity string, fields []string, from, to time.Time) ([]contracts.Fact, error) {
	query := `
		SELECT entity_id, field, value, period_end, published_at, frequency
		FROM screen.facts
		WHERE entity_id = $1
		  AND field = ANY($2)
		  AND period_end BETWEEN $3 AND $4
		ORDER BY field, period_end
	`

	rows, err := r.db.Query(ctx, query, entity, fields, from, to)
	if err != nil {
		return nil, fmt.Errorf("query facts for %s: %w", entity, err)
	}
	defer rows.Close()

	var facts []contracts.Fact
	for rows.Next() {
		var fact contracts.Fact
		var publishedAt *time.Time
		if err := rows.Scan(
			&fact.Entity,
			&fact.Field,
			&fact.Value,
			&fact.PeriodEnd,
			&publishedAt,
			&fact.Frequency,
		); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		if publishedAt != nil {
			fact.PublishedAt = *publishedAt
		}
		facts = append(facts, fact)
	}

	return facts, rows.Err()
}

// Save upserts a single fact. Restatements for the same period are kept
// as separate rows distinguished by publication date.
func (r *FactRepository) Save(ctx context.Context, fact contracts.Fact) error {
	query := `
		INSERT INTO screen.facts (
			entity_id, field, value, period_end, published_at, frequency, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (entity_id, field, period_end, published_at) DO UPDATE SET
			value = EXCLUDED.value,
			frequency = EXCLUDED.frequency
	`

	var publishedAt *time.Time
	if !fact.PublishedAt.IsZero() {
		publishedAt = &fact.PublishedAt
	}

	_, err := r.db.Exec(ctx, query,
		fact.Entity,
		fact.Field,
		fact.Value,
		fact.PeriodEnd,
		publishedAt,
		fact.Frequency,
	)
	if err != nil {
		return fmt.Errorf("insert fact %s/%s: %w", fact.Entity, fact.Field, err)
	}

	return nil
}

// SaveBatch saves multiple facts
func (r *FactRepository) SaveBatch(ctx context.Context, facts []contracts.Fact) error {
	if len(facts) == 0 {
		return nil
	}

	for _, fact := range facts {
		if err := r.Save(ctx, fact); err != nil {
			return err
		}
	}
	return nil
}
