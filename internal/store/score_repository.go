package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkweon/athena/internal/contracts"
)

// ScoreRepository persists per-entity screening results.
type ScoreRepository struct {
	db *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository instance
func NewScoreRepository(db *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Save upserts a single score record. Records are keyed by (entity, date);
// re-running a screen for the same date replaces the previous result.
func (r *ScoreRepository) Save(ctx context.Context, record *contracts.ScoreRecord) error {
	reasonsJSON, err := json.Marshal(record.ExclusionReasons)
	if err != nil {
		return fmt.Errorf("marshal exclusion reasons: %w", err)
	}
	financialJSON, err := json.Marshal(record.Financial)
	if err != nil {
		return fmt.Errorf("marshal financial breakdown: %w", err)
	}
	competitiveJSON, err := json.Marshal(record.Competitive)
	if err != nil {
		return fmt.Errorf("marshal competitive breakdown: %w", err)
	}

	query := `
		INSERT INTO screen.score_records (
			entity_id, entity_name, group_code, score_date,
			passed_qualification, passed_exclusion, passed_scoring,
			exclusion_reasons, financial, competitive, total_score, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (entity_id, score_date) DO UPDATE SET
			entity_name = EXCLUDED.entity_name,
			group_code = EXCLUDED.group_code,
			passed_qualification = EXCLUDED.passed_qualification,
			passed_exclusion = EXCLUDED.passed_exclusion,
			passed_scoring = EXCLUDED.passed_scoring,
			exclusion_reasons = EXCLUDED.exclusion_reasons,
			financial = EXCLUDED.financial,
			competitive = EXCLUDED.competitive,
			total_score = EXCLUDED.total_score,
			created_at = NOW()
	`

	_, err = r.db.Exec(ctx, query,
		record.Entity,
		record.Name,
		record.Group,
		record.Date,
		record.PassedQualification,
		record.PassedExclusion,
		record.PassedScoring,
		reasonsJSON,
		financialJSON,
		competitiveJSON,
		record.TotalScore,
	)
	if err != nil {
		return fmt.Errorf("insert score record %s@%s: %w",
			record.Entity, record.Date.Format("2006-01-02"), err)
	}

	return nil
}

// SaveBatch saves multiple score records
func (r *ScoreRepository) SaveBatch(ctx context.Context, records []*contracts.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	for _, record := range records {
		if err := r.Save(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// Query retrieves the score history for one entity over a date range.
func (r *ScoreRepository) Query(ctx context.Context, entity string, from, to time.Time) ([]*contracts.ScoreRecord, error) {
	query := `
		SELECT entity_id, entity_name, group_code, score_date,
		       passed_qualification, passed_exclusion, passed_scoring,
		       exclusion_reasons, financial, competitive, total_score
		FROM screen.score_records
		WHERE entity_id = $1 AND score_date BETWEEN $2 AND $3
		ORDER BY score_date
	`

	rows, err := r.db.Query(ctx, query, entity, from, to)
	if err != nil {
		return nil, fmt.Errorf("query score records for %s: %w", entity, err)
	}
	defer rows.Close()

	return scanScoreRecords(rows)
}

// GetPool retrieves the records that survived all three gates at a date,
// best score first.
func (r *ScoreRepository) GetPool(ctx context.Context, date time.Time, minScore float64) ([]*contracts.ScoreRecord, error) {
	query := `
		SELECT entity_id, entity_name, group_code, score_date,
		       passed_qualification, passed_exclusion, passed_scoring,
		       exclusion_reasons, financial, competitive, total_score
		FROM screen.score_records
		WHERE score_date = $1
		  AND passed_qualification AND passed_exclusion AND passed_scoring
		  AND total_score >= $2
		ORDER BY total_score DESC, entity_id
	`

	rows, err := r.db.Query(ctx, query, date, minScore)
	if err != nil {
		return nil, fmt.Errorf("query pool at %s: %w", date.Format("2006-01-02"), err)
	}
	defer rows.Close()

	return scanScoreRecords(rows)
}

type scoreRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanScoreRecords(rows scoreRows) ([]*contracts.ScoreRecord, error) {
	var records []*contracts.ScoreRecord
	for rows.Next() {
		record := &contracts.ScoreRecord{}
		var reasonsJSON, financialJSON, competitiveJSON []byte
		if err := rows.Scan(
			&record.Entity,
			&record.Name,
			&record.Group,
			&record.Date,
			&record.PassedQualification,
			&record.PassedExclusion,
			&record.PassedScoring,
			&reasonsJSON,
			&financialJSON,
			&competitiveJSON,
			&record.TotalScore,
		); err != nil {
			return nil, fmt.Errorf("scan score record: %w", err)
		}

		if len(reasonsJSON) > 0 {
			if err := json.Unmarshal(reasonsJSON, &record.ExclusionReasons); err != nil {
				return nil, fmt.Errorf("unmarshal exclusion reasons: %w", err)
			}
		}
		if len(financialJSON) > 0 {
			if err := json.Unmarshal(financialJSON, &record.Financial); err != nil {
				return nil, fmt.Errorf("unmarshal financial breakdown: %w", err)
			}
		}
		if len(competitiveJSON) > 0 {
			if err := json.Unmarshal(competitiveJSON, &record.Competitive); err != nil {
				return nil, fmt.Errorf("unmarshal competitive breakdown: %w", err)
			}
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
