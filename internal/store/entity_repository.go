package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkweon/athena/internal/contracts"
)

// EntityRepository resolves the screening universe from Postgres.
type EntityRepository struct {
	db *pgxpool.Pool
}

// NewEntityRepository creates a new EntityRepository instance
func NewEntityRepository(db *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{db: db}
}

// GetByID retrieves a single entity with its classification history.
func (r *EntityRepository) GetByID(ctx context.Context, id string) (*contracts.Entity, error) {
	query := `
		SELECT id, name, status, flagged, cyclicality, classification_history
		FROM screen.entities
		WHERE id = $1
	`

	entity := &contracts.Entity{}
	var historyJSON []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&entity.ID,
		&entity.Name,
		&entity.Status,
		&entity.Flagged,
		&entity.Cyclicality,
		&historyJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("entity %s: %w", id, contracts.ErrDataUnavailable)
		}
		return nil, fmt.Errorf("query entity %s: %w", id, err)
	}

	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &entity.History); err != nil {
			return nil, fmt.Errorf("unmarshal classification history: %w", err)
		}
	}

	return entity, nil
}

// ListActive retrieves all entities tradable as of the given date.
// Entities listed after asOf are excluded so historical screens do not
// see companies that did not exist yet.
func (r *EntityRepository) ListActive(ctx context.Context, asOf time.Time) ([]*contracts.Entity, error) {
	query := `
		SELECT id, name, status, flagged, cyclicality, classification_history
		FROM screen.entities
		WHERE status = 'active'
		  AND listed_at <= $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("query active entities: %w", err)
	}
	defer rows.Close()

	var entities []*contracts.Entity
	for rows.Next() {
		entity := &contracts.Entity{}
		var historyJSON []byte
		if err := rows.Scan(
			&entity.ID,
			&entity.Name,
			&entity.Status,
			&entity.Flagged,
			&entity.Cyclicality,
			&historyJSON,
		); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		if len(historyJSON) > 0 {
			if err := json.Unmarshal(historyJSON, &entity.History); err != nil {
				return nil, fmt.Errorf("unmarshal classification history: %w", err)
			}
		}
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

// Save upserts an entity and its classification history.
func (r *EntityRepository) Save(ctx context.Context, entity *contracts.Entity, listedAt time.Time) error {
	historyJSON, err := json.Marshal(entity.History)
	if err != nil {
		return fmt.Errorf("marshal classification history: %w", err)
	}

	query := `
		INSERT INTO screen.entities (
			id, name, status, flagged, cyclicality, classification_history, listed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			flagged = EXCLUDED.flagged,
			cyclicality = EXCLUDED.cyclicality,
			classification_history = EXCLUDED.classification_history,
			updated_at = NOW()
	`

	_, err = r.db.Exec(ctx, query,
		entity.ID,
		entity.Name,
		entity.Status,
		entity.Flagged,
		entity.Cyclicality,
		historyJSON,
		listedAt,
	)
	if err != nil {
		return fmt.Errorf("insert entity %s: %w", entity.ID, err)
	}

	return nil
}
