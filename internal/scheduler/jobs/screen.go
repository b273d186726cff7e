package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/pit"
	"github.com/mkweon/athena/internal/screen"
	"github.com/mkweon/athena/pkg/logger"
)

// ScreenJob runs the full screening pipeline and persists the results.
type ScreenJob struct {
	entities contracts.EntityRepository
	view     *pit.View
	pipeline *screen.Pipeline
	scores   contracts.ScoreRepository
	logger   *logger.Logger
}

// NewScreenJob creates a new screening job
func NewScreenJob(entities contracts.EntityRepository, view *pit.View, pipeline *screen.Pipeline, scores contracts.ScoreRepository, log *logger.Logger) *ScreenJob {
	return &ScreenJob{
		entities: entities,
		view:     view,
		pipeline: pipeline,
		scores:   scores,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScreenJob) Name() string {
	return "daily_screen"
}

// Schedule returns the cron schedule (every day at 7 PM, after fact sync)
func (j *ScreenJob) Schedule() string {
	return "0 0 19 * * *"
}

// Run executes a full screen as of today. The point-in-time cache is
// reset first so results reflect facts synced earlier the same evening.
func (j *ScreenJob) Run(ctx context.Context) error {
	asOf := time.Now()
	j.logger.WithField("as_of", asOf.Format("2006-01-02")).Info("Starting scheduled screen")

	j.view.Reset()

	active, err := j.entities.ListActive(ctx, asOf)
	if err != nil {
		return fmt.Errorf("list active entities: %w", err)
	}

	universe := make([]contracts.Entity, 0, len(active))
	for _, entity := range active {
		universe = append(universe, *entity)
	}

	records, err := j.pipeline.ScreenAt(ctx, asOf, universe)
	if err != nil {
		return fmt.Errorf("screen at %s: %w", asOf.Format("2006-01-02"), err)
	}

	saved := make([]*contracts.ScoreRecord, 0, len(records))
	var inPool int
	for i := range records {
		if records[i].InPool() {
			inPool++
		}
		saved = append(saved, &records[i])
	}

	if err := j.scores.SaveBatch(ctx, saved); err != nil {
		return fmt.Errorf("persist score records: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"screened": len(records),
		"in_pool":  inPool,
	}).Info("Screen completed")

	return nil
}
