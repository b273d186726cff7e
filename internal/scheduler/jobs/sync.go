package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/store"
	"github.com/mkweon/athena/pkg/logger"
)

// syncFields are the fields refreshed on every sync run.
var syncFields = []string{
	contracts.FieldNetProfit,
	contracts.FieldRevenue,
	contracts.FieldEquity,
	contracts.FieldROE,
	contracts.FieldROIC,
	contracts.FieldDebtRatio,
	contracts.FieldCurrentRatio,
	contracts.FieldOperatingCF,
	contracts.FieldGrossMargin,
	contracts.FieldGoodwillRatio,
	contracts.FieldPledgeRatio,
	contracts.FieldRelatedTxnRatio,
	contracts.FieldValuationPercent,
	contracts.FieldIntegrityFlag,
	contracts.FieldClose,
}

// FactSyncJob pulls fresh facts from the provider into the facts table.
// ⭐ SSOT: provider-to-store synchronization runs only through this job
type FactSyncJob struct {
	entities contracts.EntityRepository
	source   contracts.FactSource
	facts    *store.FactRepository
	window   time.Duration
	logger   *logger.Logger
}

// NewFactSyncJob creates a new fact sync job. The window bounds how far
// back each run refetches; restatements older than the window are picked
// up by their new publication date on the next full backfill.
func NewFactSyncJob(entities contracts.EntityRepository, source contracts.FactSource, facts *store.FactRepository, window time.Duration, log *logger.Logger) *FactSyncJob {
	return &FactSyncJob{
		entities: entities,
		source:   source,
		facts:    facts,
		window:   window,
		logger:   log,
	}
}

// Name returns the job name
func (j *FactSyncJob) Name() string {
	return "fact_sync"
}

// Schedule returns the cron schedule (every day at 6 PM, after market close)
func (j *FactSyncJob) Schedule() string {
	return "0 0 18 * * *"
}

// Run executes the fact synchronization. Entities whose provider data is
// unavailable are skipped and counted; any other error aborts the run.
func (j *FactSyncJob) Run(ctx context.Context) error {
	now := time.Now()
	from := now.Add(-j.window)

	j.logger.WithFields(map[string]interface{}{
		"from": from.Format("2006-01-02"),
		"to":   now.Format("2006-01-02"),
	}).Info("Starting scheduled fact sync")

	entities, err := j.entities.ListActive(ctx, now)
	if err != nil {
		return fmt.Errorf("list active entities: %w", err)
	}

	var synced, skipped, stored int
	for _, entity := range entities {
		facts, err := j.source.Fetch(ctx, entity.ID, syncFields, from, now)
		if err != nil {
			if contracts.IsDataUnavailable(err) {
				skipped++
				continue
			}
			return fmt.Errorf("fetch facts for %s: %w", entity.ID, err)
		}

		if err := j.facts.SaveBatch(ctx, facts); err != nil {
			return fmt.Errorf("store facts for %s: %w", entity.ID, err)
		}
		synced++
		stored += len(facts)
	}

	j.logger.WithFields(map[string]interface{}{
		"entities": synced,
		"skipped":  skipped,
		"facts":    stored,
	}).Info("Fact sync completed")

	return nil
}
