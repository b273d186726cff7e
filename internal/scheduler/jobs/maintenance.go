package jobs

import (
	"context"
	"fmt"

	"github.com/mkweon/athena/pkg/database"
	"github.com/mkweon/athena/pkg/logger"
)

// HealthCheckJob periodically verifies the database connection pool.
type HealthCheckJob struct {
	db     *database.DB
	logger *logger.Logger
}

// NewHealthCheckJob creates a new health check job
func NewHealthCheckJob(db *database.DB, log *logger.Logger) *HealthCheckJob {
	return &HealthCheckJob{
		db:     db,
		logger: log,
	}
}

// Name returns the job name
func (j *HealthCheckJob) Name() string {
	return "health_check"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *HealthCheckJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the health check
func (j *HealthCheckJob) Run(ctx context.Context) error {
	status, err := j.db.HealthCheck(ctx)
	if err != nil {
		j.logger.WithError(err).Warn("Database unhealthy")
		return fmt.Errorf("database health check: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"response_time": status.ResponseTime,
		"total_conns":   status.Stats.TotalConns,
	}).Debug("Health check passed")

	return nil
}
