package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkweon/athena/internal/provider"
	"github.com/mkweon/athena/internal/scheduler"
	"github.com/mkweon/athena/internal/scheduler/jobs"
	"github.com/mkweon/athena/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the job scheduler",
	Long: `Start the scheduler daemon or inspect its jobs.

Registered jobs:
- fact_sync:    daily at 6 PM (pull fresh facts from the provider)
- daily_screen: daily at 7 PM (screen the universe, after fact sync)
- health_check: every 5 minutes (database connectivity)

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run a specific job immediately
  status  - show job execution statistics

Example:
  go run ./cmd/screener scheduler start
  go run ./cmd/screener scheduler run fact_sync`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a specific job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job execution statistics",
		RunE:  showJobStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Athena Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// Give the background run a moment before tearing down connections.
	time.Sleep(100 * time.Millisecond)
	fmt.Println("Job started (running in background)")
	return nil
}

func showJobStatus(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

func initScheduler() (*scheduler.Scheduler, func(), error) {
	rt, err := initRuntime()
	if err != nil {
		return nil, nil, err
	}

	// Redis-backed provider cache; the scheduler runs fine without it.
	var providerCache *redis.Cache
	redisClient, err := redis.New(rt.cfg)
	if err != nil {
		rt.log.WithError(err).Warn("Redis unavailable, provider cache disabled")
	} else if redisClient.Enabled() {
		providerCache = redis.NewCache(redisClient, "athena")
	}

	source := provider.New(rt.cfg, rt.log, providerCache)

	sched := scheduler.New(rt.log)

	// Sync the last two fiscal years; restatements carry new publication dates.
	syncWindow := 2 * 365 * 24 * time.Hour
	sched.AddJob(jobs.NewFactSyncJob(rt.store.Entities, source, rt.store.Facts, syncWindow, rt.log))
	sched.AddJob(jobs.NewScreenJob(rt.store.Entities, rt.view, rt.pipeline, rt.store.Scores, rt.log))
	sched.AddJob(jobs.NewHealthCheckJob(rt.db, rt.log))

	cleanup := func() {
		if redisClient != nil {
			redisClient.Close()
		}
		rt.Close()
	}

	return sched, cleanup, nil
}
