package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkweon/athena/internal/analytics"
	"github.com/mkweon/athena/internal/api"
	"github.com/mkweon/athena/internal/api/handlers"
	"github.com/mkweon/athena/internal/backtest"
	"github.com/mkweon/athena/internal/portfolio"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Start the HTTP API server.

Endpoints:
  GET  /health                              - Health check
  GET  /api/screen/pool                     - Investable pool at a date
  GET  /api/screen/scores/{entity}          - Score history for one entity
  POST /api/screen/run                      - Trigger an on-demand screen
  GET  /api/portfolio                       - Holdings snapshot at a date
  GET  /api/portfolio/history               - Snapshots over a range
  POST /api/backtest/run                    - Run and persist a backtest
  GET  /api/backtest/reports/{name}         - Stored performance report
  GET  /api/backtest/reports/{name}/periods - Stored per-period returns

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from config)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Athena API Server ===")

	rt, err := initRuntime()
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}
	defer rt.Close()

	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	// Wire the backtest driver for on-demand runs
	engine := portfolio.NewEngine(rt.strategy.Portfolio, rt.log)
	analyzer := analytics.NewAnalyzer(0.0, rt.log)
	driver := backtest.NewDriver(rt.view, rt.pipeline, engine, analyzer, rt.strategy, rt.log)

	// Create handlers
	screenHandler := handlers.NewScreenHandler(rt.store.Entities, rt.store.Scores, rt.view, rt.pipeline, rt.log)
	portfolioHandler := handlers.NewPortfolioHandler(rt.store.Portfolios, rt.log)
	backtestHandler := handlers.NewBacktestHandler(rt.store.Entities, driver, rt.store.Reports, rt.log)

	// Create router and server
	router := api.NewRouter(screenHandler, portfolioHandler, backtestHandler, rt.log)
	server := api.New(rt.cfg, rt.log, router)

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			rt.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	rt.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	rt.log.Info("Server stopped")
	return nil
}
