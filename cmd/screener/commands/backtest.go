package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkweon/athena/internal/analytics"
	"github.com/mkweon/athena/internal/backtest"
	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/portfolio"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Historical strategy simulation",
	Long: `Replay the screening strategy over historical data.

The backtest validates:
- Strategy returns against a benchmark
- Risk metrics (Sharpe, Sortino, Calmar, max drawdown)
- Win rate and per-period returns

Example:
  go run ./cmd/screener backtest run --from 2020-01-01 --to 2023-12-31
  go run ./cmd/screener backtest run --from 2020-01-01 --name quality-v1`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a backtest over a date range",
		RunE:  runBacktest,
	}

	// Flags
	backtestFrom     string
	backtestTo       string
	backtestName     string
	backtestRiskFree float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	// Flags
	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, required)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	backtestRunCmd.Flags().StringVar(&backtestName, "name", "", "persist the report under this run name")
	backtestRunCmd.Flags().Float64Var(&backtestRiskFree, "risk-free", 0.0, "annual risk-free rate for Sharpe/Sortino")

	backtestRunCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Athena Backtest ===")

	start, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	end := time.Now()
	if backtestTo != "" {
		end, err = time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	rt, err := initRuntime()
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}
	defer rt.Close()

	ctx := cmd.Context()

	active, err := rt.store.Entities.ListActive(ctx, end)
	if err != nil {
		return fmt.Errorf("list active entities: %w", err)
	}
	universe := make([]contracts.Entity, 0, len(active))
	for _, entity := range active {
		universe = append(universe, *entity)
	}

	fmt.Printf("\n📅 Period: %s ~ %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("💰 Initial Capital: %.0f\n", rt.strategy.Backtest.InitialCapital)
	fmt.Printf("🔄 Rebalance: %s\n", rt.strategy.Backtest.RebalanceFrequency)
	fmt.Printf("🌐 Universe: %d entities\n\n", len(universe))
	fmt.Println("🚀 Starting backtest...")

	engine := portfolio.NewEngine(rt.strategy.Portfolio, rt.log)
	analyzer := analytics.NewAnalyzer(backtestRiskFree, rt.log)
	driver := backtest.NewDriver(rt.view, rt.pipeline, engine, analyzer, rt.strategy, rt.log)

	started := time.Now()
	result, err := driver.Run(ctx, start, end, universe)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printBacktestResult(result, time.Since(started))

	if backtestName != "" {
		if err := rt.store.Reports.SaveReport(ctx, backtestName, result.Report); err != nil {
			return fmt.Errorf("persist report: %w", err)
		}
		if err := rt.store.Reports.SavePeriods(ctx, backtestName, result.Periods); err != nil {
			return fmt.Errorf("persist periods: %w", err)
		}
		fmt.Printf("💾 Saved as %q\n\n", backtestName)
	}

	return nil
}

func printBacktestResult(result *backtest.Result, duration time.Duration) {
	report := result.Report

	fmt.Println("\n✅ Backtest Completed")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	// Summary
	fmt.Println("📊 Summary")
	fmt.Printf("Period:   %s ~ %s (%d periods)\n",
		report.StartDate.Format("2006-01-02"),
		report.EndDate.Format("2006-01-02"),
		report.Periods)
	fmt.Printf("Duration: %.2f seconds\n", duration.Seconds())
	fmt.Println()

	// Performance
	fmt.Println("💰 Performance")
	fmt.Printf("Cumulative Return: %+.2f%%\n", report.CumulativeReturn*100)
	printMetricPct("Annualized Return", report.AnnualizedReturn)
	printMetricPct("Volatility", report.Volatility)
	fmt.Printf("Max Drawdown:      %.2f%%\n", report.MaxDrawdown*100)
	fmt.Printf("Win Rate:          %.1f%%\n", report.WinRate*100)
	fmt.Println()

	// Risk-adjusted ratios
	fmt.Println("📉 Risk-Adjusted")
	printMetric("Sharpe", report.Sharpe)
	printMetric("Sortino", report.Sortino)
	printMetric("Calmar", report.Calmar)
	printMetricPct("VaR (95%)", report.ValueAtRisk)
	printMetricPct("CVaR (95%)", report.ExpectedShortfall)
	fmt.Println()

	// Benchmark
	if report.Benchmark != nil {
		fmt.Println("🎯 Benchmark: " + report.Benchmark.Benchmark)
		fmt.Printf("Benchmark Return:  %+.2f%%\n", report.Benchmark.CumulativeReturn*100)
		fmt.Printf("Excess Return:     %+.2f%%\n", report.Benchmark.ExcessReturn*100)
		printMetric("Information Ratio", report.Benchmark.InformationRatio)
		fmt.Println()
	}

	// Per-period tail
	fmt.Println("📈 Last Periods")
	startIdx := len(result.Periods) - 8
	if startIdx < 0 {
		startIdx = 0
	}
	for _, period := range result.Periods[startIdx:] {
		flag := ""
		if period.EmptyPool {
			flag = " (empty pool)"
		}
		fmt.Printf("%s ~ %s: %+.2f%%%s\n",
			period.Start.Format("2006-01-02"),
			period.End.Format("2006-01-02"),
			period.Return*100,
			flag)
	}
	fmt.Println()
}

func printMetric(name string, m contracts.Metric) {
	if !m.OK {
		fmt.Printf("%-18s n/a\n", name+":")
		return
	}
	fmt.Printf("%-18s %.2f\n", name+":", m.Value)
}

func printMetricPct(name string, m contracts.Metric) {
	if !m.OK {
		fmt.Printf("%-18s n/a\n", name+":")
		return
	}
	fmt.Printf("%-18s %+.2f%%\n", name+":", m.Value*100)
}
