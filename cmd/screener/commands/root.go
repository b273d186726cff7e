package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkweon/athena/internal/strategy"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Athena - fundamental quality screening and backtesting",
	Long: `Athena Unified CLI

Point-in-time fundamental screening with a three-stage filter
(qualification, exclusion, scoring) and a rebalancing backtest driver.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener screen run
  go run ./cmd/screener backtest run --from 2020-01-01 --to 2023-12-31
  go run ./cmd/screener api
  go run ./cmd/screener scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (default: built-in strategy)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadStrategy resolves the strategy from the --strategy flag or defaults.
func loadStrategy() (*strategy.Config, error) {
	if strategyFile == "" {
		return strategy.Default(), nil
	}

	cfg, _, err := strategy.Load(strategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", strategyFile, err)
	}

	hash, err := strategy.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}
	fmt.Printf("Strategy: %s (%s, hash %.12s)\n", cfg.Meta.StrategyID, cfg.Meta.Version, hash)

	return cfg, nil
}
