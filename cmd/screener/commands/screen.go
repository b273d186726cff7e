package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkweon/athena/internal/contracts"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run or inspect fundamental screens",
	Long: `Run the three-stage screening pipeline or inspect stored results.

Subcommands:
  run   - screen the universe as of a date and persist the results
  pool  - show the investable pool stored for a date

Example:
  go run ./cmd/screener screen run
  go run ./cmd/screener screen run --date 2023-06-30
  go run ./cmd/screener screen pool --date 2023-06-30`,
}

var (
	screenRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Screen the universe as of a date",
		RunE:  runScreen,
	}

	screenPoolCmd = &cobra.Command{
		Use:   "pool",
		Short: "Show the stored investable pool for a date",
		RunE:  showPool,
	}

	// Flags
	screenDate     string
	screenMinScore float64
)

func init() {
	rootCmd.AddCommand(screenCmd)
	screenCmd.AddCommand(screenRunCmd)
	screenCmd.AddCommand(screenPoolCmd)

	// Flags
	screenRunCmd.Flags().StringVar(&screenDate, "date", "", "as-of date (YYYY-MM-DD, default: today)")
	screenPoolCmd.Flags().StringVar(&screenDate, "date", "", "pool date (YYYY-MM-DD, default: today)")
	screenPoolCmd.Flags().Float64Var(&screenMinScore, "min-score", 0, "minimum total score filter")
}

func runScreen(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Athena Screen ===")

	asOf, err := resolveDate(screenDate)
	if err != nil {
		return err
	}

	rt, err := initRuntime()
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}
	defer rt.Close()

	ctx := cmd.Context()

	active, err := rt.store.Entities.ListActive(ctx, asOf)
	if err != nil {
		return fmt.Errorf("list active entities: %w", err)
	}

	universe := make([]contracts.Entity, 0, len(active))
	for _, entity := range active {
		universe = append(universe, *entity)
	}

	fmt.Printf("\n📅 As of: %s\n", asOf.Format("2006-01-02"))
	fmt.Printf("🌐 Universe: %d entities\n\n", len(universe))
	fmt.Println("🚀 Screening...")

	started := time.Now()
	records, err := rt.pipeline.ScreenAt(ctx, asOf, universe)
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}

	saved := make([]*contracts.ScoreRecord, 0, len(records))
	for i := range records {
		saved = append(saved, &records[i])
	}
	if err := rt.store.Scores.SaveBatch(ctx, saved); err != nil {
		return fmt.Errorf("persist score records: %w", err)
	}

	printScreenResult(records, time.Since(started))
	return nil
}

func showPool(cmd *cobra.Command, args []string) error {
	date, err := resolveDate(screenDate)
	if err != nil {
		return err
	}

	rt, err := initRuntime()
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}
	defer rt.Close()

	pool, err := rt.store.Scores.GetPool(cmd.Context(), date, screenMinScore)
	if err != nil {
		return fmt.Errorf("load pool: %w", err)
	}

	fmt.Printf("Investable pool at %s (%d entities)\n\n", date.Format("2006-01-02"), len(pool))
	printPoolTable(pool)
	return nil
}

func printScreenResult(records []contracts.ScoreRecord, duration time.Duration) {
	var qualified, excluded, scored, inPool int
	pool := make([]*contracts.ScoreRecord, 0, len(records))

	for i := range records {
		r := &records[i]
		if r.PassedQualification {
			qualified++
		}
		if r.PassedQualification && !r.PassedExclusion {
			excluded++
		}
		if r.PassedQualification && r.PassedExclusion && r.PassedScoring {
			scored++
		}
		if r.InPool() {
			inPool++
			pool = append(pool, r)
		}
	}

	fmt.Println("\n✅ Screen Completed")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Screened:   %d entities in %.2fs\n", len(records), duration.Seconds())
	fmt.Printf("Qualified:  %d\n", qualified)
	fmt.Printf("Excluded:   %d\n", excluded)
	fmt.Printf("In pool:    %d\n\n", inPool)

	printPoolTable(pool)
}

func printPoolTable(pool []*contracts.ScoreRecord) {
	if len(pool) == 0 {
		fmt.Println("(empty pool)")
		return
	}

	fmt.Printf("%-10s  %-20s  %-12s  %8s  %8s  %8s\n",
		"ENTITY", "NAME", "GROUP", "FIN", "COMP", "TOTAL")
	fmt.Println(strings.Repeat("─", 76))
	for _, r := range pool {
		fmt.Printf("%-10s  %-20s  %-12s  %8.1f  %8.1f  %8.1f\n",
			r.Entity, truncate(r.Name, 20), truncate(r.Group, 12),
			r.Financial.Sum(), r.Competitive.Sum(), r.TotalScore)
	}
}

func resolveDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", raw)
	}
	return date, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
