package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/insider-edge/internal/backtest"
	"github.com/wonny/insider-edge/internal/store"
)

// alphaCmd represents the alpha command
var alphaCmd = &cobra.Command{
	Use:   "alpha",
	Short: "Run the event-study alpha strategies",
	Long: `Runs the cluster, conviction, and unusual-volume event studies
over historical disclosures and reports per-strategy returns.

Example:
  go run ./cmd/insider alpha
  go run ./cmd/insider alpha --days 730`,
	RunE: runAlpha,
}

var alphaDays int

func init() {
	rootCmd.AddCommand(alphaCmd)
	alphaCmd.Flags().IntVar(&alphaDays, "days", 365, "disclosure lookback window in days")
}

func runAlpha(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Insider Edge Alpha Studies ===")

	cfg, log, pool, err := initDeps()
	if err != nil {
		return err
	}
	defer pool.Close()

	backtester := backtest.NewAlphaBacktester(
		store.NewDisclosureRepository(pool),
		store.NewPriceRepository(pool),
		cfg.Strategy,
		log,
	)

	end := time.Now()
	start := end.AddDate(0, 0, -alphaDays)
	fmt.Printf("📅 Period: %s ~ %s\n\n", start.Format("2006-01-02"), end.Format("2006-01-02"))

	results, err := backtester.RunAll(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("alpha studies failed: %w", err)
	}
	if len(results) == 0 {
		PrintWarning("no study produced results")
		return nil
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	widths := []int{22, 8, 10, 10, 8, 8, 8}
	PrintTableHeader([]string{"Strategy", "Trades", "Total %", "Avg %", "Win %", "Sharpe", "MDD %"}, widths)
	for _, name := range names {
		result := results[name]
		PrintTableRow([]string{
			result.StrategyName,
			fmt.Sprintf("%d", result.TradeCount),
			fmt.Sprintf("%+.1f", result.TotalReturn*100),
			fmt.Sprintf("%+.1f", result.AvgReturn*100),
			fmt.Sprintf("%.1f", result.WinRate*100),
			fmt.Sprintf("%.2f", result.SharpeRatio),
			fmt.Sprintf("%.1f", result.MaxDrawdown*100),
		}, widths)
	}
	fmt.Println()

	return nil
}
