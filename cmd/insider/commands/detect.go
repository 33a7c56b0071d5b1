package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/insider-edge/internal/analysis"
	"github.com/wonny/insider-edge/internal/store"
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run pattern detection over recent disclosures",
	Long: `Runs the four pattern detectors (unusual volume, consensus buying,
insider momentum, bipartisan interest) over the lookback window and
prints the detected patterns ordered by confidence.

Example:
  go run ./cmd/insider detect
  go run ./cmd/insider detect --days 30`,
	RunE: runDetect,
}

var detectDays int

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().IntVar(&detectDays, "days", 0, "lookback window in days (default: configured value)")
}

func runDetect(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Insider Edge Pattern Detection ===")

	cfg, log, pool, err := initDeps()
	if err != nil {
		return err
	}
	defer pool.Close()

	days := detectDays
	if days == 0 {
		days = cfg.Detection.LookbackDays
	}

	detector := analysis.NewDetector(store.NewDisclosureRepository(pool), log)
	patterns, err := detector.DetectAll(cmd.Context(), days)
	if err != nil {
		return fmt.Errorf("detect patterns: %w", err)
	}

	fmt.Printf("\n🔍 %d patterns detected over the last %d days\n\n", len(patterns), days)
	if len(patterns) == 0 {
		return nil
	}

	widths := []int{8, 22, 12, 8, 8, 12}
	PrintTableHeader([]string{"Ticker", "Pattern", "Confidence", "Events", "Filers", "Amount"}, widths)
	for _, p := range patterns {
		PrintTableRow([]string{
			p.Ticker,
			string(p.Kind),
			fmt.Sprintf("%.2f", p.Confidence),
			fmt.Sprintf("%d", p.EventCount()),
			fmt.Sprintf("%d", p.FilerCount()),
			formatUSD(p.TotalAmountUSD),
		}, widths)
	}
	fmt.Println()

	return nil
}
