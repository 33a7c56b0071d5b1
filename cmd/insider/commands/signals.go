package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/insider-edge/internal/analysis"
	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/internal/store"
	"github.com/wonny/insider-edge/pkg/logger"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Generate and inspect trading signals",
	Long: `Turns detected patterns into confidence-scored trading signals.

Example:
  go run ./cmd/insider signals generate
  go run ./cmd/insider signals generate --save
  go run ./cmd/insider signals recommend --profile conservative`,
}

var (
	signalsGenerateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate signals from current patterns",
		RunE:  runSignalsGenerate,
	}

	signalsRecommendCmd = &cobra.Command{
		Use:   "recommend",
		Short: "Build a portfolio recommendation for a risk profile",
		RunE:  runSignalsRecommend,
	}

	// Flags
	signalsDays    int
	signalsSave    bool
	signalsProfile string
)

func init() {
	rootCmd.AddCommand(signalsCmd)
	signalsCmd.AddCommand(signalsGenerateCmd)
	signalsCmd.AddCommand(signalsRecommendCmd)

	signalsGenerateCmd.Flags().IntVar(&signalsDays, "days", 0, "lookback window in days (default: configured value)")
	signalsGenerateCmd.Flags().BoolVar(&signalsSave, "save", false, "persist generated signals")

	signalsRecommendCmd.Flags().IntVar(&signalsDays, "days", 0, "lookback window in days (default: configured value)")
	signalsRecommendCmd.Flags().StringVar(&signalsProfile, "profile", "moderate", "risk profile (conservative|moderate|aggressive)")
}

func runSignalsGenerate(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Insider Edge Signal Generation ===")

	generator, _, days, cleanup, err := initGenerator()
	if err != nil {
		return err
	}
	defer cleanup()

	var signals []*contracts.Signal
	if signalsSave {
		var inserted int
		signals, inserted, err = generator.GenerateAndSave(cmd.Context(), days)
		if err != nil {
			return fmt.Errorf("generate signals: %w", err)
		}
		PrintSuccess(fmt.Sprintf("%d signals generated, %d saved", len(signals), inserted))
	} else {
		signals, err = generator.Generate(cmd.Context(), days)
		if err != nil {
			return fmt.Errorf("generate signals: %w", err)
		}
		fmt.Printf("📡 %d signals generated (not saved)\n", len(signals))
	}

	fmt.Println()
	printSignals(signals)
	return nil
}

func runSignalsRecommend(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Insider Edge Portfolio Recommendation ===")

	generator, log, days, cleanup, err := initGenerator()
	if err != nil {
		return err
	}
	defer cleanup()

	allocator := analysis.NewAllocator(generator, log)
	recommendation, err := allocator.Recommend(cmd.Context(), days, signalsProfile)
	if err != nil {
		return fmt.Errorf("build recommendation: %w", err)
	}

	fmt.Printf("\n👤 Profile: %s\n", recommendation.Profile)
	fmt.Printf("📊 Signals: %d, avg confidence %.2f\n",
		recommendation.Summary.SignalCount, recommendation.Summary.AverageConfidence)
	fmt.Printf("💰 Allocated: %s invested, %s cash\n\n",
		formatPct(recommendation.TotalAllocation), formatPct(recommendation.CashAllocation))

	widths := []int{8, 12, 12, 10, 12}
	PrintTableHeader([]string{"Ticker", "Strength", "Confidence", "Weight", "Target"}, widths)
	for _, s := range recommendation.Signals {
		PrintTableRow([]string{
			s.Ticker,
			string(s.Strength),
			fmt.Sprintf("%.2f", s.Confidence),
			formatPct(recommendation.Allocation[s.Ticker]),
			fmt.Sprintf("%.2f", s.TargetPrice),
		}, widths)
	}
	fmt.Println()

	return nil
}

func printSignals(signals []*contracts.Signal) {
	if len(signals) == 0 {
		return
	}

	widths := []int{8, 12, 12, 10, 10, 10}
	PrintTableHeader([]string{"Ticker", "Strength", "Confidence", "Price", "Target", "Stop"}, widths)
	for _, s := range signals {
		PrintTableRow([]string{
			s.Ticker,
			string(s.Strength),
			fmt.Sprintf("%.2f", s.Confidence),
			fmt.Sprintf("%.2f", s.CurrentPrice),
			fmt.Sprintf("%.2f", s.TargetPrice),
			fmt.Sprintf("%.2f", s.StopLoss),
		}, widths)
	}
	fmt.Println()
}

// initGenerator wires the signal generator and returns the effective
// lookback window and a cleanup function
func initGenerator() (*analysis.Generator, *logger.Logger, int, func(), error) {
	cfg, log, pool, err := initDeps()
	if err != nil {
		return nil, nil, 0, nil, err
	}

	days := signalsDays
	if days == 0 {
		days = cfg.Detection.LookbackDays
	}

	disclosureRepo := store.NewDisclosureRepository(pool)
	detector := analysis.NewDetector(disclosureRepo, log)
	generator := analysis.NewGenerator(
		detector,
		store.NewPriceRepository(pool),
		store.NewSignalRepository(pool),
		disclosureRepo,
		newProfiler(cfg, log),
		cfg.Signals,
		log,
	)

	return generator, log, days, pool.Close, nil
}
