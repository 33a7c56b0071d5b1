package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/insider-edge/internal/backtest"
	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/internal/store"
	"github.com/wonny/insider-edge/internal/strategy"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay strategies against historical prices",
	Long: `Backtests the standard strategy set over a date range, or studies
an individual ticker's disclosed buys across holding horizons.

Example:
  go run ./cmd/insider backtest run
  go run ./cmd/insider backtest run --from 2024-01-01 --to 2024-12-31
  go run ./cmd/insider backtest trades NVDA --days 365`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the standard strategies over a date range",
		RunE:  runBacktest,
	}

	backtestTradesCmd = &cobra.Command{
		Use:   "trades [ticker]",
		Short: "Study one ticker's disclosed buys across horizons",
		Args:  cobra.ExactArgs(1),
		RunE:  runBacktestTrades,
	}

	// Flags
	backtestFrom string
	backtestTo   string
	tradesDays   int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestTradesCmd)

	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, default: 1 year ago)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	backtestTradesCmd.Flags().IntVar(&tradesDays, "days", 365, "disclosure lookback window in days")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Insider Edge Strategy Backtest ===")

	cfg, log, pool, err := initDeps()
	if err != nil {
		return err
	}
	defer pool.Close()

	start, end, err := backtestRange()
	if err != nil {
		return err
	}

	engine := backtest.NewEngine(
		store.NewDisclosureRepository(pool),
		store.NewPriceRepository(pool),
		cfg.Backtest,
		log,
	)

	fmt.Printf("📅 Period: %s ~ %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	results, err := engine.Compare(cmd.Context(), strategy.Standard(cfg.Strategy), start, end)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		printBacktestResult(results[name])
	}
	return nil
}

func printBacktestResult(result *contracts.BacktestResult) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("📊 %s\n", result.StrategyName)
	PrintDoubleSeparator()

	if result.Failed() {
		PrintWarning(fmt.Sprintf("no usable result: %s", result.Error))
		return
	}

	ratingEmoji := "🔴"
	switch {
	case result.TotalReturn > 0.15:
		ratingEmoji = "🟢"
	case result.TotalReturn > 0:
		ratingEmoji = "🟡"
	}

	fmt.Printf("%s Total return:      %s\n", ratingEmoji, formatPct(result.TotalReturn))
	fmt.Printf("   Annualized:        %s\n", formatPct(result.AnnualizedReturn))
	fmt.Printf("   Final value:       %s (from %s)\n",
		formatUSD(result.FinalValue), formatUSD(result.InitialCapital))
	fmt.Printf("   Trades:            %d (%d won, %d lost, win rate %.1f%%)\n",
		result.TotalTrades, result.WinningTrades, result.LosingTrades, result.WinRate*100)
	fmt.Printf("   Sharpe / Sortino:  %.2f / %.2f\n", result.SharpeRatio, result.SortinoRatio)
	fmt.Printf("   Max drawdown:      %s\n", formatPct(result.MaxDrawdown))
	fmt.Printf("   Profit factor:     %.2f\n", result.ProfitFactor)
	fmt.Printf("   VaR 95%% / ES:      %s / %s\n",
		formatPct(result.ValueAtRisk95), formatPct(result.ExpectedShortfall))
}

func runBacktestTrades(cmd *cobra.Command, args []string) error {
	ticker := args[0]
	fmt.Printf("=== Trade Study: %s ===\n", ticker)

	cfg, log, pool, err := initDeps()
	if err != nil {
		return err
	}
	defer pool.Close()

	to := time.Now()
	from := to.AddDate(0, 0, -tradesDays)
	events, err := store.NewDisclosureRepository(pool).Query(cmd.Context(), contracts.DisclosureFilter{
		From:         from,
		To:           to,
		Dates:        contracts.ByTradeDate,
		Ticker:       ticker,
		Transactions: []contracts.TransactionType{contracts.TxBuy},
	})
	if err != nil {
		return fmt.Errorf("load disclosures: %w", err)
	}
	if len(events) == 0 {
		PrintWarning(fmt.Sprintf("no disclosed buys for %s in the last %d days", ticker, tradesDays))
		return nil
	}

	trades := make([]backtest.TradeRef, 0, len(events))
	for _, event := range events {
		trades = append(trades, backtest.TradeRef{Ticker: event.Ticker, TradeDate: event.TradeDate})
	}

	backtester := backtest.NewTradeBacktester(store.NewPriceRepository(pool), cfg.Backtest, log)
	report, err := backtester.ComprehensiveAnalysis(cmd.Context(), trades)
	if err != nil {
		return fmt.Errorf("trade study failed: %w", err)
	}

	printTradeReport(report)
	return nil
}

func printTradeReport(report *backtest.ComprehensiveReport) {
	fmt.Printf("\n📈 %d trades studied\n\n", len(report.History.Trades))

	horizons := make([]int, 0, len(report.History.Stats))
	for horizon := range report.History.Stats {
		horizons = append(horizons, horizon)
	}
	sort.Ints(horizons)

	widths := []int{8, 8, 10, 10, 10, 10}
	PrintTableHeader([]string{"Horizon", "Trades", "Avg %", "Median %", "Win %", "Worst %"}, widths)
	for _, horizon := range horizons {
		stats := report.History.Stats[horizon]
		PrintTableRow([]string{
			fmt.Sprintf("%dd", stats.HorizonDays),
			fmt.Sprintf("%d", stats.TradeCount),
			fmt.Sprintf("%+.1f", stats.AvgReturnPct),
			fmt.Sprintf("%+.1f", stats.MedianReturnPct),
			fmt.Sprintf("%.1f", stats.WinRate*100),
			fmt.Sprintf("%+.1f", stats.WorstPct),
		}, widths)
	}

	fmt.Printf("\n⏱️  Entry timing: %s\n", report.Timing.Recommendation)
	if report.Benchmark != nil {
		fmt.Printf("🆚 vs %s: %+.1f%% vs %+.1f%% (alpha %+.1f%%)\n",
			report.Benchmark.BenchmarkTicker,
			report.Benchmark.StrategyReturnPct,
			report.Benchmark.BenchmarkReturnPct,
			report.Benchmark.AlphaPct)
	}
	fmt.Printf("🏆 Score: %.0f/100 (%s)\n", report.Score.Score, report.Score.Rating)
}

// backtestRange parses the from/to flags, defaulting to the last year
func backtestRange() (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(-1, 0, 0)

	var err error
	if backtestTo != "" {
		end, err = time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %w", err)
		}
	}
	if backtestFrom != "" {
		start, err = time.Parse("2006-01-02", backtestFrom)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %w", err)
		}
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date must be before end date")
	}
	return start, end, nil
}
