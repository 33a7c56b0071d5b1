package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/insider-edge/internal/analysis"
	"github.com/wonny/insider-edge/internal/api"
	"github.com/wonny/insider-edge/internal/api/handlers"
	"github.com/wonny/insider-edge/internal/backtest"
	"github.com/wonny/insider-edge/internal/store"
)

const shutdownTimeout = 10 * time.Second

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the HTTP API server",
	Long: `Serves signals, patterns, recommendations, and backtests over
HTTP. Blocks until interrupted, then shuts down gracefully.

Example:
  go run ./cmd/insider api`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Insider Edge API Server ===")

	cfg, log, pool, err := initDeps()
	if err != nil {
		return err
	}
	defer pool.Close()

	disclosureRepo := store.NewDisclosureRepository(pool)
	priceRepo := store.NewPriceRepository(pool)
	signalRepo := store.NewSignalRepository(pool)

	detector := analysis.NewDetector(disclosureRepo, log)
	generator := analysis.NewGenerator(
		detector, priceRepo, signalRepo, disclosureRepo,
		newProfiler(cfg, log), cfg.Signals, log,
	)
	allocator := analysis.NewAllocator(generator, log)

	engine := backtest.NewEngine(disclosureRepo, priceRepo, cfg.Backtest, log)
	alphaBacktester := backtest.NewAlphaBacktester(disclosureRepo, priceRepo, cfg.Strategy, log)

	router := api.NewRouter(
		handlers.NewSignalHandler(signalRepo, allocator, cfg, log),
		handlers.NewPatternHandler(detector, cfg, log),
		handlers.NewBacktestHandler(engine, alphaBacktester, cfg, log),
		log,
	)

	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	PrintSuccess(fmt.Sprintf("API server listening on :%s", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-quit:
	}

	fmt.Println("\n🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	PrintSuccess("API server stopped")
	return nil
}
