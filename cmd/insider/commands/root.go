package commands

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/database"
	"github.com/wonny/insider-edge/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "insider",
	Short: "Insider Edge - disclosure-driven signal and backtest engine",
	Long: `Insider Edge Unified CLI

Detects buying patterns in insider and politician trading disclosures,
turns them into confidence-scored signals, and backtests the strategies
built on them.

Usage:
  go run ./cmd/insider [command]

Examples:
  go run ./cmd/insider detect --days 90
  go run ./cmd/insider signals generate --save
  go run ./cmd/insider backtest run --from 2024-01-01
  go run ./cmd/insider api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initDeps loads config, builds the logger, and connects the database
func initDeps() (*config.Config, *logger.Logger, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	return cfg, log, db.Pool, nil
}
