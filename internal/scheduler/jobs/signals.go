// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/insider-edge/internal/analysis"
	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/internal/store"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

// SignalJob regenerates signals from recent disclosures nightly,
// after the day's filings have been ingested
type SignalJob struct {
	pool     *pgxpool.Pool
	profiler contracts.CompanyProfiler
	cfg      *config.Config
	logger   *logger.Logger
}

// NewSignalJob creates the nightly signal generation job. The
// profiler may be nil when enrichment is disabled.
func NewSignalJob(pool *pgxpool.Pool, profiler contracts.CompanyProfiler, cfg *config.Config, log *logger.Logger) *SignalJob {
	return &SignalJob{
		pool:     pool,
		profiler: profiler,
		cfg:      cfg,
		logger:   log,
	}
}

// Name returns the job name
func (j *SignalJob) Name() string {
	return "signal_generation"
}

// Schedule returns 2 AM daily (with seconds)
func (j *SignalJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run detects patterns over the lookback window and persists the
// resulting signals
func (j *SignalJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled signal generation")

	disclosureRepo := store.NewDisclosureRepository(j.pool)
	priceRepo := store.NewPriceRepository(j.pool)
	signalRepo := store.NewSignalRepository(j.pool)

	detector := analysis.NewDetector(disclosureRepo, j.logger)
	generator := analysis.NewGenerator(
		detector, priceRepo, signalRepo, disclosureRepo, j.profiler,
		j.cfg.Signals, j.logger,
	)

	signals, inserted, err := generator.GenerateAndSave(ctx, j.cfg.Detection.LookbackDays)
	if err != nil {
		return fmt.Errorf("generate and save signals: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"generated": len(signals),
		"inserted":  inserted,
	}).Info("Signal generation completed")

	return nil
}
