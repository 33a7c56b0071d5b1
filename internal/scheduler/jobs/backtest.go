package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/insider-edge/internal/backtest"
	"github.com/wonny/insider-edge/internal/store"
	"github.com/wonny/insider-edge/internal/strategy"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

// backtestLookbackDays is the replay window for the weekly run
const backtestLookbackDays = 365

// BacktestJob replays the standard strategies over the trailing year
// every week so drifting performance shows up in the logs
type BacktestJob struct {
	pool   *pgxpool.Pool
	cfg    *config.Config
	logger *logger.Logger
}

// NewBacktestJob creates the weekly backtest job
func NewBacktestJob(pool *pgxpool.Pool, cfg *config.Config, log *logger.Logger) *BacktestJob {
	return &BacktestJob{
		pool:   pool,
		cfg:    cfg,
		logger: log,
	}
}

// Name returns the job name
func (j *BacktestJob) Name() string {
	return "weekly_backtest"
}

// Schedule returns 3 AM every Sunday (with seconds)
func (j *BacktestJob) Schedule() string {
	return "0 0 3 * * 0"
}

// Run compares the standard strategies and the alpha studies over the
// trailing year
func (j *BacktestJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled backtest")

	disclosureRepo := store.NewDisclosureRepository(j.pool)
	priceRepo := store.NewPriceRepository(j.pool)

	end := time.Now()
	start := end.AddDate(0, 0, -backtestLookbackDays)

	engine := backtest.NewEngine(disclosureRepo, priceRepo, j.cfg.Backtest, j.logger)
	strategies := strategy.Standard(j.cfg.Strategy)

	results, err := engine.Compare(ctx, strategies, start, end)
	if err != nil {
		return fmt.Errorf("compare strategies: %w", err)
	}

	for name, result := range results {
		if result.Failed() {
			j.logger.WithFields(map[string]interface{}{
				"strategy": name,
				"error":    result.Error,
			}).Warn("Strategy backtest failed")
			continue
		}
		j.logger.WithFields(map[string]interface{}{
			"strategy":     name,
			"trades":       result.TotalTrades,
			"total_return": fmt.Sprintf("%.2f%%", result.TotalReturn*100),
			"sharpe_ratio": fmt.Sprintf("%.2f", result.SharpeRatio),
			"max_drawdown": fmt.Sprintf("%.2f%%", result.MaxDrawdown*100),
		}).Info("Strategy backtest result")
	}

	alpha := backtest.NewAlphaBacktester(disclosureRepo, priceRepo, j.cfg.Strategy, j.logger)
	alphaResults, err := alpha.RunAll(ctx, start, end)
	if err != nil {
		return fmt.Errorf("run alpha studies: %w", err)
	}

	for name, result := range alphaResults {
		j.logger.WithFields(map[string]interface{}{
			"study":        name,
			"trades":       result.TradeCount,
			"total_return": fmt.Sprintf("%.2f%%", result.TotalReturn*100),
			"win_rate":     fmt.Sprintf("%.1f%%", result.WinRate*100),
		}).Info("Alpha study result")
	}

	j.logger.Info("Scheduled backtest completed")
	return nil
}
