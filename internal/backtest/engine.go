package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

// Engine replays strategy signals against historical prices
// ⭐ SSOT: portfolio backtest execution happens here only
type Engine struct {
	disclosureRepo contracts.DisclosureRepository
	priceProvider  contracts.PriceProvider
	cfg            config.BacktestConfig
	logger         *logger.Logger
}

// NewEngine creates a backtest engine
func NewEngine(
	disclosureRepo contracts.DisclosureRepository,
	priceProvider contracts.PriceProvider,
	cfg config.BacktestConfig,
	log *logger.Logger,
) *Engine {
	return &Engine{
		disclosureRepo: disclosureRepo,
		priceProvider:  priceProvider,
		cfg:            cfg,
		logger:         log.WithComponent("backtest"),
	}
}

// Run backtests one strategy over the date range
func (e *Engine) Run(ctx context.Context, strategy contracts.Strategy, start, end time.Time) (*contracts.BacktestResult, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid range: start %s not before end %s", dateKey(start), dateKey(end))
	}

	events, err := e.disclosureRepo.Query(ctx, contracts.DisclosureFilter{From: start, To: end})
	if err != nil {
		return nil, fmt.Errorf("load disclosures: %w", err)
	}

	cache := newPriceCache(e.priceProvider, e.logger)
	return e.runWith(ctx, strategy, events, cache, start, end)
}

// Compare backtests multiple strategies over the same range, loading
// disclosures once and sharing the price cache. A strategy failure is
// recorded on its own result and does not stop the others.
func (e *Engine) Compare(ctx context.Context, strategies []contracts.Strategy, start, end time.Time) (map[string]*contracts.BacktestResult, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid range: start %s not before end %s", dateKey(start), dateKey(end))
	}

	events, err := e.disclosureRepo.Query(ctx, contracts.DisclosureFilter{From: start, To: end})
	if err != nil {
		return nil, fmt.Errorf("load disclosures: %w", err)
	}

	cache := newPriceCache(e.priceProvider, e.logger)
	results := make(map[string]*contracts.BacktestResult, len(strategies))

	for _, strategy := range strategies {
		result, err := e.runWith(ctx, strategy, events, cache, start, end)
		if err != nil {
			e.logger.WithFields(map[string]interface{}{
				"strategy": strategy.Name(),
				"error":    err.Error(),
			}).Warn("Strategy backtest failed")
			results[strategy.Name()] = &contracts.BacktestResult{
				StrategyName: strategy.Name(),
				StartDate:    start,
				EndDate:      end,
				Error:        err.Error(),
			}
			continue
		}
		results[strategy.Name()] = result
	}

	return results, nil
}

func (e *Engine) runWith(
	ctx context.Context,
	strategy contracts.Strategy,
	events []*contracts.DisclosureEvent,
	cache *priceCache,
	start, end time.Time,
) (*contracts.BacktestResult, error) {
	e.logger.WithFields(map[string]interface{}{
		"strategy":   strategy.Name(),
		"start_date": dateKey(start),
		"end_date":   dateKey(end),
		"events":     len(events),
	}).Info("Starting backtest")

	signals, err := strategy.Generate(events, start, end)
	if err != nil {
		return nil, fmt.Errorf("generate signals: %w", err)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].EntryDate.Before(signals[j].EntryDate)
	})

	prices := make(map[string]map[string]float64)
	for _, s := range signals {
		if _, ok := prices[s.Ticker]; ok {
			continue
		}
		series, err := cache.Range(ctx, s.Ticker, start, end)
		if err != nil {
			return nil, err
		}
		prices[s.Ticker] = series
	}

	portfolio := NewPortfolio(e.cfg.InitialCapital)
	skipped := 0

	for _, s := range signals {
		series := prices[s.Ticker]
		entryClose, ok := series[dateKey(s.EntryDate)]
		if !ok {
			// No close on the entry date, the trade never happens
			skipped++
			continue
		}

		entryPrice := entryClose * (1 + e.cfg.Slippage)
		value := portfolio.InitialCapital * s.PositionSize
		shares := value / entryPrice

		position := &Position{
			Ticker:       s.Ticker,
			EntryDate:    s.EntryDate,
			EntryPrice:   entryPrice,
			PositionSize: s.PositionSize,
			Shares:       shares,
		}
		if !portfolio.AddPosition(position, e.cfg.Commission) {
			skipped++
			continue
		}

		// Exit only when a close exists on the exit date itself.
		// Otherwise the position stays open and is marked to market
		// in the daily valuation, never realized.
		if s.HasExit() {
			if exitClose, ok := series[dateKey(s.ExitDate)]; ok {
				portfolio.ClosePosition(position, s.ExitDate, exitClose*(1-e.cfg.Slippage))
			}
		}
	}

	dailyValues := e.buildDailyValues(portfolio, prices, start, end)
	result := e.buildResult(strategy.Name(), portfolio, dailyValues, start, end)

	e.logger.WithFields(map[string]interface{}{
		"strategy":     strategy.Name(),
		"signals":      len(signals),
		"trades":       result.TotalTrades,
		"skipped":      skipped,
		"total_return": fmt.Sprintf("%.2f%%", result.TotalReturn*100),
		"sharpe_ratio": fmt.Sprintf("%.2f", result.SharpeRatio),
	}).Info("Backtest completed")

	return result, nil
}

func (e *Engine) buildDailyValues(
	portfolio *Portfolio,
	prices map[string]map[string]float64,
	start, end time.Time,
) []contracts.DailyValue {
	var values []contracts.DailyValue
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		values = append(values, contracts.DailyValue{
			Date:  d,
			Value: portfolio.ValueOn(d, prices),
		})
	}
	return values
}

func (e *Engine) buildResult(
	strategyName string,
	portfolio *Portfolio,
	dailyValues []contracts.DailyValue,
	start, end time.Time,
) *contracts.BacktestResult {
	closed := portfolio.ClosedPositions()
	stats := CalculateTradeStats(closed)
	calc := NewPerformanceCalculator(portfolio.InitialCapital, dailyValues, e.cfg.RiskFreeRate)

	finalValue := portfolio.InitialCapital
	if len(dailyValues) > 0 {
		finalValue = dailyValues[len(dailyValues)-1].Value
	}

	return &contracts.BacktestResult{
		StrategyName:      strategyName,
		StartDate:         start,
		EndDate:           end,
		InitialCapital:    portfolio.InitialCapital,
		FinalValue:        finalValue,
		TotalTrades:       stats.TotalTrades,
		WinningTrades:     stats.Winning,
		LosingTrades:      stats.Losing,
		WinRate:           stats.WinRate,
		AvgWin:            stats.AvgWin,
		AvgLoss:           stats.AvgLoss,
		ProfitFactor:      stats.ProfitFactor,
		TotalReturn:       calc.TotalReturn(),
		AnnualizedReturn:  calc.AnnualizedReturn(),
		Volatility:        calc.Volatility(),
		SharpeRatio:       calc.SharpeRatio(),
		SortinoRatio:      calc.SortinoRatio(),
		MaxDrawdown:       calc.MaxDrawdown(),
		CalmarRatio:       calc.CalmarRatio(),
		ValueAtRisk95:     calc.ValueAtRisk(0.05),
		ExpectedShortfall: calc.ExpectedShortfall(0.05),
		DailyValues:       dailyValues,
	}
}

