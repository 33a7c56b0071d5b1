package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

// Returns in this file are expressed in percent, not fractions, since
// the reports are meant for direct display.

var defaultHorizons = []int{7, 14, 30, 60, 90, 180, 365}

var defaultEntryDelays = []int{0, 1, 3, 5, 10}

const (
	timingHoldDays     = 30
	benchmarkMaxTrades = 20
	benchmarkWindow    = 35
	benchmarkMinPoints = 5
	scoreHorizonDays   = 30
)

// TradeRef identifies one disclosed trade to study
type TradeRef struct {
	Ticker    string    `json:"ticker"`
	TradeDate time.Time `json:"trade_date"`
}

// HorizonOutcome is the result of holding one trade for a fixed number
// of days. MaxGain and MaxDrawdown come from intraday highs and lows.
type HorizonOutcome struct {
	HorizonDays    int       `json:"horizon_days"`
	ExitDate       time.Time `json:"exit_date"`
	ExitPrice      float64   `json:"exit_price"`
	ReturnPct      float64   `json:"return_pct"`
	MaxGainPct     float64   `json:"max_gain_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
}

// TradeOutcome holds one trade's outcomes across every holding horizon
type TradeOutcome struct {
	Ticker     string                  `json:"ticker"`
	TradeDate  time.Time               `json:"trade_date"`
	EntryDate  time.Time               `json:"entry_date"`
	EntryPrice float64                 `json:"entry_price"`
	Horizons   map[int]*HorizonOutcome `json:"horizons"`
}

// HorizonStats aggregates outcomes at one horizon across trades
type HorizonStats struct {
	HorizonDays     int     `json:"horizon_days"`
	TradeCount      int     `json:"trade_count"`
	AvgReturnPct    float64 `json:"avg_return_pct"`
	MedianReturnPct float64 `json:"median_return_pct"`
	WinRate         float64 `json:"win_rate"`
	AvgWinnerPct    float64 `json:"avg_winner_pct"`
	AvgLoserPct     float64 `json:"avg_loser_pct"`
	BestPct         float64 `json:"best_pct"`
	WorstPct        float64 `json:"worst_pct"`
}

// HistoryAnalysis is the multi-horizon study over a trade list
type HistoryAnalysis struct {
	Trades []*TradeOutcome       `json:"trades"`
	Stats  map[int]*HorizonStats `json:"stats"`
}

// TimingOutcome is the average outcome for one entry delay
type TimingOutcome struct {
	DelayDays    int     `json:"delay_days"`
	TradeCount   int     `json:"trade_count"`
	AvgReturnPct float64 `json:"avg_return_pct"`
}

// TimingAnalysis compares entry delays after disclosure
type TimingAnalysis struct {
	Outcomes         []*TimingOutcome `json:"outcomes"`
	OptimalDelayDays int              `json:"optimal_delay_days"`
	Recommendation   string           `json:"recommendation"`
}

// BenchmarkComparison measures trade returns against the benchmark
// ticker over the same windows
type BenchmarkComparison struct {
	BenchmarkTicker    string  `json:"benchmark_ticker"`
	TradeCount         int     `json:"trade_count"`
	StrategyReturnPct  float64 `json:"strategy_return_pct"`
	BenchmarkReturnPct float64 `json:"benchmark_return_pct"`
	AlphaPct           float64 `json:"alpha_pct"`
}

// StrategyScore grades a trade history from 0 to 100
type StrategyScore struct {
	Score  float64 `json:"score"`
	Rating string  `json:"rating"`
}

// ComprehensiveReport bundles every trade study
type ComprehensiveReport struct {
	History   *HistoryAnalysis     `json:"history"`
	Timing    *TimingAnalysis      `json:"timing"`
	Benchmark *BenchmarkComparison `json:"benchmark,omitempty"`
	Score     *StrategyScore       `json:"score"`
}

// TradeBacktester studies individual disclosed trades across multiple
// holding horizons, entry delays, and a market benchmark
type TradeBacktester struct {
	priceProvider contracts.PriceProvider
	cfg           config.BacktestConfig
	logger        *logger.Logger
	horizons      []int
	entryDelays   []int
}

// NewTradeBacktester creates a trade backtester with the default
// horizon and delay grids
func NewTradeBacktester(priceProvider contracts.PriceProvider, cfg config.BacktestConfig, log *logger.Logger) *TradeBacktester {
	return &TradeBacktester{
		priceProvider: priceProvider,
		cfg:           cfg,
		logger:        log.WithComponent("trade_backtest"),
		horizons:      defaultHorizons,
		entryDelays:   defaultEntryDelays,
	}
}

// BacktestTrade studies one trade across every horizon. Returns nil
// when the ticker has no price data around the trade date.
func (b *TradeBacktester) BacktestTrade(ctx context.Context, ticker string, tradeDate time.Time) (*TradeOutcome, error) {
	maxHorizon := b.horizons[len(b.horizons)-1]
	points, err := b.loadPoints(ctx, ticker, tradeDate, tradeDate.AddDate(0, 0, maxHorizon+5))
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}

	entry := points[0]
	if entry.Close <= 0 {
		return nil, nil
	}

	outcome := &TradeOutcome{
		Ticker:     ticker,
		TradeDate:  tradeDate,
		EntryDate:  entry.Date,
		EntryPrice: entry.Close,
		Horizons:   make(map[int]*HorizonOutcome, len(b.horizons)),
	}

	for _, horizon := range b.horizons {
		target := tradeDate.AddDate(0, 0, horizon)

		var exit *contracts.PricePoint
		maxHigh := math.Inf(-1)
		minLow := math.Inf(1)
		for _, p := range points {
			if p.Date.After(target) {
				break
			}
			exit = p
			if p.High > maxHigh {
				maxHigh = p.High
			}
			if p.Low < minLow {
				minLow = p.Low
			}
		}
		if exit == nil {
			continue
		}

		outcome.Horizons[horizon] = &HorizonOutcome{
			HorizonDays:    horizon,
			ExitDate:       exit.Date,
			ExitPrice:      exit.Close,
			ReturnPct:      pctChange(entry.Close, exit.Close),
			MaxGainPct:     pctChange(entry.Close, maxHigh),
			MaxDrawdownPct: pctChange(entry.Close, minLow),
		}
	}

	return outcome, nil
}

// BacktestHistory studies a list of trades and aggregates per-horizon
// statistics. Trades without price data are skipped.
func (b *TradeBacktester) BacktestHistory(ctx context.Context, trades []TradeRef) (*HistoryAnalysis, error) {
	analysis := &HistoryAnalysis{
		Stats: make(map[int]*HorizonStats, len(b.horizons)),
	}

	for _, ref := range trades {
		outcome, err := b.BacktestTrade(ctx, ref.Ticker, ref.TradeDate)
		if err != nil {
			return nil, err
		}
		if outcome != nil {
			analysis.Trades = append(analysis.Trades, outcome)
		}
	}

	for _, horizon := range b.horizons {
		var returns []float64
		for _, t := range analysis.Trades {
			if h, ok := t.Horizons[horizon]; ok {
				returns = append(returns, h.ReturnPct)
			}
		}
		if len(returns) == 0 {
			continue
		}
		analysis.Stats[horizon] = buildHorizonStats(horizon, returns)
	}

	b.logger.WithFields(map[string]interface{}{
		"trades":   len(trades),
		"usable":   len(analysis.Trades),
		"horizons": len(analysis.Stats),
	}).Info("Trade history backtest completed")

	return analysis, nil
}

// AnalyzeEntryTiming tries each entry delay with a fixed 30-day hold
// and recommends the delay with the best average return
func (b *TradeBacktester) AnalyzeEntryTiming(ctx context.Context, trades []TradeRef) (*TimingAnalysis, error) {
	analysis := &TimingAnalysis{}

	for _, delay := range b.entryDelays {
		var returns []float64
		for _, ref := range trades {
			entryDate := ref.TradeDate.AddDate(0, 0, delay)
			points, err := b.loadPoints(ctx, ref.Ticker, entryDate, entryDate.AddDate(0, 0, timingHoldDays+5))
			if err != nil {
				return nil, err
			}
			if len(points) == 0 || points[0].Close <= 0 {
				continue
			}

			entry := points[0]
			target := entry.Date.AddDate(0, 0, timingHoldDays)
			var exit *contracts.PricePoint
			for _, p := range points {
				if p.Date.After(target) {
					break
				}
				exit = p
			}
			if exit == nil {
				continue
			}
			returns = append(returns, pctChange(entry.Close, exit.Close))
		}

		analysis.Outcomes = append(analysis.Outcomes, &TimingOutcome{
			DelayDays:    delay,
			TradeCount:   len(returns),
			AvgReturnPct: meanOf(returns),
		})
	}

	best := -1
	for i, o := range analysis.Outcomes {
		if o.TradeCount == 0 {
			continue
		}
		if best < 0 || o.AvgReturnPct > analysis.Outcomes[best].AvgReturnPct {
			best = i
		}
	}
	if best >= 0 {
		analysis.OptimalDelayDays = analysis.Outcomes[best].DelayDays
		if analysis.OptimalDelayDays == 0 {
			analysis.Recommendation = "Enter immediately when the disclosure is published"
		} else {
			analysis.Recommendation = fmt.Sprintf("Wait %d days after disclosure before entering", analysis.OptimalDelayDays)
		}
	} else {
		analysis.Recommendation = "Not enough price data to recommend an entry delay"
	}

	return analysis, nil
}

// CompareToBenchmark measures the first trades against the benchmark
// ticker over matching windows. Windows with too few price points on
// either side are skipped.
func (b *TradeBacktester) CompareToBenchmark(ctx context.Context, trades []TradeRef) (*BenchmarkComparison, error) {
	comparison := &BenchmarkComparison{BenchmarkTicker: b.cfg.BenchmarkTicker}

	limit := len(trades)
	if limit > benchmarkMaxTrades {
		limit = benchmarkMaxTrades
	}

	var strategySum, benchmarkSum float64
	for _, ref := range trades[:limit] {
		windowEnd := ref.TradeDate.AddDate(0, 0, benchmarkWindow)

		tickerPoints, err := b.loadPoints(ctx, ref.Ticker, ref.TradeDate, windowEnd)
		if err != nil {
			return nil, err
		}
		benchPoints, err := b.loadPoints(ctx, b.cfg.BenchmarkTicker, ref.TradeDate, windowEnd)
		if err != nil {
			return nil, err
		}
		if len(tickerPoints) < benchmarkMinPoints || len(benchPoints) < benchmarkMinPoints {
			continue
		}

		strategySum += pctChange(tickerPoints[0].Close, tickerPoints[len(tickerPoints)-1].Close)
		benchmarkSum += pctChange(benchPoints[0].Close, benchPoints[len(benchPoints)-1].Close)
		comparison.TradeCount++
	}

	if comparison.TradeCount > 0 {
		n := float64(comparison.TradeCount)
		comparison.StrategyReturnPct = strategySum / n
		comparison.BenchmarkReturnPct = benchmarkSum / n
		comparison.AlphaPct = comparison.StrategyReturnPct - comparison.BenchmarkReturnPct
	}

	return comparison, nil
}

// ComprehensiveAnalysis runs every study and grades the result
func (b *TradeBacktester) ComprehensiveAnalysis(ctx context.Context, trades []TradeRef) (*ComprehensiveReport, error) {
	history, err := b.BacktestHistory(ctx, trades)
	if err != nil {
		return nil, err
	}

	timing, err := b.AnalyzeEntryTiming(ctx, trades)
	if err != nil {
		return nil, err
	}

	benchmark, err := b.CompareToBenchmark(ctx, trades)
	if err != nil {
		return nil, err
	}

	report := &ComprehensiveReport{
		History:   history,
		Timing:    timing,
		Benchmark: benchmark,
		Score:     scoreStrategy(history.Stats[scoreHorizonDays], benchmark),
	}

	b.logger.WithFields(map[string]interface{}{
		"trades": len(trades),
		"score":  fmt.Sprintf("%.0f", report.Score.Score),
		"rating": report.Score.Rating,
	}).Info("Comprehensive trade analysis completed")

	return report, nil
}

// scoreStrategy grades the 30-day holding statistics on a 0-100 scale
func scoreStrategy(stats *HorizonStats, benchmark *BenchmarkComparison) *StrategyScore {
	score := 50.0

	if stats != nil && stats.TradeCount > 0 {
		winRatePct := stats.WinRate * 100
		switch {
		case winRatePct > 70:
			score += 20
		case winRatePct > 60:
			score += 15
		case winRatePct > 50:
			score += 10
		case winRatePct < 40:
			score -= 10
		}
		score += math.Min(stats.AvgReturnPct/2, 15)
	}

	if benchmark != nil && benchmark.TradeCount > 0 {
		score += math.Min(benchmark.AlphaPct, 15)
	}

	score = math.Max(0, math.Min(100, score))

	var rating string
	switch {
	case score >= 80:
		rating = "EXCELLENT"
	case score >= 70:
		rating = "VERY GOOD"
	case score >= 60:
		rating = "GOOD"
	case score >= 50:
		rating = "AVERAGE"
	default:
		rating = "POOR"
	}

	return &StrategyScore{Score: score, Rating: rating}
}

func buildHorizonStats(horizon int, returns []float64) *HorizonStats {
	stats := &HorizonStats{
		HorizonDays: horizon,
		TradeCount:  len(returns),
		BestPct:     math.Inf(-1),
		WorstPct:    math.Inf(1),
	}

	var winners, winSum, lossSum float64
	var losers int
	for _, r := range returns {
		if r > 0 {
			winners++
			winSum += r
		} else {
			losers++
			lossSum += r
		}
		if r > stats.BestPct {
			stats.BestPct = r
		}
		if r < stats.WorstPct {
			stats.WorstPct = r
		}
	}

	stats.AvgReturnPct = meanOf(returns)
	stats.MedianReturnPct = medianOf(returns)
	stats.WinRate = winners / float64(len(returns))
	if winners > 0 {
		stats.AvgWinnerPct = winSum / winners
	}
	if losers > 0 {
		stats.AvgLoserPct = lossSum / float64(losers)
	}

	return stats
}

func (b *TradeBacktester) loadPoints(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.PricePoint, error) {
	points, err := b.priceProvider.GetRange(ctx, ticker, from, to)
	if err != nil {
		if errors.Is(err, contracts.ErrNoPriceData) {
			return nil, nil
		}
		return nil, fmt.Errorf("load prices for %s: %w", ticker, err)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

func medianOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
