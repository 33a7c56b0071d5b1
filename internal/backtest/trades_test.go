package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insider-edge/internal/contracts"
)

func tradeTestPrices() *fakePriceProvider {
	points := flatPrices("AAPL", 0, 370, 100)
	for _, p := range points {
		switch {
		case p.Date.Equal(day(3)):
			p.Low = 90
		case p.Date.Equal(day(10)):
			p.High = 115
		case p.Date.Equal(day(30)):
			p.Close = 105
		}
	}
	return &fakePriceProvider{points: map[string][]*contracts.PricePoint{"AAPL": points}}
}

func TestBacktestTradeHorizons(t *testing.T) {
	b := NewTradeBacktester(tradeTestPrices(), testBacktestConfig(), testLogger())

	outcome, err := b.BacktestTrade(context.Background(), "AAPL", day(0))

	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.InDelta(t, 100.0, outcome.EntryPrice, 1e-9)

	week := outcome.Horizons[7]
	require.NotNil(t, week)
	assert.InDelta(t, 0.0, week.ReturnPct, 1e-9)

	month := outcome.Horizons[30]
	require.NotNil(t, month)
	assert.InDelta(t, 5.0, month.ReturnPct, 1e-9)
	assert.InDelta(t, 15.0, month.MaxGainPct, 1e-9)
	assert.InDelta(t, -10.0, month.MaxDrawdownPct, 1e-9)
}

func TestBacktestTradeWithoutPrices(t *testing.T) {
	b := NewTradeBacktester(&fakePriceProvider{points: map[string][]*contracts.PricePoint{}}, testBacktestConfig(), testLogger())

	outcome, err := b.BacktestTrade(context.Background(), "GHOST", day(0))

	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestBacktestHistoryAggregates(t *testing.T) {
	b := NewTradeBacktester(tradeTestPrices(), testBacktestConfig(), testLogger())
	trades := []TradeRef{
		{Ticker: "AAPL", TradeDate: day(0)},
		{Ticker: "GHOST", TradeDate: day(0)},
	}

	analysis, err := b.BacktestHistory(context.Background(), trades)

	require.NoError(t, err)
	assert.Len(t, analysis.Trades, 1)

	month := analysis.Stats[30]
	require.NotNil(t, month)
	assert.Equal(t, 1, month.TradeCount)
	assert.InDelta(t, 5.0, month.AvgReturnPct, 1e-9)
	assert.InDelta(t, 5.0, month.MedianReturnPct, 1e-9)
	assert.InDelta(t, 1.0, month.WinRate, 1e-9)
}

func TestAnalyzeEntryTiming(t *testing.T) {
	b := NewTradeBacktester(tradeTestPrices(), testBacktestConfig(), testLogger())
	trades := []TradeRef{{Ticker: "AAPL", TradeDate: day(0)}}

	analysis, err := b.AnalyzeEntryTiming(context.Background(), trades)

	require.NoError(t, err)
	assert.Len(t, analysis.Outcomes, len(defaultEntryDelays))
	// flat prices tie every delay, the first wins
	assert.Equal(t, 0, analysis.OptimalDelayDays)
	assert.Contains(t, analysis.Recommendation, "immediately")
}

func TestAnalyzeEntryTimingNoData(t *testing.T) {
	b := NewTradeBacktester(&fakePriceProvider{points: map[string][]*contracts.PricePoint{}}, testBacktestConfig(), testLogger())

	analysis, err := b.AnalyzeEntryTiming(context.Background(), []TradeRef{{Ticker: "GHOST", TradeDate: day(0)}})

	require.NoError(t, err)
	assert.Contains(t, analysis.Recommendation, "Not enough price data")
}

func TestCompareToBenchmark(t *testing.T) {
	aapl := flatPrices("AAPL", 0, 35, 100)
	aapl[len(aapl)-1].Close = 110
	spy := flatPrices("SPY", 0, 35, 100)
	spy[len(spy)-1].Close = 105
	prices := &fakePriceProvider{points: map[string][]*contracts.PricePoint{
		"AAPL": aapl,
		"SPY":  spy,
	}}

	b := NewTradeBacktester(prices, testBacktestConfig(), testLogger())
	comparison, err := b.CompareToBenchmark(context.Background(), []TradeRef{{Ticker: "AAPL", TradeDate: day(0)}})

	require.NoError(t, err)
	assert.Equal(t, 1, comparison.TradeCount)
	assert.InDelta(t, 10.0, comparison.StrategyReturnPct, 1e-9)
	assert.InDelta(t, 5.0, comparison.BenchmarkReturnPct, 1e-9)
	assert.InDelta(t, 5.0, comparison.AlphaPct, 1e-9)
}

func TestCompareToBenchmarkSkipsThinWindows(t *testing.T) {
	prices := &fakePriceProvider{points: map[string][]*contracts.PricePoint{
		"AAPL": flatPrices("AAPL", 0, 2, 100), // under the minimum point count
		"SPY":  flatPrices("SPY", 0, 35, 100),
	}}

	b := NewTradeBacktester(prices, testBacktestConfig(), testLogger())
	comparison, err := b.CompareToBenchmark(context.Background(), []TradeRef{{Ticker: "AAPL", TradeDate: day(0)}})

	require.NoError(t, err)
	assert.Equal(t, 0, comparison.TradeCount)
}

func TestScoreStrategy(t *testing.T) {
	tests := []struct {
		name      string
		stats     *HorizonStats
		benchmark *BenchmarkComparison
		wantScore float64
		wantGrade string
	}{
		{
			name:      "strong strategy",
			stats:     &HorizonStats{TradeCount: 10, WinRate: 0.75, AvgReturnPct: 10},
			benchmark: &BenchmarkComparison{TradeCount: 10, AlphaPct: 5},
			wantScore: 80, // 50 + 20 + 5 + 5
			wantGrade: "EXCELLENT",
		},
		{
			name:      "weak strategy",
			stats:     &HorizonStats{TradeCount: 10, WinRate: 0.30, AvgReturnPct: -10},
			benchmark: &BenchmarkComparison{TradeCount: 10, AlphaPct: -5},
			wantScore: 30, // 50 - 10 - 5 - 5
			wantGrade: "POOR",
		},
		{
			name:      "no data keeps the baseline",
			wantScore: 50,
			wantGrade: "AVERAGE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := scoreStrategy(tt.stats, tt.benchmark)
			assert.InDelta(t, tt.wantScore, score.Score, 1e-9)
			assert.Equal(t, tt.wantGrade, score.Rating)
		})
	}
}

func TestScoreCapsReturnAndAlphaContributions(t *testing.T) {
	stats := &HorizonStats{TradeCount: 10, WinRate: 0.80, AvgReturnPct: 100}
	benchmark := &BenchmarkComparison{TradeCount: 10, AlphaPct: 50}

	score := scoreStrategy(stats, benchmark)

	// 50 + 20 + 15 (capped) + 15 (capped), clamped to 100
	assert.InDelta(t, 100.0, score.Score, 1e-9)
	assert.Equal(t, "EXCELLENT", score.Rating)
}

func TestMedianOf(t *testing.T) {
	assert.InDelta(t, 2.0, medianOf([]float64{3, 1, 2}), 1e-9)
	assert.InDelta(t, 2.5, medianOf([]float64{4, 1, 2, 3}), 1e-9)
	assert.Equal(t, 0.0, medianOf(nil))
}

func TestComprehensiveAnalysis(t *testing.T) {
	b := NewTradeBacktester(tradeTestPrices(), testBacktestConfig(), testLogger())
	trades := []TradeRef{{Ticker: "AAPL", TradeDate: day(0)}}

	report, err := b.ComprehensiveAnalysis(context.Background(), trades)

	require.NoError(t, err)
	require.NotNil(t, report.History)
	require.NotNil(t, report.Timing)
	require.NotNil(t, report.Score)
	assert.GreaterOrEqual(t, report.Score.Score, 0.0)
	assert.LessOrEqual(t, report.Score.Score, 100.0)
}
