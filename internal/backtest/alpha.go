package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

const (
	clusterHoldDays        = 90
	clusterTakeProfit      = 0.20
	convictionHoldDays     = 60
	volumeSpikeHoldDays    = 45
	volumeSpikeLookback    = 30
	volumeSpikeMultiplier  = 3.0
	alphaClusterName       = "insider-cluster"
	alphaConvictionName    = "politician-conviction"
	alphaUnusualVolumeName = "unusual-volume"
)

// AlphaTrade is one simulated round trip in an alpha backtest
type AlphaTrade struct {
	Ticker     string    `json:"ticker"`
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Return     float64   `json:"return"`
}

// AlphaResult aggregates one alpha strategy's trades. Unlike the
// portfolio engine these are event studies with no cash accounting,
// so drawdown is computed over the cumulative return sum and reported
// as a positive magnitude.
type AlphaResult struct {
	StrategyName string       `json:"strategy_name"`
	Trades       []AlphaTrade `json:"trades"`
	TradeCount   int          `json:"trade_count"`
	TotalReturn  float64      `json:"total_return"`
	AvgReturn    float64      `json:"avg_return"`
	SharpeRatio  float64      `json:"sharpe_ratio"`
	MaxDrawdown  float64      `json:"max_drawdown"`
	WinRate      float64      `json:"win_rate"`
	ProfitFactor float64      `json:"profit_factor"`
}

// AlphaBacktester runs event-driven studies over raw disclosure
// history, bypassing the signal pipeline
type AlphaBacktester struct {
	disclosureRepo contracts.DisclosureRepository
	priceProvider  contracts.PriceProvider
	cfg            config.StrategyConfig
	logger         *logger.Logger
}

// NewAlphaBacktester creates an alpha backtester
func NewAlphaBacktester(
	disclosureRepo contracts.DisclosureRepository,
	priceProvider contracts.PriceProvider,
	cfg config.StrategyConfig,
	log *logger.Logger,
) *AlphaBacktester {
	return &AlphaBacktester{
		disclosureRepo: disclosureRepo,
		priceProvider:  priceProvider,
		cfg:            cfg,
		logger:         log.WithComponent("alpha_backtest"),
	}
}

// RunAll runs every alpha study over the range. A failed study is
// logged and omitted from the map.
func (b *AlphaBacktester) RunAll(ctx context.Context, start, end time.Time) (map[string]*AlphaResult, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid range: start %s not before end %s", dateKey(start), dateKey(end))
	}

	results := make(map[string]*AlphaResult, 3)
	studies := []func(context.Context, time.Time, time.Time) (*AlphaResult, error){
		b.InsiderCluster,
		b.PoliticianConviction,
		b.UnusualVolume,
	}

	for _, study := range studies {
		result, err := study(ctx, start, end)
		if err != nil {
			b.logger.WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Warn("Alpha study failed")
			continue
		}
		results[result.StrategyName] = result
	}

	return results, nil
}

// InsiderCluster buys when three or more insider purchases land within
// the cluster window, entering at the cluster start, taking profit at
// +20% or exiting after 90 days. Only the first cluster per ticker is
// traded to avoid overlapping entries.
func (b *AlphaBacktester) InsiderCluster(ctx context.Context, start, end time.Time) (*AlphaResult, error) {
	events, err := b.disclosureRepo.Query(ctx, contracts.DisclosureFilter{
		From:         start,
		To:           end,
		Dates:        contracts.ByTradeDate,
		Transactions: []contracts.TransactionType{contracts.TxBuy},
	})
	if err != nil {
		return nil, fmt.Errorf("load buys: %w", err)
	}

	cache := newPriceCache(b.priceProvider, b.logger)
	window := time.Duration(b.cfg.ClusterWindowDays) * 24 * time.Hour

	var trades []AlphaTrade
	for _, ticker := range tickersOf(events) {
		dates := tradeDatesFor(events, ticker)
		for i := range dates {
			clusterEnd := dates[i].Add(window)
			count := 0
			for j := i; j < len(dates) && !dates[j].After(clusterEnd); j++ {
				count++
			}
			if count < b.cfg.MinClusterSize {
				continue
			}

			entry := dates[i]
			exit := entry.AddDate(0, 0, clusterHoldDays)
			if exit.After(end) {
				exit = end
			}

			trade, ok, err := b.simulateWithTakeProfit(ctx, cache, ticker, entry, exit, clusterTakeProfit)
			if err != nil {
				return nil, err
			}
			if ok {
				trades = append(trades, trade)
			}
			break
		}
	}

	return calculateAlphaResult(alphaClusterName, trades), nil
}

// PoliticianConviction follows large politician purchases, holding for
// 60 days
func (b *AlphaBacktester) PoliticianConviction(ctx context.Context, start, end time.Time) (*AlphaResult, error) {
	events, err := b.disclosureRepo.Query(ctx, contracts.DisclosureFilter{
		From:          start,
		To:            end,
		Dates:         contracts.ByTradeDate,
		Transactions:  []contracts.TransactionType{contracts.TxBuy},
		FilerCategory: contracts.FilerPolitician,
		RequireAmount: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load politician buys: %w", err)
	}

	cache := newPriceCache(b.priceProvider, b.logger)

	var trades []AlphaTrade
	for _, event := range events {
		if event.AmountUSD < b.cfg.ConvictionMinUSD {
			continue
		}

		entry := event.TradeDate
		exit := entry.AddDate(0, 0, convictionHoldDays)
		if exit.After(end) {
			exit = end
		}

		trade, ok, err := b.simulate(ctx, cache, event.Ticker, entry, exit)
		if err != nil {
			return nil, err
		}
		if ok {
			trades = append(trades, trade)
		}
	}

	return calculateAlphaResult(alphaConvictionName, trades), nil
}

// UnusualVolume buys when a disclosed amount reaches three times the
// rolling mean of the previous thirty events for that ticker, holding
// for 45 days
func (b *AlphaBacktester) UnusualVolume(ctx context.Context, start, end time.Time) (*AlphaResult, error) {
	events, err := b.disclosureRepo.Query(ctx, contracts.DisclosureFilter{
		From:          start,
		To:            end,
		Dates:         contracts.ByTradeDate,
		Transactions:  []contracts.TransactionType{contracts.TxBuy},
		RequireAmount: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load buys: %w", err)
	}

	byTicker := make(map[string][]*contracts.DisclosureEvent)
	for _, e := range events {
		byTicker[e.Ticker] = append(byTicker[e.Ticker], e)
	}

	cache := newPriceCache(b.priceProvider, b.logger)

	var trades []AlphaTrade
	for _, ticker := range tickersOf(events) {
		tickerEvents := byTicker[ticker]
		sort.SliceStable(tickerEvents, func(i, j int) bool {
			return tickerEvents[i].TradeDate.Before(tickerEvents[j].TradeDate)
		})

		for i := volumeSpikeLookback; i < len(tickerEvents); i++ {
			var sum float64
			for j := i - volumeSpikeLookback; j < i; j++ {
				sum += tickerEvents[j].AmountUSD
			}
			avg := sum / float64(volumeSpikeLookback)
			if avg == 0 || tickerEvents[i].AmountUSD < volumeSpikeMultiplier*avg {
				continue
			}

			entry := tickerEvents[i].TradeDate
			exit := entry.AddDate(0, 0, volumeSpikeHoldDays)
			if exit.After(end) {
				exit = end
			}

			trade, ok, err := b.simulate(ctx, cache, ticker, entry, exit)
			if err != nil {
				return nil, err
			}
			if ok {
				trades = append(trades, trade)
			}
		}
	}

	return calculateAlphaResult(alphaUnusualVolumeName, trades), nil
}

// simulate enters at the first close in the window and exits at the
// last. Returns ok=false when the window has no prices.
func (b *AlphaBacktester) simulate(ctx context.Context, cache *priceCache, ticker string, entry, exit time.Time) (AlphaTrade, bool, error) {
	return b.simulateWithTakeProfit(ctx, cache, ticker, entry, exit, 0)
}

func (b *AlphaBacktester) simulateWithTakeProfit(
	ctx context.Context,
	cache *priceCache,
	ticker string,
	entry, exit time.Time,
	takeProfit float64,
) (AlphaTrade, bool, error) {
	series, err := cache.Range(ctx, ticker, entry, exit)
	if err != nil {
		return AlphaTrade{}, false, err
	}
	if len(series) == 0 {
		return AlphaTrade{}, false, nil
	}

	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entryPrice := series[keys[0]]
	if entryPrice <= 0 {
		return AlphaTrade{}, false, nil
	}

	exitKey := keys[len(keys)-1]
	exitPrice := series[exitKey]
	if takeProfit > 0 {
		target := entryPrice * (1 + takeProfit)
		for _, k := range keys[1:] {
			if series[k] >= target {
				exitKey = k
				exitPrice = series[k]
				break
			}
		}
	}

	exitDate, err := time.Parse("2006-01-02", exitKey)
	if err != nil {
		return AlphaTrade{}, false, nil
	}

	return AlphaTrade{
		Ticker:     ticker,
		EntryDate:  entry,
		ExitDate:   exitDate,
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		Return:     (exitPrice - entryPrice) / entryPrice,
	}, true, nil
}

// calculateAlphaResult derives summary statistics from per-trade
// returns. Drawdown uses the cumulative sum of returns against its
// running maximum.
func calculateAlphaResult(name string, trades []AlphaTrade) *AlphaResult {
	result := &AlphaResult{
		StrategyName: name,
		Trades:       trades,
		TradeCount:   len(trades),
	}
	if len(trades) == 0 {
		return result
	}

	returns := make([]float64, len(trades))
	var winners, winSum, lossSum float64
	for i, t := range trades {
		returns[i] = t.Return
		result.TotalReturn += t.Return
		if t.Return > 0 {
			winners++
			winSum += t.Return
		} else {
			lossSum += t.Return
		}
	}

	result.AvgReturn = result.TotalReturn / float64(len(trades))
	result.WinRate = winners / float64(len(trades))

	if std := sampleStd(returns); std > 0 {
		result.SharpeRatio = (result.AvgReturn / std) * math.Sqrt(tradingDaysPerYear)
	}

	var cumulative, peak, maxDD float64
	for _, r := range returns {
		cumulative += r
		if cumulative > peak {
			peak = cumulative
		}
		if dd := cumulative - peak; dd < maxDD {
			maxDD = dd
		}
	}
	result.MaxDrawdown = math.Abs(maxDD)

	if lossSum != 0 {
		result.ProfitFactor = math.Abs(winSum / lossSum)
	}

	return result
}

// tickersOf returns the distinct tickers in first-seen order
func tickersOf(events []*contracts.DisclosureEvent) []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, e := range events {
		if !seen[e.Ticker] {
			seen[e.Ticker] = true
			tickers = append(tickers, e.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers
}

// tradeDatesFor returns the sorted trade dates for one ticker
func tradeDatesFor(events []*contracts.DisclosureEvent, ticker string) []time.Time {
	var dates []time.Time
	for _, e := range events {
		if e.Ticker == ticker {
			dates = append(dates, e.TradeDate)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
