package backtest

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error"})
}

func testBacktestConfig() config.BacktestConfig {
	return config.BacktestConfig{
		InitialCapital:  100000,
		Commission:      0.001,
		Slippage:        0.0005,
		RiskFreeRate:    0.02,
		BenchmarkTicker: "SPY",
	}
}

func testStrategyConfig() config.StrategyConfig {
	return config.StrategyConfig{
		ClusterWindowDays: 30,
		MinClusterSize:    3,
		ConvictionMinUSD:  100000,
	}
}

func day(n int) time.Time {
	return testStart.AddDate(0, 0, n)
}

// fakePriceProvider serves canned daily price points per ticker
type fakePriceProvider struct {
	points map[string][]*contracts.PricePoint
	err    error
}

func (f *fakePriceProvider) GetClose(ctx context.Context, ticker string, date time.Time) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	for _, p := range f.points[ticker] {
		if p.Date.Equal(date) {
			return p.Close, nil
		}
	}
	return 0, contracts.ErrNoPriceData
}

func (f *fakePriceProvider) GetRange(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.PricePoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*contracts.PricePoint
	for _, p := range f.points[ticker] {
		if !p.Date.Before(from) && !p.Date.After(to) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, contracts.ErrNoPriceData
	}
	return out, nil
}

func (f *fakePriceProvider) GetLatest(ctx context.Context, ticker string) (*contracts.PricePoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	points := f.points[ticker]
	if len(points) == 0 {
		return nil, contracts.ErrNoPriceData
	}
	return points[len(points)-1], nil
}

// flatPrices builds a constant close series over [fromDay, toDay]
func flatPrices(ticker string, fromDay, toDay int, close float64) []*contracts.PricePoint {
	var out []*contracts.PricePoint
	for d := fromDay; d <= toDay; d++ {
		out = append(out, &contracts.PricePoint{
			Ticker: ticker,
			Date:   day(d),
			Open:   close,
			High:   close,
			Low:    close,
			Close:  close,
		})
	}
	return out
}

// fakeDisclosureRepo serves canned events with filter semantics
type fakeDisclosureRepo struct {
	events []*contracts.DisclosureEvent
	err    error
}

func (f *fakeDisclosureRepo) Query(ctx context.Context, filter contracts.DisclosureFilter) ([]*contracts.DisclosureEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*contracts.DisclosureEvent
	for _, e := range f.events {
		d := filter.FilterDate(e)
		if !filter.From.IsZero() && d.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && d.After(filter.To) {
			continue
		}
		if filter.Ticker != "" && e.Ticker != filter.Ticker {
			continue
		}
		if filter.FilerCategory != "" && e.FilerCategory != filter.FilerCategory {
			continue
		}
		if filter.RequireAmount && !e.HasAmount() {
			continue
		}
		if filter.RequireParty && e.Party == "" {
			continue
		}
		if len(filter.Transactions) > 0 {
			match := false
			for _, t := range filter.Transactions {
				if e.Transaction == t {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeDisclosureRepo) CountByTicker(ctx context.Context, ticker string, types []contracts.TransactionType, from, to time.Time) (int, error) {
	events, err := f.Query(ctx, contracts.DisclosureFilter{From: from, To: to, Ticker: ticker, Transactions: types})
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

func buyEvent(id int64, ticker string, filerID int64, amount float64, onDay int) *contracts.DisclosureEvent {
	return &contracts.DisclosureEvent{
		ID:            id,
		Ticker:        ticker,
		FilerID:       filerID,
		FilerName:     "Test Filer",
		FilerCategory: contracts.FilerCorporateInsider,
		Transaction:   contracts.TxBuy,
		AmountUSD:     amount,
		TradeDate:     day(onDay),
		ReportedDate:  day(onDay),
	}
}

// fakeStrategy emits fixed signals and records the events it was fed
type fakeStrategy struct {
	name     string
	signals  []*contracts.StrategySignal
	err      error
	received []*contracts.DisclosureEvent
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Generate(events []*contracts.DisclosureEvent, start, end time.Time) ([]*contracts.StrategySignal, error) {
	f.received = events
	if f.err != nil {
		return nil, f.err
	}
	return f.signals, nil
}

var errBoom = errors.New("boom")
