package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error"})
}

func testSignalConfig() config.SignalConfig {
	return config.SignalConfig{
		MinConfidence:    0.3,
		MaxSignalsPerRun: 20,
		MaxPositionSize:  0.10,
		MinPositionSize:  0.02,
		ExpiryDays:       7,
		DedupWindow:      24 * time.Hour,
	}
}

// fakeDisclosureRepo serves events from memory, applying the same
// filter semantics the Postgres repository implements
type fakeDisclosureRepo struct {
	events []*contracts.DisclosureEvent

	// failFor makes Query error when the filter targets this category
	failFor contracts.FilerCategory
}

func (f *fakeDisclosureRepo) Query(_ context.Context, filter contracts.DisclosureFilter) ([]*contracts.DisclosureEvent, error) {
	if f.failFor != "" && filter.FilerCategory == f.failFor {
		return nil, fmt.Errorf("simulated query failure for %s", f.failFor)
	}

	var matched []*contracts.DisclosureEvent
	for _, event := range f.events {
		d := filter.FilterDate(event)
		if !filter.From.IsZero() && d.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && d.After(filter.To) {
			continue
		}
		if filter.Ticker != "" && event.Ticker != filter.Ticker {
			continue
		}
		if filter.FilerCategory != "" && event.FilerCategory != filter.FilerCategory {
			continue
		}
		if filter.RequireParty && event.Party == "" {
			continue
		}
		if filter.RequireAmount && !event.HasAmount() {
			continue
		}
		if len(filter.Transactions) > 0 {
			found := false
			for _, tx := range filter.Transactions {
				if event.Transaction == tx {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		matched = append(matched, event)
	}
	return matched, nil
}

func (f *fakeDisclosureRepo) CountByTicker(ctx context.Context, ticker string, types []contracts.TransactionType, from, to time.Time) (int, error) {
	events, err := f.Query(ctx, contracts.DisclosureFilter{
		From: from, To: to, Ticker: ticker, Transactions: types,
	})
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

// fakePriceProvider serves a fixed latest close per ticker
type fakePriceProvider struct {
	prices map[string]float64
}

func (f *fakePriceProvider) GetClose(_ context.Context, ticker string, _ time.Time) (float64, error) {
	price, ok := f.prices[ticker]
	if !ok {
		return 0, contracts.ErrNoPriceData
	}
	return price, nil
}

func (f *fakePriceProvider) GetRange(_ context.Context, ticker string, from, to time.Time) ([]*contracts.PricePoint, error) {
	price, ok := f.prices[ticker]
	if !ok {
		return nil, contracts.ErrNoPriceData
	}
	var points []*contracts.PricePoint
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		points = append(points, &contracts.PricePoint{Ticker: ticker, Date: d, Close: price})
	}
	return points, nil
}

func (f *fakePriceProvider) GetLatest(_ context.Context, ticker string) (*contracts.PricePoint, error) {
	price, ok := f.prices[ticker]
	if !ok {
		return nil, contracts.ErrNoPriceData
	}
	return &contracts.PricePoint{Ticker: ticker, Date: time.Now(), Close: price}, nil
}

// fakeSignalRepo records saved batches
type fakeSignalRepo struct {
	saved []*contracts.Signal
}

func (f *fakeSignalRepo) SaveBatch(_ context.Context, _ string, signals []*contracts.Signal, _ time.Duration) (int, error) {
	f.saved = append(f.saved, signals...)
	return len(signals), nil
}

func (f *fakeSignalRepo) GetActive(_ context.Context, _ float64, _ int) ([]*contracts.Signal, error) {
	return f.saved, nil
}

func (f *fakeSignalRepo) GetByTicker(_ context.Context, ticker string, _ int) ([]*contracts.Signal, error) {
	var matched []*contracts.Signal
	for _, signal := range f.saved {
		if signal.Ticker == ticker {
			matched = append(matched, signal)
		}
	}
	return matched, nil
}

// fakeProfiler serves fixed company profiles
type fakeProfiler struct {
	profiles map[string]*contracts.CompanyProfile
}

func (f *fakeProfiler) Profile(_ context.Context, ticker string) (*contracts.CompanyProfile, error) {
	profile, ok := f.profiles[ticker]
	if !ok {
		return nil, fmt.Errorf("profile unavailable for %s", ticker)
	}
	return profile, nil
}

// buyEvent builds a politician buy event reported daysAgo days ago
func buyEvent(id, filerID int64, ticker string, amount float64, daysAgo int, party contracts.Party) *contracts.DisclosureEvent {
	reported := time.Now().AddDate(0, 0, -daysAgo)
	return &contracts.DisclosureEvent{
		ID:            id,
		Ticker:        ticker,
		FilerID:       filerID,
		FilerName:     fmt.Sprintf("Filer %d", filerID),
		FilerCategory: contracts.FilerPolitician,
		Party:         party,
		Transaction:   contracts.TxBuy,
		AmountUSD:     amount,
		TradeDate:     reported.AddDate(0, 0, -2),
		ReportedDate:  reported,
	}
}
