package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insider-edge/internal/contracts"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
var testEnd = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

func buyAt(id, filerID int64, ticker string, amount float64, day int) *contracts.DisclosureEvent {
	reported := testStart.AddDate(0, 0, day)
	return &contracts.DisclosureEvent{
		ID:            id,
		Ticker:        ticker,
		FilerID:       filerID,
		FilerName:     "Filer " + string(rune('A'+filerID%26)),
		FilerCategory: contracts.FilerCorporateInsider,
		Transaction:   contracts.TxBuy,
		AmountUSD:     amount,
		TradeDate:     reported.AddDate(0, 0, -2),
		ReportedDate:  reported,
	}
}

func TestClusterStrategyEmitsSignal(t *testing.T) {
	strategy := NewClusterStrategy(30, 3, 60)

	events := []*contracts.DisclosureEvent{
		buyAt(1, 1, "NVDA", 200_000, 10),
		buyAt(2, 2, "NVDA", 300_000, 15),
		buyAt(3, 3, "NVDA", 400_000, 20),
	}

	signals, err := strategy.Generate(events, testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, signals, 1)

	signal := signals[0]
	assert.Equal(t, "NVDA", signal.Ticker)
	// Enter the day after the last cluster event (day 20)
	assert.Equal(t, testStart.AddDate(0, 0, 21), signal.EntryDate)
	assert.Equal(t, signal.EntryDate.AddDate(0, 0, 60), signal.ExitDate)
	assert.Len(t, signal.EventIDs, 3)
	assert.Greater(t, signal.Strength, 0.0)
	assert.LessOrEqual(t, signal.Strength, 1.0)
	assert.NotEmpty(t, signal.Reasoning)
}

func TestClusterGapBreaksCluster(t *testing.T) {
	// Day 0, day 5, day 40 with a 30-day window: the gap to day 40
	// exceeds the window, so only a two-event cluster forms and no
	// signal is emitted.
	strategy := NewClusterStrategy(30, 3, 60)

	events := []*contracts.DisclosureEvent{
		buyAt(1, 1, "AAPL", 200_000, 0),
		buyAt(2, 2, "AAPL", 200_000, 5),
		buyAt(3, 3, "AAPL", 200_000, 40),
	}

	signals, err := strategy.Generate(events, testStart, testEnd)
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestClusterBelowMinSize(t *testing.T) {
	strategy := NewClusterStrategy(30, 3, 60)

	events := []*contracts.DisclosureEvent{
		buyAt(1, 1, "AAPL", 200_000, 0),
		buyAt(2, 2, "AAPL", 200_000, 5),
	}

	signals, err := strategy.Generate(events, testStart, testEnd)
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestClusterIgnoresSells(t *testing.T) {
	strategy := NewClusterStrategy(30, 3, 60)

	sell := buyAt(3, 3, "AAPL", 200_000, 8)
	sell.Transaction = contracts.TxSell

	events := []*contracts.DisclosureEvent{
		buyAt(1, 1, "AAPL", 200_000, 0),
		buyAt(2, 2, "AAPL", 200_000, 5),
		sell,
	}

	signals, err := strategy.Generate(events, testStart, testEnd)
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestClusterMultipleClustersSameTicker(t *testing.T) {
	strategy := NewClusterStrategy(30, 3, 60)

	events := []*contracts.DisclosureEvent{
		// First cluster: days 0-10
		buyAt(1, 1, "MSFT", 200_000, 0),
		buyAt(2, 2, "MSFT", 200_000, 5),
		buyAt(3, 3, "MSFT", 200_000, 10),
		// Second cluster: days 100-110
		buyAt(4, 4, "MSFT", 200_000, 100),
		buyAt(5, 5, "MSFT", 200_000, 105),
		buyAt(6, 6, "MSFT", 200_000, 110),
	}

	signals, err := strategy.Generate(events, testStart, testEnd)
	require.NoError(t, err)
	assert.Len(t, signals, 2)
}

func TestClusterInvalidParameters(t *testing.T) {
	strategy := NewClusterStrategy(0, 3, 60)
	_, err := strategy.Generate(nil, testStart, testEnd)
	assert.Error(t, err)
}

func TestClusterOpenEndedExit(t *testing.T) {
	strategy := NewClusterStrategy(30, 3, 0)

	events := []*contracts.DisclosureEvent{
		buyAt(1, 1, "NVDA", 200_000, 10),
		buyAt(2, 2, "NVDA", 300_000, 15),
		buyAt(3, 3, "NVDA", 400_000, 20),
	}

	signals, err := strategy.Generate(events, testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.False(t, signals[0].HasExit())
}
