package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insider-edge/internal/contracts"
)

func TestLagTradeStrategy(t *testing.T) {
	strategy := NewLagTradeStrategy(5, 30)
	assert.Equal(t, "lag-5d-hold-30d", strategy.Name())

	events := []*contracts.DisclosureEvent{
		buyAt(1, 1, "NVDA", 300_000, 10),
		buyAt(2, 2, "AAPL", 600_000, 20),
	}

	signals, err := strategy.Generate(events, testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, signals, 2)

	first := signals[0]
	assert.Equal(t, "NVDA", first.Ticker)
	assert.Equal(t, testStart.AddDate(0, 0, 15), first.EntryDate)
	assert.Equal(t, first.EntryDate.AddDate(0, 0, 30), first.ExitDate)
	assert.Equal(t, 0.06, first.PositionSize) // $300k tier

	second := signals[1]
	assert.Equal(t, 0.08, second.PositionSize) // $600k tier
	assert.InDelta(t, 0.6, second.Strength, 0.0001)
}

func TestLagTradeSkipsEntryPastRange(t *testing.T) {
	strategy := NewLagTradeStrategy(10, 30)

	// Entry would land after the range end
	lastDay := int(testEnd.Sub(testStart).Hours() / 24)
	events := []*contracts.DisclosureEvent{
		buyAt(1, 1, "NVDA", 300_000, lastDay-5),
	}

	signals, err := strategy.Generate(events, testStart, testEnd)
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestLagTradeInvalidParameters(t *testing.T) {
	strategy := NewLagTradeStrategy(1, 0)
	_, err := strategy.Generate(nil, testStart, testEnd)
	assert.Error(t, err)
}

func TestSweepLagTrades(t *testing.T) {
	strategies := SweepLagTrades([]int{1, 2, 5}, []int{30, 45, 60})
	assert.Len(t, strategies, 9)

	names := make(map[string]bool)
	for _, s := range strategies {
		names[s.Name()] = true
	}
	assert.True(t, names["lag-1d-hold-30d"])
	assert.True(t, names["lag-5d-hold-60d"])
}

func TestPoliticianConvictionStrategy(t *testing.T) {
	strategy := NewPoliticianConvictionStrategy(100_000, 60)

	big := buyAt(1, 1, "LMT", 250_000, 10)
	big.FilerCategory = contracts.FilerPolitician

	small := buyAt(2, 2, "LMT", 50_000, 12)
	small.FilerCategory = contracts.FilerPolitician

	corporate := buyAt(3, 3, "LMT", 500_000, 14)
	corporate.FilerCategory = contracts.FilerCorporateInsider

	signals, err := strategy.Generate([]*contracts.DisclosureEvent{big, small, corporate}, testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, signals, 1)

	signal := signals[0]
	assert.Equal(t, []int64{1}, signal.EventIDs)
	assert.Equal(t, testStart.AddDate(0, 0, 11), signal.EntryDate)
	assert.Equal(t, signal.EntryDate.AddDate(0, 0, 60), signal.ExitDate)
}

func TestConvictionInvalidParameters(t *testing.T) {
	strategy := NewPoliticianConvictionStrategy(0, 60)
	_, err := strategy.Generate(nil, testStart, testEnd)
	assert.Error(t, err)
}

func TestStrategiesArePure(t *testing.T) {
	// Same input twice must produce identical signals
	strategy := NewClusterStrategy(30, 3, 60)
	events := []*contracts.DisclosureEvent{
		buyAt(1, 1, "NVDA", 200_000, 10),
		buyAt(2, 2, "NVDA", 300_000, 15),
		buyAt(3, 3, "NVDA", 400_000, 20),
	}

	first, err := strategy.Generate(events, testStart, testEnd)
	require.NoError(t, err)
	second, err := strategy.Generate(events, testStart, testEnd)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}
