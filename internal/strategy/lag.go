package strategy

import (
	"fmt"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
)

// LagTradeStrategy enters a fixed number of days after each disclosed
// buy and holds for a fixed period. Sweeping lag and hold day lists
// produces the strategy grid compared by the backtester.
type LagTradeStrategy struct {
	LagDays  int
	HoldDays int
}

// NewLagTradeStrategy creates a lag-trade strategy
func NewLagTradeStrategy(lagDays, holdDays int) *LagTradeStrategy {
	return &LagTradeStrategy{LagDays: lagDays, HoldDays: holdDays}
}

func (s *LagTradeStrategy) Name() string {
	return fmt.Sprintf("lag-%dd-hold-%dd", s.LagDays, s.HoldDays)
}

// Generate emits one signal per disclosed buy in the window
func (s *LagTradeStrategy) Generate(events []*contracts.DisclosureEvent, start, end time.Time) ([]*contracts.StrategySignal, error) {
	if s.LagDays < 0 || s.HoldDays <= 0 {
		return nil, fmt.Errorf("invalid lag parameters: lag=%d hold=%d", s.LagDays, s.HoldDays)
	}

	var signals []*contracts.StrategySignal
	for _, event := range filterBuys(events, start, end) {
		entry := eventDate(event).AddDate(0, 0, s.LagDays)
		if entry.After(end) {
			continue
		}

		signals = append(signals, &contracts.StrategySignal{
			Ticker:       event.Ticker,
			EntryDate:    entry,
			ExitDate:     entry.AddDate(0, 0, s.HoldDays),
			PositionSize: positionSizeForAmount(event.AmountUSD),
			Strength:     minF(1.0, event.AmountUSD/1_000_000),
			EventIDs:     []int64{event.ID},
			Reasoning: fmt.Sprintf("Lag trade: %s buy of %s, entering %d days after disclosure",
				event.FilerName, event.Ticker, s.LagDays),
		})
	}

	return signals, nil
}

// SweepLagTrades builds the lag x hold strategy grid from configured
// day lists
func SweepLagTrades(lagDays, holdDays []int) []contracts.Strategy {
	var strategies []contracts.Strategy
	for _, lag := range lagDays {
		for _, hold := range holdDays {
			strategies = append(strategies, NewLagTradeStrategy(lag, hold))
		}
	}
	return strategies
}
