package strategy

import (
	"fmt"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
)

// PoliticianConvictionStrategy signals on a single large politician
// buy above a dollar threshold
type PoliticianConvictionStrategy struct {
	MinAmountUSD float64
	HoldDays     int
}

// NewPoliticianConvictionStrategy creates a conviction strategy
func NewPoliticianConvictionStrategy(minAmountUSD float64, holdDays int) *PoliticianConvictionStrategy {
	return &PoliticianConvictionStrategy{MinAmountUSD: minAmountUSD, HoldDays: holdDays}
}

func (s *PoliticianConvictionStrategy) Name() string {
	return fmt.Sprintf("politician-conviction-%.0fk", s.MinAmountUSD/1000)
}

// Generate emits one signal per qualifying politician buy
func (s *PoliticianConvictionStrategy) Generate(events []*contracts.DisclosureEvent, start, end time.Time) ([]*contracts.StrategySignal, error) {
	if s.MinAmountUSD <= 0 || s.HoldDays <= 0 {
		return nil, fmt.Errorf("invalid conviction parameters: min=$%.0f hold=%d", s.MinAmountUSD, s.HoldDays)
	}

	var signals []*contracts.StrategySignal
	for _, event := range filterBuys(events, start, end) {
		if event.FilerCategory != contracts.FilerPolitician {
			continue
		}
		if event.AmountUSD < s.MinAmountUSD {
			continue
		}

		entry := eventDate(event).AddDate(0, 0, 1)
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
			Reasoning: fmt.Sprintf("Conviction buy: %s disclosed $%.0f purchase of %s",
				event.FilerName, event.AmountUSD, event.Ticker),
		})
	}

	return signals, nil
}
