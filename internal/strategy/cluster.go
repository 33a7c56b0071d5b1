package strategy

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
)

// ClusterStrategy signals when enough distinct buy events for one
// ticker fall close together in time
type ClusterStrategy struct {
	WindowDays     int // max gap between successive events in a cluster
	MinClusterSize int
	HoldDays       int // 0 leaves the exit open
}

// NewClusterStrategy creates a cluster strategy with the given window
// and minimum size
func NewClusterStrategy(windowDays, minClusterSize, holdDays int) *ClusterStrategy {
	return &ClusterStrategy{
		WindowDays:     windowDays,
		MinClusterSize: minClusterSize,
		HoldDays:       holdDays,
	}
}

func (s *ClusterStrategy) Name() string {
	return fmt.Sprintf("cluster-%dd-min%d", s.WindowDays, s.MinClusterSize)
}

// Generate walks each ticker's buy events in date order and cuts a
// cluster whenever the gap to the next event exceeds the window.
// Clusters below the minimum size emit nothing.
func (s *ClusterStrategy) Generate(events []*contracts.DisclosureEvent, start, end time.Time) ([]*contracts.StrategySignal, error) {
	if s.WindowDays <= 0 || s.MinClusterSize <= 0 {
		return nil, fmt.Errorf("invalid cluster parameters: window=%d min=%d", s.WindowDays, s.MinClusterSize)
	}

	buys := filterBuys(events, start, end)

	byTicker := make(map[string][]*contracts.DisclosureEvent)
	tickers := []string{}
	for _, event := range buys {
		if _, seen := byTicker[event.Ticker]; !seen {
			tickers = append(tickers, event.Ticker)
		}
		byTicker[event.Ticker] = append(byTicker[event.Ticker], event)
	}

	var signals []*contracts.StrategySignal
	for _, ticker := range tickers {
		tickerEvents := byTicker[ticker]

		var cluster []*contracts.DisclosureEvent
		flush := func() {
			if len(cluster) >= s.MinClusterSize {
				if signal := s.signalFromCluster(ticker, cluster, start, end); signal != nil {
					signals = append(signals, signal)
				}
			}
			cluster = nil
		}

		for _, event := range tickerEvents {
			if len(cluster) > 0 {
				gap := daysBetween(eventDate(cluster[len(cluster)-1]), eventDate(event))
				if gap > s.WindowDays {
					flush()
				}
			}
			cluster = append(cluster, event)
		}
		flush()
	}

	return signals, nil
}

func (s *ClusterStrategy) signalFromCluster(ticker string, cluster []*contracts.DisclosureEvent, start, end time.Time) *contracts.StrategySignal {
	last := cluster[len(cluster)-1]
	entry := eventDate(last).AddDate(0, 0, 1) // enter the day after the trigger

	if entry.Before(start) || entry.After(end) {
		return nil
	}

	totalAmount := 0.0
	filerNames := []string{}
	seenFilers := make(map[int64]bool)
	ids := make([]int64, 0, len(cluster))
	for _, event := range cluster {
		totalAmount += event.AmountUSD
		ids = append(ids, event.ID)
		if !seenFilers[event.FilerID] {
			seenFilers[event.FilerID] = true
			if event.FilerName != "" {
				filerNames = append(filerNames, event.FilerName)
			}
		}
	}
	avgAmount := totalAmount / float64(len(cluster))

	// Amount sets the base strength, filer diversity boosts it
	strength := minF(0.5, avgAmount/1_000_000)
	strength = minF(1.0, strength+minF(0.5, float64(len(seenFilers))/5.0))

	shown := filerNames
	suffix := ""
	if len(shown) > 3 {
		shown = shown[:3]
		suffix = " and others"
	}
	reasoning := fmt.Sprintf("Cluster signal: %d buys by %d filers including %s%s",
		len(cluster), len(seenFilers), strings.Join(shown, ", "), suffix)

	signal := &contracts.StrategySignal{
		Ticker:       ticker,
		EntryDate:    entry,
		PositionSize: positionSizeForAmount(avgAmount),
		Strength:     strength,
		EventIDs:     ids,
		Reasoning:    reasoning,
	}
	if s.HoldDays > 0 {
		signal.ExitDate = entry.AddDate(0, 0, s.HoldDays)
	}
	return signal
}
