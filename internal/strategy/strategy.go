// Package strategy holds pure disclosure-window strategies: events in,
// trade intents out. Strategies never touch price data; the backtest
// engine owns execution.
package strategy

import (
	"sort"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
)

// positionSizeForAmount maps the dollar size of the triggering
// disclosure activity to a portfolio fraction
func positionSizeForAmount(amountUSD float64) float64 {
	switch {
	case amountUSD >= 1_000_000:
		return 0.10
	case amountUSD >= 500_000:
		return 0.08
	case amountUSD >= 250_000:
		return 0.06
	case amountUSD >= 100_000:
		return 0.04
	default:
		return 0.02
	}
}

// eventDate prefers the reported date, falling back to the trade date
func eventDate(e *contracts.DisclosureEvent) time.Time {
	if !e.ReportedDate.IsZero() {
		return e.ReportedDate
	}
	return e.TradeDate
}

// filterBuys keeps dated buy events inside [start, end], sorted by date
func filterBuys(events []*contracts.DisclosureEvent, start, end time.Time) []*contracts.DisclosureEvent {
	var buys []*contracts.DisclosureEvent
	for _, event := range events {
		if event.Ticker == "" || !event.Transaction.IsBuy() {
			continue
		}
		d := eventDate(event)
		if d.IsZero() || d.Before(start) || d.After(end) {
			continue
		}
		buys = append(buys, event)
	}
	sort.SliceStable(buys, func(i, j int) bool {
		return eventDate(buys[i]).Before(eventDate(buys[j]))
	})
	return buys
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
