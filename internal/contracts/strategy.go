package contracts

import "time"

// StrategySignal is a trade intent produced by a strategy from a
// disclosure window. It is consumed only by the backtesting engine;
// strategies never touch price data.
type StrategySignal struct {
	Ticker    string    `json:"ticker"`
	EntryDate time.Time `json:"entry_date"`

	// ExitDate is zero when the strategy leaves the exit open; the
	// backtester then holds the position through the end of the range.
	ExitDate time.Time `json:"exit_date,omitempty"`

	PositionSize float64 `json:"position_size"` // fraction of portfolio
	Strength     float64 `json:"strength"`      // 0.0 ~ 1.0
	EventIDs     []int64 `json:"event_ids"`
	Reasoning    string  `json:"reasoning"`
}

// HasExit reports whether the strategy specified an exit date
func (s *StrategySignal) HasExit() bool {
	return !s.ExitDate.IsZero()
}

// Strategy maps a window of disclosure events to trade intents.
// Implementations must be pure: same events in, same signals out,
// no price lookups, no side effects.
type Strategy interface {
	Name() string
	Generate(events []*DisclosureEvent, start, end time.Time) ([]*StrategySignal, error)
}
