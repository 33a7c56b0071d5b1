package contracts

import (
	"context"
	"errors"
	"time"
)

// ⭐ SSOT: repository interface definitions live here only

// ErrNoPriceData marks a ticker/date with no price history at all
// (delisted or invalid ticker), as opposed to a transient lookup
// failure. Callers skip the item on this error and retry on others.
var ErrNoPriceData = errors.New("no price data")

// DateBasis selects which date column From/To apply to. The zero
// value windows over the reported date: a filing only exists for the
// system once it is published, so detection and signal replay use it.
// The alpha studies window over the trade date instead.
type DateBasis int

const (
	ByReportedDate DateBasis = iota
	ByTradeDate
)

// DisclosureFilter narrows a disclosure query. Zero values mean "any".
type DisclosureFilter struct {
	From          time.Time
	To            time.Time
	Dates         DateBasis
	Ticker        string
	Transactions  []TransactionType
	FilerCategory FilerCategory
	RequireParty  bool // only events whose filer has a recorded party
	RequireAmount bool // only events with a disclosed dollar amount
}

// FilterDate returns the event date the filter's basis windows over
func (f DisclosureFilter) FilterDate(e *DisclosureEvent) time.Time {
	if f.Dates == ByTradeDate {
		return e.TradeDate
	}
	return e.ReportedDate
}

// DisclosureRepository reads normalized disclosure events
type DisclosureRepository interface {
	Query(ctx context.Context, filter DisclosureFilter) ([]*DisclosureEvent, error)
	CountByTicker(ctx context.Context, ticker string, types []TransactionType, from, to time.Time) (int, error)
}

// SignalRepository persists generated signals
type SignalRepository interface {
	// SaveBatch inserts signals for a strategy, skipping any ticker
	// already signaled under that strategy within the dedup window.
	// Returns the number actually inserted.
	SaveBatch(ctx context.Context, strategyName string, signals []*Signal, dedupWindow time.Duration) (int, error)
	GetActive(ctx context.Context, minConfidence float64, limit int) ([]*Signal, error)
	GetByTicker(ctx context.Context, ticker string, limit int) ([]*Signal, error)
}

// PricePoint is one day of price history for a ticker
type PricePoint struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceProvider reads historical prices. Implementations return
// ErrNoPriceData (possibly wrapped) when a ticker has no history,
// never a crash.
type PriceProvider interface {
	GetClose(ctx context.Context, ticker string, date time.Time) (float64, error)
	GetRange(ctx context.Context, ticker string, from, to time.Time) ([]*PricePoint, error)
	GetLatest(ctx context.Context, ticker string) (*PricePoint, error)
}
