package backtest

import (
	"time"
)

// Position tracks one holding through the open -> closed state
// machine. Partial closes reduce the share count and keep the
// position open until shares reach zero.
type Position struct {
	Ticker       string    `json:"ticker"`
	EntryDate    time.Time `json:"entry_date"`
	EntryPrice   float64   `json:"entry_price"`
	PositionSize float64   `json:"position_size"` // fraction of portfolio
	Shares       float64   `json:"shares"`

	ExitDate  time.Time `json:"exit_date,omitempty"`
	ExitPrice float64   `json:"exit_price,omitempty"`

	ReturnPct     float64 `json:"return_pct"`
	ReturnDollars float64 `json:"return_dollars"`
	HoldDays      int     `json:"hold_days"`

	closed bool
}

// Close fills the full remaining share count at the exit price
func (p *Position) Close(exitDate time.Time, exitPrice float64) {
	p.ExitDate = exitDate
	p.ExitPrice = exitPrice
	p.closed = true

	if p.EntryPrice > 0 {
		p.ReturnPct = (exitPrice - p.EntryPrice) / p.EntryPrice
		p.ReturnDollars = p.Shares * (exitPrice - p.EntryPrice)
		p.HoldDays = int(exitDate.Sub(p.EntryDate).Hours() / 24)
	}
}

// IsClosed reports whether the position has fully exited
func (p *Position) IsClosed() bool {
	return p.closed
}

// Portfolio owns a cash balance and positions during one backtest
// replay. It is discarded after the run.
type Portfolio struct {
	InitialCapital float64
	Cash           float64
	Positions      []*Position
}

// NewPortfolio creates a portfolio with starting capital
func NewPortfolio(initialCapital float64) *Portfolio {
	return &Portfolio{
		InitialCapital: initialCapital,
		Cash:           initialCapital,
	}
}

// AddPosition opens a position, deducting cost plus commission from
// cash. Returns false when cash is insufficient.
func (pf *Portfolio) AddPosition(position *Position, commission float64) bool {
	cost := position.Shares * position.EntryPrice
	total := cost + cost*commission
	if total > pf.Cash {
		return false
	}

	pf.Cash -= total
	pf.Positions = append(pf.Positions, position)
	return true
}

// ClosePosition fills the position and returns the proceeds to cash
func (pf *Portfolio) ClosePosition(position *Position, exitDate time.Time, exitPrice float64) {
	position.Close(exitDate, exitPrice)
	pf.Cash += position.Shares * exitPrice
}

// ReducePosition sells part of a position. When the remaining share
// count reaches zero the position closes.
func (pf *Portfolio) ReducePosition(position *Position, shares float64, exitDate time.Time, exitPrice float64) {
	if shares >= position.Shares {
		pf.ClosePosition(position, exitDate, exitPrice)
		return
	}

	pf.Cash += shares * exitPrice
	position.Shares -= shares
}

// ValueOn computes cash plus the marked value of open positions on a
// date, falling back to the entry price when no quote exists
func (pf *Portfolio) ValueOn(date time.Time, prices map[string]map[string]float64) float64 {
	total := pf.Cash
	key := dateKey(date)

	for _, position := range pf.Positions {
		if position.IsClosed() {
			continue
		}
		if series, ok := prices[position.Ticker]; ok {
			if price, ok := series[key]; ok {
				total += position.Shares * price
				continue
			}
		}
		total += position.Shares * position.EntryPrice
	}

	return total
}

// OpenPositions returns positions still open
func (pf *Portfolio) OpenPositions() []*Position {
	var open []*Position
	for _, p := range pf.Positions {
		if !p.IsClosed() {
			open = append(open, p)
		}
	}
	return open
}

// ClosedPositions returns positions that have exited
func (pf *Portfolio) ClosedPositions() []*Position {
	var closed []*Position
	for _, p := range pf.Positions {
		if p.IsClosed() {
			closed = append(closed, p)
		}
	}
	return closed
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
