package contracts

import (
	"fmt"
	"strings"
	"time"
)

// FilerCategory identifies who reported a trade
type FilerCategory string

const (
	FilerPolitician       FilerCategory = "politician"
	FilerCorporateInsider FilerCategory = "corporate_insider"
	FilerInstitution      FilerCategory = "institution"
)

// TransactionType identifies the kind of disclosed transaction
type TransactionType string

const (
	TxBuy        TransactionType = "buy"
	TxSell       TransactionType = "sell"
	TxOptionBuy  TransactionType = "option_buy"
	TxOptionSell TransactionType = "option_sell"
	TxGift       TransactionType = "gift"
	TxExchange   TransactionType = "exchange"
)

// BuyTypes are the transaction types treated as buying interest
var BuyTypes = []TransactionType{TxBuy, TxOptionBuy}

// IsBuy reports whether the transaction counts as buying interest
func (t TransactionType) IsBuy() bool {
	return t == TxBuy || t == TxOptionBuy
}

// Party is a political party affiliation, empty for non-politicians
type Party string

const (
	PartyRepublican Party = "Republican"
	PartyDemocrat   Party = "Democrat"
)

// DisclosureEvent represents a single reported trade by a politician,
// corporate insider, or institution
// ⭐ SSOT: normalized disclosure record consumed by all detectors and strategies
type DisclosureEvent struct {
	ID            int64           `json:"id"`
	Ticker        string          `json:"ticker"`
	FilerID       int64           `json:"filer_id"`
	FilerName     string          `json:"filer_name"`
	FilerCategory FilerCategory   `json:"filer_category"`
	Party         Party           `json:"party,omitempty"`
	Transaction   TransactionType `json:"transaction"`

	// AmountUSD is 0 when the filing did not disclose a dollar amount
	AmountUSD float64 `json:"amount_usd"`
	Quantity  float64 `json:"quantity,omitempty"`
	Price     float64 `json:"price,omitempty"`

	TradeDate    time.Time `json:"trade_date"`
	ReportedDate time.Time `json:"reported_date"`
}

// HasAmount reports whether the filing disclosed a dollar amount
func (e *DisclosureEvent) HasAmount() bool {
	return e.AmountUSD > 0
}

// Validate checks the invariants every event must satisfy before the
// core will consider it
func (e *DisclosureEvent) Validate() error {
	if e.Ticker == "" {
		return fmt.Errorf("event %d: empty ticker", e.ID)
	}
	if e.Ticker != strings.ToUpper(e.Ticker) {
		return fmt.Errorf("event %d: ticker %q is not upper-cased", e.ID, e.Ticker)
	}
	if !e.TradeDate.IsZero() && !e.ReportedDate.IsZero() && e.ReportedDate.Before(e.TradeDate) {
		return fmt.Errorf("event %d: reported date %s before trade date %s",
			e.ID, e.ReportedDate.Format("2006-01-02"), e.TradeDate.Format("2006-01-02"))
	}
	return nil
}
