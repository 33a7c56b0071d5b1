package contracts

import "context"

// CompanyProfile holds the market context used for risk-factor
// derivation. Zero values mean the field was unavailable.
type CompanyProfile struct {
	Ticker    string  `json:"ticker"`
	MarketCap float64 `json:"market_cap"`
	Sector    string  `json:"sector"`
	Beta      float64 `json:"beta"`
}

// CompanyProfiler fetches company profiles. Failures are fail-soft
// for callers: a missing profile degrades risk-factor detail, never
// aborts signal generation.
type CompanyProfiler interface {
	Profile(ctx context.Context, ticker string) (*CompanyProfile, error)
}
