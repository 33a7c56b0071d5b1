package contracts

// PatternKind is a closed enumeration of detectable behavior patterns.
// Adding a kind requires extending PositionMultiplier and Describe so
// new kinds cannot be silently ignored.
type PatternKind string

const (
	PatternUnusualVolume      PatternKind = "unusual_volume"
	PatternConsensusBuying    PatternKind = "consensus_buying"
	PatternInsiderMomentum    PatternKind = "insider_momentum"
	PatternBipartisanInterest PatternKind = "bipartisan_interest"
)

// AllPatternKinds lists every kind the detection engine can emit
var AllPatternKinds = []PatternKind{
	PatternUnusualVolume,
	PatternConsensusBuying,
	PatternInsiderMomentum,
	PatternBipartisanInterest,
}

// Valid reports whether the kind is a known pattern kind
func (k PatternKind) Valid() bool {
	switch k {
	case PatternUnusualVolume, PatternConsensusBuying, PatternInsiderMomentum, PatternBipartisanInterest:
		return true
	}
	return false
}

// PositionMultiplier returns the sizing multiplier applied when this
// kind contributes to a signal
func (k PatternKind) PositionMultiplier() float64 {
	switch k {
	case PatternBipartisanInterest:
		return 1.3
	case PatternConsensusBuying:
		return 1.2
	case PatternUnusualVolume:
		return 1.1
	case PatternInsiderMomentum:
		return 1.0
	}
	return 1.0
}

// Describe returns a short human-readable label for the kind
func (k PatternKind) Describe() string {
	switch k {
	case PatternUnusualVolume:
		return "Unusual insider trading volume"
	case PatternConsensusBuying:
		return "Multiple insiders buying"
	case PatternInsiderMomentum:
		return "Repeated insider buying"
	case PatternBipartisanInterest:
		return "Bipartisan political interest"
	}
	return string(k)
}

// PatternDetail carries kind-specific measurements. Each kind has its
// own concrete detail type; consumers type-switch exhaustively.
type PatternDetail interface {
	PatternKind() PatternKind
}

// UnusualVolumeDetail measures activity against the historical baseline
type UnusualVolumeDetail struct {
	CountRatio  float64 `json:"count_ratio"`
	AmountRatio float64 `json:"amount_ratio"`
	TradeCount  int     `json:"trade_count"`
	FilerCount  int     `json:"filer_count"`

	// ThinHistory is set when fewer than three full prior periods of
	// data existed, so the baseline divides by fewer periods than the
	// window implies and the ratios are less reliable.
	ThinHistory bool `json:"thin_history,omitempty"`
}

func (UnusualVolumeDetail) PatternKind() PatternKind { return PatternUnusualVolume }

// ConsensusBuyingDetail measures agreement among distinct filers
type ConsensusBuyingDetail struct {
	FilerCount        int     `json:"filer_count"`
	TradeCount        int     `json:"trade_count"`
	AvgAmountPerFiler float64 `json:"avg_amount_per_filer"`
}

func (ConsensusBuyingDetail) PatternKind() PatternKind { return PatternConsensusBuying }

// InsiderMomentumDetail measures repeated buying by one filer
type InsiderMomentumDetail struct {
	FilerName          string  `json:"filer_name"`
	TradeCount         int     `json:"trade_count"`
	AvgTradeSize       float64 `json:"avg_trade_size"`
	TradeFrequencyDays float64 `json:"trade_frequency_days"`
}

func (InsiderMomentumDetail) PatternKind() PatternKind { return PatternInsiderMomentum }

// BipartisanInterestDetail measures cross-party political buying
type BipartisanInterestDetail struct {
	RepublicanTrades int `json:"republican_trades"`
	DemocratTrades   int `json:"democrat_trades"`
	OtherPartyTrades int `json:"other_party_trades"`
	PartyCount       int `json:"party_count"`
}

func (BipartisanInterestDetail) PatternKind() PatternKind { return PatternBipartisanInterest }

// Pattern is a statistically-flagged behavioral cluster among
// disclosure events. Patterns are immutable once produced and are
// recomputed on each detection run; only the resulting Signal is
// persisted.
type Pattern struct {
	Kind           PatternKind   `json:"kind"`
	Ticker         string        `json:"ticker"`
	Confidence     float64       `json:"confidence"` // 0.0 ~ 1.0
	EventIDs       []int64       `json:"event_ids"`
	FilerIDs       []int64       `json:"filer_ids"`
	TimeSpanDays   int           `json:"time_span_days"`
	TotalAmountUSD float64       `json:"total_amount_usd"`
	Detail         PatternDetail `json:"detail,omitempty"`
}

// EventCount returns the number of contributing disclosure events
func (p *Pattern) EventCount() int {
	return len(p.EventIDs)
}

// FilerCount returns the number of distinct contributing filers
func (p *Pattern) FilerCount() int {
	return len(p.FilerIDs)
}
