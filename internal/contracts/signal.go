package contracts

import (
	"fmt"
	"time"
)

// SignalAction is the recommended action for a signal
type SignalAction string

const (
	ActionBuy   SignalAction = "buy"
	ActionSell  SignalAction = "sell"
	ActionHold  SignalAction = "hold"
	ActionWatch SignalAction = "watch"
)

// SignalStrength is the tier a signal's confidence falls into
type SignalStrength string

const (
	StrengthWeak       SignalStrength = "weak"
	StrengthModerate   SignalStrength = "moderate"
	StrengthStrong     SignalStrength = "strong"
	StrengthVeryStrong SignalStrength = "very_strong"
)

// Strength tier thresholds. Confidence exactly at a threshold maps to
// the higher tier.
const (
	ThresholdWeak       = 0.30
	ThresholdModerate   = 0.50
	ThresholdStrong     = 0.70
	ThresholdVeryStrong = 0.85
)

// ClassifyStrength maps a confidence score to its strength tier
// ⭐ SSOT: tier classification happens here only
func ClassifyStrength(confidence float64) SignalStrength {
	switch {
	case confidence >= ThresholdVeryStrong:
		return StrengthVeryStrong
	case confidence >= ThresholdStrong:
		return StrengthStrong
	case confidence >= ThresholdModerate:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// Score converts the tier to a numeric strength for persistence
func (s SignalStrength) Score() float64 {
	switch s {
	case StrengthVeryStrong:
		return 1.0
	case StrengthStrong:
		return 0.75
	case StrengthModerate:
		return 0.50
	default:
		return 0.25
	}
}

// TargetReturn is the expected upside used to set the target price
func (s SignalStrength) TargetReturn() float64 {
	switch s {
	case StrengthVeryStrong:
		return 0.35
	case StrengthStrong:
		return 0.25
	case StrengthModerate:
		return 0.15
	default:
		return 0.10
	}
}

// StopLossReturn is the downside offset used to set the stop loss.
// Weaker signals get tighter stops.
func (s SignalStrength) StopLossReturn() float64 {
	switch s {
	case StrengthVeryStrong:
		return -0.15
	case StrengthStrong:
		return -0.12
	case StrengthModerate:
		return -0.10
	default:
		return -0.08
	}
}

// Signal is an actionable, confidence-scored recommendation derived
// from one or more patterns for the same ticker
type Signal struct {
	Ticker     string         `json:"ticker"`
	Action     SignalAction   `json:"action"`
	Strength   SignalStrength `json:"strength"`
	Confidence float64        `json:"confidence"` // 0.0 ~ 1.0

	// Price and timing
	CurrentPrice    float64 `json:"current_price"`
	TargetPrice     float64 `json:"target_price"`
	StopLoss        float64 `json:"stop_loss"`
	TimeHorizonDays int     `json:"time_horizon_days"`

	// Position sizing (fraction of portfolio)
	PositionSizePct float64 `json:"position_size_pct"`

	// Signal details
	Reasoning          string        `json:"reasoning"`
	SupportingPatterns []PatternKind `json:"supporting_patterns"`
	RiskFactors        []string      `json:"risk_factors"`

	// Metadata
	GeneratedAt       time.Time `json:"generated_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	InsiderTradeCount int       `json:"insider_trade_count"`
	TotalInsiderUSD   float64   `json:"total_insider_usd"`
}

// IsExpired reports whether the signal is past its expiry
func (s *Signal) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// ExpectedReturn is the target upside relative to the current price
func (s *Signal) ExpectedReturn() float64 {
	if s.CurrentPrice <= 0 {
		return 0
	}
	return (s.TargetPrice - s.CurrentPrice) / s.CurrentPrice
}

// RiskProfile defines how a risk tolerance filters and bounds signals
type RiskProfile struct {
	Name               string           `json:"name"`
	MinConfidence      float64          `json:"min_confidence"`
	MaxPositionSize    float64          `json:"max_position_size"`
	AllowedStrengths   []SignalStrength `json:"allowed_strengths"`
	MaxTotalAllocation float64          `json:"max_total_allocation"`
}

// Allows reports whether a signal passes the profile's filter
func (p RiskProfile) Allows(s *Signal) bool {
	if s.Confidence < p.MinConfidence {
		return false
	}
	for _, strength := range p.AllowedStrengths {
		if s.Strength == strength {
			return true
		}
	}
	return false
}

// ⭐ SSOT: risk profile definitions live here only
var riskProfiles = map[string]RiskProfile{
	"conservative": {
		Name:               "conservative",
		MinConfidence:      0.6,
		MaxPositionSize:    0.05,
		AllowedStrengths:   []SignalStrength{StrengthStrong, StrengthVeryStrong},
		MaxTotalAllocation: 0.30,
	},
	"moderate": {
		Name:               "moderate",
		MinConfidence:      0.4,
		MaxPositionSize:    0.08,
		AllowedStrengths:   []SignalStrength{StrengthModerate, StrengthStrong, StrengthVeryStrong},
		MaxTotalAllocation: 0.50,
	},
	"aggressive": {
		Name:               "aggressive",
		MinConfidence:      0.3,
		MaxPositionSize:    0.12,
		AllowedStrengths:   []SignalStrength{StrengthWeak, StrengthModerate, StrengthStrong, StrengthVeryStrong},
		MaxTotalAllocation: 0.70,
	},
}

// RiskProfileFor returns the named risk profile
func RiskProfileFor(name string) (RiskProfile, error) {
	profile, ok := riskProfiles[name]
	if !ok {
		return RiskProfile{}, fmt.Errorf("unknown risk profile: %s", name)
	}
	return profile, nil
}
