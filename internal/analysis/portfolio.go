package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/logger"
)

// Recommendation bundles filtered signals with a portfolio allocation
type Recommendation struct {
	Profile         string             `json:"profile"`
	Signals         []*contracts.Signal `json:"signals"`
	Allocation      map[string]float64 `json:"allocation"` // ticker -> fraction
	Summary         Summary            `json:"summary"`
	TotalAllocation float64            `json:"total_allocation"`
	CashAllocation  float64            `json:"cash_allocation"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// Summary holds aggregate statistics over the recommended signals
type Summary struct {
	SignalCount          int                             `json:"signal_count"`
	StrengthDistribution map[contracts.SignalStrength]int `json:"strength_distribution"`
	AverageConfidence    float64                         `json:"average_confidence"`
	EstimatedReturn      float64                         `json:"estimated_return"`
	AverageRiskFactors   float64                         `json:"average_risk_factors"`
}

// Allocator turns generated signals into risk-filtered portfolio
// recommendations
type Allocator struct {
	generator *Generator
	logger    *logger.Logger
}

// NewAllocator creates a new allocator
func NewAllocator(generator *Generator, log *logger.Logger) *Allocator {
	return &Allocator{
		generator: generator,
		logger:    log.WithComponent("allocator"),
	}
}

// Recommend generates and persists current signals, then filters and
// allocates them for the named risk profile
func (a *Allocator) Recommend(ctx context.Context, days int, profileName string) (*Recommendation, error) {
	profile, err := contracts.RiskProfileFor(profileName)
	if err != nil {
		return nil, err
	}

	signals, _, err := a.generator.GenerateAndSave(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("signal generation failed: %w", err)
	}

	filtered := FilterByProfile(signals, profile)
	allocation := Allocate(filtered, profile)

	total := 0.0
	for _, fraction := range allocation {
		total += fraction
	}

	a.logger.WithFields(map[string]interface{}{
		"profile":    profileName,
		"signals":    len(signals),
		"filtered":   len(filtered),
		"allocation": total,
	}).Info("Portfolio recommendation built")

	return &Recommendation{
		Profile:         profileName,
		Signals:         filtered,
		Allocation:      allocation,
		Summary:         summarize(filtered, allocation),
		TotalAllocation: total,
		CashAllocation:  1.0 - total,
		GeneratedAt:     time.Now(),
	}, nil
}

// FilterByProfile keeps signals the profile allows and re-clamps their
// position size to the profile's maximum. Input signals are copied,
// not mutated.
func FilterByProfile(signals []*contracts.Signal, profile contracts.RiskProfile) []*contracts.Signal {
	var filtered []*contracts.Signal
	for _, signal := range signals {
		if !profile.Allows(signal) {
			continue
		}

		clamped := *signal
		if clamped.PositionSizePct > profile.MaxPositionSize {
			clamped.PositionSizePct = profile.MaxPositionSize
		}
		filtered = append(filtered, &clamped)
	}
	return filtered
}

// Allocate maps tickers to portfolio fractions. When the raw sum
// exceeds the profile's ceiling, all sizes are scaled down
// proportionally so relative weighting is preserved.
func Allocate(signals []*contracts.Signal, profile contracts.RiskProfile) map[string]float64 {
	if len(signals) == 0 {
		return map[string]float64{}
	}

	allocation := make(map[string]float64, len(signals))
	totalRaw := 0.0
	for _, signal := range signals {
		allocation[signal.Ticker] = signal.PositionSizePct
		totalRaw += signal.PositionSizePct
	}

	if totalRaw > profile.MaxTotalAllocation {
		scale := profile.MaxTotalAllocation / totalRaw
		for ticker := range allocation {
			allocation[ticker] *= scale
		}
	}

	return allocation
}

func summarize(signals []*contracts.Signal, allocation map[string]float64) Summary {
	if len(signals) == 0 {
		return Summary{StrengthDistribution: map[contracts.SignalStrength]int{}}
	}

	distribution := make(map[contracts.SignalStrength]int)
	totalConfidence := 0.0
	totalRiskFactors := 0
	estimatedReturn := 0.0

	for _, signal := range signals {
		distribution[signal.Strength]++
		totalConfidence += signal.Confidence
		totalRiskFactors += len(signal.RiskFactors)
		estimatedReturn += signal.ExpectedReturn() * allocation[signal.Ticker]
	}

	return Summary{
		SignalCount:          len(signals),
		StrengthDistribution: distribution,
		AverageConfidence:    totalConfidence / float64(len(signals)),
		EstimatedReturn:      estimatedReturn,
		AverageRiskFactors:   float64(totalRiskFactors) / float64(len(signals)),
	}
}
