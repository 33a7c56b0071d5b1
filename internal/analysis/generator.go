package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

// StrategyName identifies pattern-based signals in the signal store
const StrategyName = "pattern-based-signals"

// Generator converts detected patterns into ranked, sized, bounded
// trading signals
// ⭐ SSOT: signal generation runs here only
type Generator struct {
	detector       *Detector
	priceProvider  contracts.PriceProvider
	signalRepo     contracts.SignalRepository
	disclosureRepo contracts.DisclosureRepository
	profiler       contracts.CompanyProfiler
	cfg            config.SignalConfig
	logger         *logger.Logger
}

// NewGenerator creates a new signal generator. The profiler may be
// nil; risk factors then omit market-context checks.
func NewGenerator(
	detector *Detector,
	priceProvider contracts.PriceProvider,
	signalRepo contracts.SignalRepository,
	disclosureRepo contracts.DisclosureRepository,
	profiler contracts.CompanyProfiler,
	cfg config.SignalConfig,
	log *logger.Logger,
) *Generator {
	return &Generator{
		detector:       detector,
		priceProvider:  priceProvider,
		signalRepo:     signalRepo,
		disclosureRepo: disclosureRepo,
		profiler:       profiler,
		cfg:            cfg,
		logger:         log.WithComponent("generator"),
	}
}

// Generate detects patterns over the lookback window and builds one
// signal per ticker with qualifying patterns. A ticker whose price
// cannot be fetched is skipped and logged, never fatal to the batch.
func (g *Generator) Generate(ctx context.Context, days int) ([]*contracts.Signal, error) {
	patterns, err := g.detector.DetectAll(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("pattern detection failed: %w", err)
	}

	byTicker := make(map[string][]*contracts.Pattern)
	for _, pattern := range patterns {
		if pattern.Confidence < g.cfg.MinConfidence {
			continue
		}
		byTicker[pattern.Ticker] = append(byTicker[pattern.Ticker], pattern)
	}

	var signals []*contracts.Signal
	for ticker, tickerPatterns := range byTicker {
		signal, err := g.buildSignal(ctx, ticker, tickerPatterns)
		if err != nil {
			g.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Skipping ticker")
			continue
		}
		signals = append(signals, signal)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Confidence != signals[j].Confidence {
			return signals[i].Confidence > signals[j].Confidence
		}
		return signals[i].Ticker < signals[j].Ticker
	})

	if len(signals) > g.cfg.MaxSignalsPerRun {
		signals = signals[:g.cfg.MaxSignalsPerRun]
	}

	g.logger.WithFields(map[string]interface{}{
		"days":    days,
		"tickers": len(byTicker),
		"signals": len(signals),
	}).Info("Signal generation completed")

	return signals, nil
}

// GenerateAndSave generates signals and persists the batch once it is
// complete. Nothing is written if generation fails partway.
func (g *Generator) GenerateAndSave(ctx context.Context, days int) ([]*contracts.Signal, int, error) {
	signals, err := g.Generate(ctx, days)
	if err != nil {
		return nil, 0, err
	}

	inserted, err := g.signalRepo.SaveBatch(ctx, StrategyName, signals, g.cfg.DedupWindow)
	if err != nil {
		return signals, 0, fmt.Errorf("failed to save signals: %w", err)
	}

	g.logger.WithFields(map[string]interface{}{
		"generated": len(signals),
		"inserted":  inserted,
	}).Info("Signals saved")

	return signals, inserted, nil
}

func (g *Generator) buildSignal(ctx context.Context, ticker string, patterns []*contracts.Pattern) (*contracts.Signal, error) {
	if len(patterns) == 0 {
		return nil, errors.New("no patterns")
	}

	confidence := aggregateConfidence(patterns)
	strength := contracts.ClassifyStrength(confidence)

	latest, err := g.priceProvider.GetLatest(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("price lookup failed: %w", err)
	}
	currentPrice := latest.Close

	now := time.Now()
	signal := &contracts.Signal{
		Ticker:             ticker,
		Action:             contracts.ActionBuy, // buy-only for now
		Strength:           strength,
		Confidence:         confidence,
		CurrentPrice:       currentPrice,
		TargetPrice:        currentPrice * (1 + strength.TargetReturn()),
		StopLoss:           currentPrice * (1 + strength.StopLossReturn()),
		TimeHorizonDays:    timeHorizon(patterns),
		PositionSizePct:    g.positionSize(patterns, confidence),
		Reasoning:          buildReasoning(ticker, patterns),
		SupportingPatterns: patternKinds(patterns),
		RiskFactors:        g.riskFactors(ctx, ticker, patterns),
		GeneratedAt:        now,
		ExpiresAt:          now.AddDate(0, 0, g.cfg.ExpiryDays),
		InsiderTradeCount:  totalEvents(patterns),
		TotalInsiderUSD:    totalAmount(patterns),
	}

	return signal, nil
}

// aggregateConfidence is the mean pattern confidence plus a bounded
// boost for corroborating patterns, capped at 1.0
func aggregateConfidence(patterns []*contracts.Pattern) float64 {
	total := 0.0
	for _, pattern := range patterns {
		total += pattern.Confidence
	}
	mean := total / float64(len(patterns))

	boost := minFloat(0.2, 0.05*float64(len(patterns)-1))
	return minFloat(1.0, mean+boost)
}

// positionSize scales the configured maximum by confidence and the
// strongest contributing pattern kind, clamped to [min, max]
func (g *Generator) positionSize(patterns []*contracts.Pattern, confidence float64) float64 {
	base := confidence * g.cfg.MaxPositionSize

	multiplier := 1.0
	for _, pattern := range patterns {
		if m := pattern.Kind.PositionMultiplier(); m > multiplier {
			multiplier = m
		}
	}

	size := base * multiplier
	if size < g.cfg.MinPositionSize {
		return g.cfg.MinPositionSize
	}
	if size > g.cfg.MaxPositionSize {
		return g.cfg.MaxPositionSize
	}
	return size
}

// timeHorizon is 1.5x the mean pattern time span, clamped to [30, 120]
func timeHorizon(patterns []*contracts.Pattern) int {
	total := 0
	for _, pattern := range patterns {
		total += pattern.TimeSpanDays
	}
	mean := float64(total) / float64(len(patterns))

	horizon := int(mean * 1.5)
	if horizon < 30 {
		return 30
	}
	if horizon > 120 {
		return 120
	}
	return horizon
}

func buildReasoning(ticker string, patterns []*contracts.Pattern) string {
	var reasons []string
	for _, pattern := range patterns {
		desc := pattern.Kind.Describe()
		switch detail := pattern.Detail.(type) {
		case contracts.ConsensusBuyingDetail:
			reasons = append(reasons, fmt.Sprintf("%s (%d different insiders)", desc, detail.FilerCount))
		case contracts.BipartisanInterestDetail:
			reasons = append(reasons, fmt.Sprintf("%s (both parties trading)", desc))
		case contracts.UnusualVolumeDetail:
			reasons = append(reasons, fmt.Sprintf("%s (%.1fx normal activity)", desc, detail.AmountRatio))
		default:
			reasons = append(reasons, desc)
		}
	}

	shown := reasons
	if len(shown) > 3 {
		shown = shown[:3]
	}
	reasoning := fmt.Sprintf("%s: %s", ticker, strings.Join(shown, ", "))
	if len(reasons) > 3 {
		reasoning += fmt.Sprintf(" and %d more patterns", len(reasons)-3)
	}
	reasoning += fmt.Sprintf(". %d insider trades totaling $%.0f", totalEvents(patterns), totalAmount(patterns))

	return reasoning
}

// riskFactors derives up to five risks from market context, recent
// insider selling, and pattern fragility. Every lookup is fail-soft.
func (g *Generator) riskFactors(ctx context.Context, ticker string, patterns []*contracts.Pattern) []string {
	var risks []string

	if g.profiler != nil {
		profile, err := g.profiler.Profile(ctx, ticker)
		if err != nil {
			g.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Debug("Company profile unavailable")
		} else {
			if profile.MarketCap > 0 && profile.MarketCap < 1e9 {
				risks = append(risks, "Small cap stock - higher volatility risk")
			} else if profile.MarketCap > 500e9 {
				risks = append(risks, "Large cap stock - limited upside potential")
			}

			switch profile.Sector {
			case "Technology", "Biotechnology", "Energy":
				risks = append(risks, fmt.Sprintf("High volatility %s sector", strings.ToLower(profile.Sector)))
			}

			if profile.Beta > 1.5 {
				risks = append(risks, fmt.Sprintf("High beta stock (%.1f) - market sensitive", profile.Beta))
			}
		}
	}

	sellCount, err := g.disclosureRepo.CountByTicker(ctx, ticker,
		[]contracts.TransactionType{contracts.TxSell},
		time.Now().AddDate(0, 0, -30), time.Now())
	if err != nil {
		g.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"error":  err.Error(),
		}).Debug("Recent sell count unavailable")
	} else if sellCount > 0 {
		risks = append(risks, fmt.Sprintf("Recent insider selling activity (%d sells)", sellCount))
	}

	volumeBased := false
	longSpan := false
	for _, pattern := range patterns {
		if pattern.Kind == contracts.PatternUnusualVolume {
			volumeBased = true
		}
		if pattern.TimeSpanDays > 90 {
			longSpan = true
		}
	}
	if volumeBased {
		risks = append(risks, "Based on unusual volume - may be temporary")
	}
	if longSpan {
		risks = append(risks, "Some patterns span long periods - momentum may be slowing")
	}

	if len(risks) > 5 {
		risks = risks[:5]
	}
	return risks
}

func patternKinds(patterns []*contracts.Pattern) []contracts.PatternKind {
	kinds := make([]contracts.PatternKind, 0, len(patterns))
	for _, pattern := range patterns {
		kinds = append(kinds, pattern.Kind)
	}
	return kinds
}

func totalEvents(patterns []*contracts.Pattern) int {
	total := 0
	for _, pattern := range patterns {
		total += len(pattern.EventIDs)
	}
	return total
}

func totalAmount(patterns []*contracts.Pattern) float64 {
	total := 0.0
	for _, pattern := range patterns {
		total += pattern.TotalAmountUSD
	}
	return total
}
