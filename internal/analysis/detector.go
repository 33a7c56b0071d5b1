package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/logger"
)

// Detector scans disclosure events over a lookback window and emits
// scored patterns
// ⭐ SSOT: pattern detection runs here only
type Detector struct {
	disclosureRepo contracts.DisclosureRepository
	logger         *logger.Logger
}

// NewDetector creates a new pattern detector
func NewDetector(disclosureRepo contracts.DisclosureRepository, log *logger.Logger) *Detector {
	return &Detector{
		disclosureRepo: disclosureRepo,
		logger:         log.WithComponent("detector"),
	}
}

type detectorFunc struct {
	kind contracts.PatternKind
	run  func(ctx context.Context, days int) ([]*contracts.Pattern, error)
}

// DetectAll runs every detector over the lookback window. A failing
// detector is logged and contributes an empty result; the others
// continue. Output is sorted descending by confidence.
func (d *Detector) DetectAll(ctx context.Context, days int) ([]*contracts.Pattern, error) {
	if days <= 0 {
		return nil, fmt.Errorf("invalid lookback days: %d", days)
	}

	detectors := []detectorFunc{
		{contracts.PatternUnusualVolume, d.detectUnusualVolume},
		{contracts.PatternConsensusBuying, d.detectConsensusBuying},
		{contracts.PatternInsiderMomentum, d.detectInsiderMomentum},
		{contracts.PatternBipartisanInterest, d.detectBipartisanInterest},
	}

	var patterns []*contracts.Pattern
	for _, detector := range detectors {
		detected, err := detector.run(ctx, days)
		if err != nil {
			d.logger.WithFields(map[string]interface{}{
				"kind":  string(detector.kind),
				"error": err.Error(),
			}).Warn("Pattern detector failed")
			continue
		}
		patterns = append(patterns, detected...)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Confidence != patterns[j].Confidence {
			return patterns[i].Confidence > patterns[j].Confidence
		}
		return patterns[i].Ticker < patterns[j].Ticker
	})

	d.logger.WithFields(map[string]interface{}{
		"days":     days,
		"patterns": len(patterns),
	}).Info("Pattern detection completed")

	return patterns, nil
}

// detectUnusualVolume flags tickers whose disclosure count or dollar
// volume in the window is at least twice the per-period average over
// the preceding three windows.
func (d *Detector) detectUnusualVolume(ctx context.Context, days int) ([]*contracts.Pattern, error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, -days)

	recent, err := d.disclosureRepo.Query(ctx, contracts.DisclosureFilter{
		From:          cutoff,
		To:            now,
		RequireAmount: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}

	historicalCutoff := cutoff.AddDate(0, 0, -days*3)
	historical, err := d.disclosureRepo.Query(ctx, contracts.DisclosureFilter{
		From:          historicalCutoff,
		To:            cutoff,
		RequireAmount: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query historical events: %w", err)
	}

	recentByTicker := groupByTicker(recent)

	type histStat struct {
		count    int
		amount   float64
		earliest time.Time
	}
	histByTicker := make(map[string]*histStat)
	for _, event := range historical {
		stat, ok := histByTicker[event.Ticker]
		if !ok {
			stat = &histStat{earliest: event.ReportedDate}
			histByTicker[event.Ticker] = stat
		}
		stat.count++
		stat.amount += event.AmountUSD
		if event.ReportedDate.Before(stat.earliest) {
			stat.earliest = event.ReportedDate
		}
	}

	var patterns []*contracts.Pattern
	for ticker, events := range recentByTicker {
		if len(events) < 2 {
			continue
		}

		currentCount := len(events)
		currentAmount := sumAmounts(events)

		// Baseline is the per-period average over three prior windows.
		// With no history at all, the ticker itself is new activity;
		// count baseline falls back to 1 and amount baseline to the
		// current amount.
		hist := histByTicker[ticker]
		avgCount := 1.0
		avgAmount := currentAmount
		thinHistory := true
		if hist != nil {
			if hist.count > 0 {
				avgCount = float64(hist.count) / 3.0
			}
			if hist.amount > 0 {
				avgAmount = hist.amount / 3.0
			}
			// Less than three full prior periods of data makes the
			// divide-by-3 baseline understate normal activity.
			thinHistory = hist.earliest.After(historicalCutoff.AddDate(0, 0, days))
		}

		countRatio := float64(currentCount) / avgCount
		amountRatio := 1.0
		if avgAmount > 0 {
			amountRatio = currentAmount / avgAmount
		}

		if countRatio < 2.0 && amountRatio < 2.0 {
			continue
		}

		filers := uniqueFilers(events)
		confidence := minFloat(0.9, (countRatio+amountRatio)/6.0)
		confidence += minFloat(0.1, float64(len(filers))/10.0)

		patterns = append(patterns, &contracts.Pattern{
			Kind:           contracts.PatternUnusualVolume,
			Ticker:         ticker,
			Confidence:     minFloat(1.0, confidence),
			EventIDs:       eventIDs(events),
			FilerIDs:       filers,
			TimeSpanDays:   timeSpanDays(events),
			TotalAmountUSD: currentAmount,
			Detail: contracts.UnusualVolumeDetail{
				CountRatio:  countRatio,
				AmountRatio: amountRatio,
				TradeCount:  currentCount,
				FilerCount:  len(filers),
				ThinHistory: thinHistory,
			},
		})
	}

	return patterns, nil
}

// detectConsensusBuying flags tickers bought by at least three
// distinct filers within the window.
func (d *Detector) detectConsensusBuying(ctx context.Context, days int) ([]*contracts.Pattern, error) {
	now := time.Now()

	buys, err := d.disclosureRepo.Query(ctx, contracts.DisclosureFilter{
		From:         now.AddDate(0, 0, -days),
		To:           now,
		Transactions: contracts.BuyTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query buy events: %w", err)
	}

	var patterns []*contracts.Pattern
	for ticker, events := range groupByTicker(buys) {
		filers := uniqueFilers(events)
		if len(filers) < 3 {
			continue
		}

		totalAmount := sumAmounts(events)
		confidence := minFloat(0.8, float64(len(filers))/10.0)
		confidence += minFloat(0.2, totalAmount/10_000_000)

		patterns = append(patterns, &contracts.Pattern{
			Kind:           contracts.PatternConsensusBuying,
			Ticker:         ticker,
			Confidence:     minFloat(1.0, confidence),
			EventIDs:       eventIDs(events),
			FilerIDs:       filers,
			TimeSpanDays:   timeSpanDays(events),
			TotalAmountUSD: totalAmount,
			Detail: contracts.ConsensusBuyingDetail{
				FilerCount:        len(filers),
				TradeCount:        len(events),
				AvgAmountPerFiler: totalAmount / float64(len(filers)),
			},
		})
	}

	return patterns, nil
}

// detectInsiderMomentum flags repeated buying of one ticker by one
// filer, at least three trades spanning a week or more.
func (d *Detector) detectInsiderMomentum(ctx context.Context, days int) ([]*contracts.Pattern, error) {
	now := time.Now()

	buys, err := d.disclosureRepo.Query(ctx, contracts.DisclosureFilter{
		From:         now.AddDate(0, 0, -days),
		To:           now,
		Transactions: contracts.BuyTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query buy events: %w", err)
	}

	type filerTicker struct {
		filerID int64
		ticker  string
	}
	grouped := make(map[filerTicker][]*contracts.DisclosureEvent)
	for _, event := range buys {
		key := filerTicker{event.FilerID, event.Ticker}
		grouped[key] = append(grouped[key], event)
	}

	var patterns []*contracts.Pattern
	for key, events := range grouped {
		if len(events) < 3 {
			continue
		}

		span := timeSpanDays(events)
		if span < 7 {
			continue
		}

		totalAmount := sumAmounts(events)
		confidence := float64(len(events)) / 10.0
		confidence += minFloat(0.3, totalAmount/5_000_000)
		confidence += minFloat(0.2, float64(span)/90.0)

		patterns = append(patterns, &contracts.Pattern{
			Kind:           contracts.PatternInsiderMomentum,
			Ticker:         key.ticker,
			Confidence:     minFloat(1.0, confidence),
			EventIDs:       eventIDs(events),
			FilerIDs:       []int64{key.filerID},
			TimeSpanDays:   span,
			TotalAmountUSD: totalAmount,
			Detail: contracts.InsiderMomentumDetail{
				FilerName:          events[0].FilerName,
				TradeCount:         len(events),
				AvgTradeSize:       totalAmount / float64(len(events)),
				TradeFrequencyDays: float64(span) / float64(len(events)),
			},
		})
	}

	return patterns, nil
}

// detectBipartisanInterest flags tickers bought by politicians of
// both major parties within the window.
func (d *Detector) detectBipartisanInterest(ctx context.Context, days int) ([]*contracts.Pattern, error) {
	now := time.Now()

	buys, err := d.disclosureRepo.Query(ctx, contracts.DisclosureFilter{
		From:          now.AddDate(0, 0, -days),
		To:            now,
		Transactions:  contracts.BuyTypes,
		FilerCategory: contracts.FilerPolitician,
		RequireParty:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query politician buys: %w", err)
	}

	byTickerParty := make(map[string]map[contracts.Party][]*contracts.DisclosureEvent)
	for _, event := range buys {
		if byTickerParty[event.Ticker] == nil {
			byTickerParty[event.Ticker] = make(map[contracts.Party][]*contracts.DisclosureEvent)
		}
		byTickerParty[event.Ticker][event.Party] = append(byTickerParty[event.Ticker][event.Party], event)
	}

	var patterns []*contracts.Pattern
	for ticker, partyEvents := range byTickerParty {
		republican := partyEvents[contracts.PartyRepublican]
		democrat := partyEvents[contracts.PartyDemocrat]
		if len(republican) == 0 || len(democrat) == 0 {
			continue
		}

		var all []*contracts.DisclosureEvent
		otherParty := 0
		for party, events := range partyEvents {
			all = append(all, events...)
			if party != contracts.PartyRepublican && party != contracts.PartyDemocrat {
				otherParty += len(events)
			}
		}

		totalAmount := sumAmounts(all)
		balance := len(republican)
		if len(democrat) < balance {
			balance = len(democrat)
		}

		confidence := minFloat(0.6, float64(balance)/3.0)
		confidence += minFloat(0.3, totalAmount/5_000_000)
		confidence += 0.1 // base for cross-party agreement

		patterns = append(patterns, &contracts.Pattern{
			Kind:           contracts.PatternBipartisanInterest,
			Ticker:         ticker,
			Confidence:     minFloat(1.0, confidence),
			EventIDs:       eventIDs(all),
			FilerIDs:       uniqueFilers(all),
			TimeSpanDays:   timeSpanDays(all),
			TotalAmountUSD: totalAmount,
			Detail: contracts.BipartisanInterestDetail{
				RepublicanTrades: len(republican),
				DemocratTrades:   len(democrat),
				OtherPartyTrades: otherParty,
				PartyCount:       len(partyEvents),
			},
		})
	}

	return patterns, nil
}

func groupByTicker(events []*contracts.DisclosureEvent) map[string][]*contracts.DisclosureEvent {
	grouped := make(map[string][]*contracts.DisclosureEvent)
	for _, event := range events {
		grouped[event.Ticker] = append(grouped[event.Ticker], event)
	}
	return grouped
}

func uniqueFilers(events []*contracts.DisclosureEvent) []int64 {
	seen := make(map[int64]bool)
	var filers []int64
	for _, event := range events {
		if !seen[event.FilerID] {
			seen[event.FilerID] = true
			filers = append(filers, event.FilerID)
		}
	}
	sort.Slice(filers, func(i, j int) bool { return filers[i] < filers[j] })
	return filers
}

func eventIDs(events []*contracts.DisclosureEvent) []int64 {
	ids := make([]int64, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sumAmounts(events []*contracts.DisclosureEvent) float64 {
	total := 0.0
	for _, event := range events {
		total += event.AmountUSD
	}
	return total
}

func timeSpanDays(events []*contracts.DisclosureEvent) int {
	var earliest, latest time.Time
	for _, event := range events {
		if event.ReportedDate.IsZero() {
			continue
		}
		if earliest.IsZero() || event.ReportedDate.Before(earliest) {
			earliest = event.ReportedDate
		}
		if latest.IsZero() || event.ReportedDate.After(latest) {
			latest = event.ReportedDate
		}
	}
	if earliest.IsZero() {
		return 0
	}
	return int(latest.Sub(earliest).Hours() / 24)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
