package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insider-edge/internal/contracts"
)

func findPattern(patterns []*contracts.Pattern, kind contracts.PatternKind, ticker string) *contracts.Pattern {
	for _, p := range patterns {
		if p.Kind == kind && p.Ticker == ticker {
			return p
		}
	}
	return nil
}

func TestDetectConsensusBuying(t *testing.T) {
	// Four distinct filers buying NVDA within 10 days
	repo := &fakeDisclosureRepo{events: []*contracts.DisclosureEvent{
		buyEvent(1, 101, "NVDA", 100_000, 2, ""),
		buyEvent(2, 102, "NVDA", 250_000, 4, ""),
		buyEvent(3, 103, "NVDA", 400_000, 7, ""),
		buyEvent(4, 104, "NVDA", 500_000, 10, ""),
	}}

	detector := NewDetector(repo, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)

	pattern := findPattern(patterns, contracts.PatternConsensusBuying, "NVDA")
	require.NotNil(t, pattern, "expected consensus-buying pattern for NVDA")

	// min(0.8, 4/10) + min(0.2, 1.25M/10M)
	assert.InDelta(t, 0.4+0.125, pattern.Confidence, 0.0001)
	assert.GreaterOrEqual(t, pattern.Confidence, 0.4)
	assert.Len(t, pattern.FilerIDs, 4)
	assert.Equal(t, 1_250_000.0, pattern.TotalAmountUSD)

	detail, ok := pattern.Detail.(contracts.ConsensusBuyingDetail)
	require.True(t, ok)
	assert.Equal(t, 4, detail.FilerCount)
}

func TestConsensusRequiresThreeFilers(t *testing.T) {
	// Two filers are not a consensus, no matter how many trades
	repo := &fakeDisclosureRepo{events: []*contracts.DisclosureEvent{
		buyEvent(1, 101, "AAPL", 300_000, 2, ""),
		buyEvent(2, 101, "AAPL", 300_000, 5, ""),
		buyEvent(3, 102, "AAPL", 300_000, 8, ""),
	}}

	detector := NewDetector(repo, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)

	assert.Nil(t, findPattern(patterns, contracts.PatternConsensusBuying, "AAPL"))
}

func TestDetectInsiderMomentum(t *testing.T) {
	// Same filer buying three times over 20 days
	repo := &fakeDisclosureRepo{events: []*contracts.DisclosureEvent{
		buyEvent(1, 201, "TSLA", 1_000_000, 5, ""),
		buyEvent(2, 201, "TSLA", 1_500_000, 15, ""),
		buyEvent(3, 201, "TSLA", 2_000_000, 25, ""),
	}}

	detector := NewDetector(repo, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)

	pattern := findPattern(patterns, contracts.PatternInsiderMomentum, "TSLA")
	require.NotNil(t, pattern)

	// 3/10 + min(0.3, 4.5M/5M) + min(0.2, 20/90) = 0.3 + 0.3 + 0.2
	assert.InDelta(t, 0.8, pattern.Confidence, 0.0001)
	assert.Equal(t, []int64{201}, pattern.FilerIDs)
	assert.Equal(t, 20, pattern.TimeSpanDays)
}

func TestMomentumRequiresWeekSpan(t *testing.T) {
	// Three buys inside five days is a burst, not momentum
	repo := &fakeDisclosureRepo{events: []*contracts.DisclosureEvent{
		buyEvent(1, 201, "TSLA", 1_000_000, 1, ""),
		buyEvent(2, 201, "TSLA", 1_000_000, 3, ""),
		buyEvent(3, 201, "TSLA", 1_000_000, 5, ""),
	}}

	detector := NewDetector(repo, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)

	assert.Nil(t, findPattern(patterns, contracts.PatternInsiderMomentum, "TSLA"))
}

func TestDetectBipartisanInterest(t *testing.T) {
	repo := &fakeDisclosureRepo{events: []*contracts.DisclosureEvent{
		buyEvent(1, 301, "LMT", 2_000_000, 3, contracts.PartyRepublican),
		buyEvent(2, 302, "LMT", 1_500_000, 6, contracts.PartyDemocrat),
		buyEvent(3, 303, "LMT", 2_500_000, 9, contracts.PartyRepublican),
	}}

	detector := NewDetector(repo, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)

	pattern := findPattern(patterns, contracts.PatternBipartisanInterest, "LMT")
	require.NotNil(t, pattern)

	// min(0.6, 1/3) + min(0.3, 6M/5M) + 0.1
	assert.InDelta(t, 1.0/3.0+0.3+0.1, pattern.Confidence, 0.0001)

	detail, ok := pattern.Detail.(contracts.BipartisanInterestDetail)
	require.True(t, ok)
	assert.Equal(t, 2, detail.RepublicanTrades)
	assert.Equal(t, 1, detail.DemocratTrades)
}

func TestBipartisanRequiresBothParties(t *testing.T) {
	repo := &fakeDisclosureRepo{events: []*contracts.DisclosureEvent{
		buyEvent(1, 301, "LMT", 2_000_000, 3, contracts.PartyRepublican),
		buyEvent(2, 303, "LMT", 2_500_000, 9, contracts.PartyRepublican),
	}}

	detector := NewDetector(repo, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)

	assert.Nil(t, findPattern(patterns, contracts.PatternBipartisanInterest, "LMT"))
}

func TestDetectUnusualVolume(t *testing.T) {
	// Four recent trades against a three-trade history (baseline 1/period)
	events := []*contracts.DisclosureEvent{
		buyEvent(1, 401, "AMD", 200_000, 5, ""),
		buyEvent(2, 402, "AMD", 200_000, 10, ""),
		buyEvent(3, 403, "AMD", 200_000, 15, ""),
		buyEvent(4, 404, "AMD", 200_000, 20, ""),
		// Historical window (before the 90-day cutoff)
		buyEvent(5, 401, "AMD", 200_000, 100, ""),
		buyEvent(6, 402, "AMD", 200_000, 150, ""),
		buyEvent(7, 403, "AMD", 200_000, 200, ""),
	}

	detector := NewDetector(&fakeDisclosureRepo{events: events}, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)

	pattern := findPattern(patterns, contracts.PatternUnusualVolume, "AMD")
	require.NotNil(t, pattern)

	detail, ok := pattern.Detail.(contracts.UnusualVolumeDetail)
	require.True(t, ok)
	// 4 recent vs avg 1/period, $800k vs avg $200k/period
	assert.InDelta(t, 4.0, detail.CountRatio, 0.0001)
	assert.InDelta(t, 4.0, detail.AmountRatio, 0.0001)
	assert.True(t, pattern.Confidence <= 1.0)
}

func TestUnusualVolumeFlagsThinHistory(t *testing.T) {
	// History covers barely one prior period, not three
	events := []*contracts.DisclosureEvent{
		buyEvent(1, 401, "AMD", 500_000, 5, ""),
		buyEvent(2, 402, "AMD", 500_000, 10, ""),
		buyEvent(3, 403, "AMD", 500_000, 15, ""),
		buyEvent(4, 404, "AMD", 500_000, 20, ""),
		buyEvent(5, 401, "AMD", 100_000, 120, ""),
	}

	detector := NewDetector(&fakeDisclosureRepo{events: events}, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)

	pattern := findPattern(patterns, contracts.PatternUnusualVolume, "AMD")
	require.NotNil(t, pattern)

	detail := pattern.Detail.(contracts.UnusualVolumeDetail)
	assert.True(t, detail.ThinHistory, "expected thin-history flag with one prior period of data")
}

func TestDetectorFailureIsIsolated(t *testing.T) {
	// Bipartisan queries fail; the other detectors still report
	repo := &fakeDisclosureRepo{
		events: []*contracts.DisclosureEvent{
			buyEvent(1, 101, "NVDA", 100_000, 2, ""),
			buyEvent(2, 102, "NVDA", 250_000, 4, ""),
			buyEvent(3, 103, "NVDA", 400_000, 7, ""),
		},
		failFor: contracts.FilerPolitician,
	}

	detector := NewDetector(repo, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)

	assert.NotNil(t, findPattern(patterns, contracts.PatternConsensusBuying, "NVDA"))
	for _, p := range patterns {
		assert.NotEqual(t, contracts.PatternBipartisanInterest, p.Kind)
	}
}

func TestPatternsSortedByConfidence(t *testing.T) {
	repo := &fakeDisclosureRepo{events: []*contracts.DisclosureEvent{
		buyEvent(1, 101, "NVDA", 100_000, 2, ""),
		buyEvent(2, 102, "NVDA", 250_000, 4, ""),
		buyEvent(3, 103, "NVDA", 400_000, 7, ""),
		buyEvent(4, 201, "TSLA", 5_000_000, 5, ""),
		buyEvent(5, 201, "TSLA", 5_000_000, 15, ""),
		buyEvent(6, 201, "TSLA", 5_000_000, 25, ""),
	}}

	detector := NewDetector(repo, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)
	require.True(t, len(patterns) >= 2)

	for i := 1; i < len(patterns); i++ {
		assert.GreaterOrEqual(t, patterns[i-1].Confidence, patterns[i].Confidence)
	}
}

func TestDetectAllRejectsInvalidLookback(t *testing.T) {
	detector := NewDetector(&fakeDisclosureRepo{}, testLogger())
	_, err := detector.DetectAll(context.Background(), 0)
	assert.Error(t, err)
}

func TestAllPatternConfidencesInRange(t *testing.T) {
	// Oversized amounts must still cap confidence at 1.0
	repo := &fakeDisclosureRepo{events: []*contracts.DisclosureEvent{
		buyEvent(1, 301, "XOM", 50_000_000, 3, contracts.PartyRepublican),
		buyEvent(2, 302, "XOM", 50_000_000, 6, contracts.PartyDemocrat),
		buyEvent(3, 303, "XOM", 50_000_000, 9, contracts.PartyRepublican),
		buyEvent(4, 304, "XOM", 50_000_000, 12, contracts.PartyDemocrat),
		buyEvent(5, 305, "XOM", 50_000_000, 15, contracts.PartyRepublican),
		buyEvent(6, 306, "XOM", 50_000_000, 18, contracts.PartyDemocrat),
	}}

	detector := NewDetector(repo, testLogger())
	patterns, err := detector.DetectAll(context.Background(), 90)
	require.NoError(t, err)
	require.NotEmpty(t, patterns)

	for _, p := range patterns {
		assert.GreaterOrEqual(t, p.Confidence, 0.0)
		assert.LessOrEqual(t, p.Confidence, 1.0)
	}
}
