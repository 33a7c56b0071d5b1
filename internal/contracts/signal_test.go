package contracts

import (
	"testing"
	"time"
)

func TestClassifyStrength(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       SignalStrength
	}{
		{"below weak threshold", 0.1, StrengthWeak},
		{"at weak threshold", 0.30, StrengthWeak},
		{"just below moderate", 0.49, StrengthWeak},
		{"at moderate threshold", 0.50, StrengthModerate},
		{"between moderate and strong", 0.6, StrengthModerate},
		{"at strong threshold", 0.70, StrengthStrong},
		{"between strong and very strong", 0.8, StrengthStrong},
		{"at very strong threshold", 0.85, StrengthVeryStrong},
		{"maximum confidence", 1.0, StrengthVeryStrong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStrength(tt.confidence); got != tt.want {
				t.Errorf("ClassifyStrength(%v) = %v, want %v", tt.confidence, got, tt.want)
			}
		})
	}
}

func TestStrengthTargetAndStop(t *testing.T) {
	tests := []struct {
		strength SignalStrength
		target   float64
		stop     float64
	}{
		{StrengthWeak, 0.10, -0.08},
		{StrengthModerate, 0.15, -0.10},
		{StrengthStrong, 0.25, -0.12},
		{StrengthVeryStrong, 0.35, -0.15},
	}

	for _, tt := range tests {
		if got := tt.strength.TargetReturn(); got != tt.target {
			t.Errorf("%s TargetReturn() = %v, want %v", tt.strength, got, tt.target)
		}
		if got := tt.strength.StopLossReturn(); got != tt.stop {
			t.Errorf("%s StopLossReturn() = %v, want %v", tt.strength, got, tt.stop)
		}
	}
}

func TestSignalIsExpired(t *testing.T) {
	now := time.Now()

	active := &Signal{ExpiresAt: now.Add(24 * time.Hour)}
	if active.IsExpired(now) {
		t.Error("Expected signal with future expiry to be active")
	}

	expired := &Signal{ExpiresAt: now.Add(-time.Hour)}
	if !expired.IsExpired(now) {
		t.Error("Expected signal with past expiry to be expired")
	}

	noExpiry := &Signal{}
	if noExpiry.IsExpired(now) {
		t.Error("Expected signal without expiry to never expire")
	}
}

func TestSignalExpectedReturn(t *testing.T) {
	s := &Signal{CurrentPrice: 100, TargetPrice: 125}

	expected := 0.25
	got := s.ExpectedReturn()
	epsilon := 0.0001
	if diff := got - expected; diff > epsilon || diff < -epsilon {
		t.Errorf("ExpectedReturn() = %v, want %v", got, expected)
	}

	zeroPrice := &Signal{CurrentPrice: 0, TargetPrice: 125}
	if got := zeroPrice.ExpectedReturn(); got != 0 {
		t.Errorf("ExpectedReturn() with zero price = %v, want 0", got)
	}
}

func TestRiskProfileFor(t *testing.T) {
	tests := []struct {
		name            string
		minConfidence   float64
		maxPositionSize float64
		maxAllocation   float64
	}{
		{"conservative", 0.6, 0.05, 0.30},
		{"moderate", 0.4, 0.08, 0.50},
		{"aggressive", 0.3, 0.12, 0.70},
	}

	for _, tt := range tests {
		profile, err := RiskProfileFor(tt.name)
		if err != nil {
			t.Fatalf("RiskProfileFor(%s) failed: %v", tt.name, err)
		}
		if profile.MinConfidence != tt.minConfidence {
			t.Errorf("%s MinConfidence = %v, want %v", tt.name, profile.MinConfidence, tt.minConfidence)
		}
		if profile.MaxPositionSize != tt.maxPositionSize {
			t.Errorf("%s MaxPositionSize = %v, want %v", tt.name, profile.MaxPositionSize, tt.maxPositionSize)
		}
		if profile.MaxTotalAllocation != tt.maxAllocation {
			t.Errorf("%s MaxTotalAllocation = %v, want %v", tt.name, profile.MaxTotalAllocation, tt.maxAllocation)
		}
	}

	if _, err := RiskProfileFor("reckless"); err == nil {
		t.Error("Expected error for unknown risk profile")
	}
}

func TestRiskProfileAllows(t *testing.T) {
	conservative, _ := RiskProfileFor("conservative")

	strong := &Signal{Confidence: 0.75, Strength: StrengthStrong}
	if !conservative.Allows(strong) {
		t.Error("Expected conservative profile to allow strong signal at 0.75")
	}

	moderate := &Signal{Confidence: 0.65, Strength: StrengthModerate}
	if conservative.Allows(moderate) {
		t.Error("Expected conservative profile to reject moderate tier")
	}

	lowConfidence := &Signal{Confidence: 0.5, Strength: StrengthStrong}
	if conservative.Allows(lowConfidence) {
		t.Error("Expected conservative profile to reject confidence below 0.6")
	}
}
