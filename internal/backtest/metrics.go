package backtest

import (
	"math"
	"sort"

	"github.com/wonny/insider-edge/internal/contracts"
)

const tradingDaysPerYear = 252

// PerformanceCalculator derives risk and return metrics from a daily
// portfolio value series.
//
// ⭐ SSOT: all performance formulas live here, shared by the replay
// engine and the alpha backtests
type PerformanceCalculator struct {
	initialCapital float64
	values         []contracts.DailyValue
	riskFreeRate   float64
}

// NewPerformanceCalculator wraps a daily value series. The series is
// assumed sorted by date.
func NewPerformanceCalculator(initialCapital float64, values []contracts.DailyValue, riskFreeRate float64) *PerformanceCalculator {
	return &PerformanceCalculator{initialCapital: initialCapital, values: values, riskFreeRate: riskFreeRate}
}

// TotalReturn is (final - initial capital) / initial capital
func (c *PerformanceCalculator) TotalReturn() float64 {
	if len(c.values) == 0 || c.initialCapital <= 0 {
		return 0
	}
	last := c.values[len(c.values)-1].Value
	return (last - c.initialCapital) / c.initialCapital
}

// AnnualizedReturn geometrically scales the total return to one year
// using the elapsed calendar days
func (c *PerformanceCalculator) AnnualizedReturn() float64 {
	if len(c.values) < 2 {
		return 0
	}
	days := c.values[len(c.values)-1].Date.Sub(c.values[0].Date).Hours() / 24
	if days <= 0 {
		return 0
	}
	years := days / 365.25
	return math.Pow(1+c.TotalReturn(), 1/years) - 1
}

// Volatility is the annualized sample standard deviation of daily
// percentage returns
func (c *PerformanceCalculator) Volatility() float64 {
	returns := c.dailyReturns()
	if len(returns) < 2 {
		return 0
	}
	return sampleStd(returns) * math.Sqrt(tradingDaysPerYear)
}

// SharpeRatio is the annualized excess return over volatility
func (c *PerformanceCalculator) SharpeRatio() float64 {
	vol := c.Volatility()
	if vol == 0 {
		return 0
	}
	return (c.AnnualizedReturn() - c.riskFreeRate) / vol
}

// SortinoRatio penalizes only downside deviation. Returns +Inf when
// the series has no negative daily returns.
func (c *PerformanceCalculator) SortinoRatio() float64 {
	returns := c.dailyReturns()
	if len(returns) < 2 {
		return 0
	}

	var negatives []float64
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) == 0 {
		return math.Inf(1)
	}

	downside := sampleStd(negatives) * math.Sqrt(tradingDaysPerYear)
	if downside == 0 {
		return 0
	}
	return (c.AnnualizedReturn() - c.riskFreeRate) / downside
}

// MaxDrawdown is the largest peak-to-trough decline, expressed as a
// negative fraction. A monotonically rising series yields 0.
func (c *PerformanceCalculator) MaxDrawdown() float64 {
	if len(c.values) < 2 {
		return 0
	}

	peak := c.values[0].Value
	maxDD := 0.0
	for _, dv := range c.values {
		if dv.Value > peak {
			peak = dv.Value
		}
		if peak > 0 {
			dd := (dv.Value - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// CalmarRatio is annualized return over the drawdown magnitude
func (c *PerformanceCalculator) CalmarRatio() float64 {
	dd := math.Abs(c.MaxDrawdown())
	if dd == 0 {
		return 0
	}
	return c.AnnualizedReturn() / dd
}

// ValueAtRisk returns the daily return at the given lower quantile,
// e.g. 0.05 for the 95% VaR
func (c *PerformanceCalculator) ValueAtRisk(quantile float64) float64 {
	returns := c.dailyReturns()
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	return interpolatedQuantile(sorted, quantile)
}

// ExpectedShortfall is the mean of daily returns at or below the VaR
// threshold. Falls back to the VaR itself when no return qualifies.
func (c *PerformanceCalculator) ExpectedShortfall(quantile float64) float64 {
	returns := c.dailyReturns()
	if len(returns) == 0 {
		return 0
	}

	threshold := c.ValueAtRisk(quantile)
	var sum float64
	var n int
	for _, r := range returns {
		if r <= threshold {
			sum += r
			n++
		}
	}
	if n == 0 {
		return threshold
	}
	return sum / float64(n)
}

func (c *PerformanceCalculator) dailyReturns() []float64 {
	if len(c.values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(c.values)-1)
	for i := 1; i < len(c.values); i++ {
		prev := c.values[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, (c.values[i].Value-prev)/prev)
	}
	return returns
}

// TradeStats summarizes closed positions
type TradeStats struct {
	TotalTrades  int
	Winning      int
	Losing       int
	WinRate      float64
	AvgWin       float64
	AvgLoss      float64
	ProfitFactor float64
}

// CalculateTradeStats computes win/loss statistics from closed
// positions. Flat trades count as neither winning nor losing.
// ProfitFactor is +Inf when there are no losing trades.
func CalculateTradeStats(closed []*Position) TradeStats {
	stats := TradeStats{TotalTrades: len(closed)}
	if len(closed) == 0 {
		return stats
	}

	var winSum, lossSum, grossProfit, grossLoss float64
	for _, p := range closed {
		switch {
		case p.ReturnDollars > 0:
			stats.Winning++
			winSum += p.ReturnPct
			grossProfit += p.ReturnDollars
		case p.ReturnDollars < 0:
			stats.Losing++
			lossSum += p.ReturnPct
			grossLoss += p.ReturnDollars
		}
	}

	stats.WinRate = float64(stats.Winning) / float64(stats.TotalTrades)
	if stats.Winning > 0 {
		stats.AvgWin = winSum / float64(stats.Winning)
	}
	if stats.Losing > 0 {
		stats.AvgLoss = lossSum / float64(stats.Losing)
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			stats.ProfitFactor = math.Inf(1)
		}
	} else {
		stats.ProfitFactor = grossProfit / math.Abs(grossLoss)
	}

	return stats
}

func sampleStd(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// interpolatedQuantile takes a sorted slice and a quantile in [0,1],
// interpolating linearly between the bracketing observations
func interpolatedQuantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
