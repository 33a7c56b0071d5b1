package contracts

import "time"

// DailyValue is one point in a portfolio's daily value series
type DailyValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// BacktestResult holds the outcome of replaying one strategy's signals
// against historical prices
// ⭐ SSOT: backtest output shape shared by engine, API, and CLI
type BacktestResult struct {
	StrategyName string    `json:"strategy_name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`

	// Trading metrics
	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`

	// Performance metrics
	InitialCapital    float64 `json:"initial_capital"`
	FinalValue        float64 `json:"final_value"`
	TotalReturn       float64 `json:"total_return"`
	AnnualizedReturn  float64 `json:"annualized_return"`
	Volatility        float64 `json:"volatility"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	SortinoRatio      float64 `json:"sortino_ratio"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	WinRate           float64 `json:"win_rate"`
	AvgWin            float64 `json:"avg_win"`
	AvgLoss           float64 `json:"avg_loss"`
	ProfitFactor      float64 `json:"profit_factor"`
	CalmarRatio       float64 `json:"calmar_ratio"`
	ValueAtRisk95     float64 `json:"value_at_risk_95"`
	ExpectedShortfall float64 `json:"expected_shortfall"`

	// Daily portfolio value series
	DailyValues []DailyValue `json:"daily_values,omitempty"`

	// Error marks a run that produced no usable result (e.g. no price
	// data for any signal). Partial results are returned, not thrown.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the run carries an error marker
func (r *BacktestResult) Failed() bool {
	return r.Error != ""
}

// Days returns the calendar length of the backtest range
func (r *BacktestResult) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours() / 24)
}
