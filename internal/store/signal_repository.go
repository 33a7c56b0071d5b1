package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/insider-edge/internal/contracts"
)

// SignalRepository implements contracts.SignalRepository
// ⭐ SSOT: signal persistence happens here only
type SignalRepository struct {
	pool *pgxpool.Pool
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

const signalColumns = `
	ticker, action, strength, confidence,
	current_price, target_price, stop_loss, time_horizon_days,
	position_size_pct, reasoning, supporting_patterns, risk_factors,
	generated_at, expires_at, insider_trade_count, total_insider_usd
`

// SaveBatch inserts signals for a strategy inside one transaction,
// skipping any ticker already signaled under that strategy within the
// dedup window. Returns the number actually inserted.
func (r *SignalRepository) SaveBatch(ctx context.Context, strategyName string, signals []*contracts.Signal, dedupWindow time.Duration) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	cutoff := time.Now().Add(-dedupWindow)
	inserted := 0

	for _, signal := range signals {
		var exists bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM signals
				WHERE strategy_name = $1 AND ticker = $2 AND generated_at > $3
			)
		`, strategyName, signal.Ticker, cutoff).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("dedup check %s: %w", signal.Ticker, err)
		}
		if exists {
			continue
		}

		patterns := make([]string, len(signal.SupportingPatterns))
		for i, p := range signal.SupportingPatterns {
			patterns[i] = string(p)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO signals (strategy_name, `+signalColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`,
			strategyName,
			signal.Ticker, string(signal.Action), string(signal.Strength), signal.Confidence,
			signal.CurrentPrice, signal.TargetPrice, signal.StopLoss, signal.TimeHorizonDays,
			signal.PositionSizePct, signal.Reasoning, patterns, signal.RiskFactors,
			signal.GeneratedAt, signal.ExpiresAt, signal.InsiderTradeCount, signal.TotalInsiderUSD,
		)
		if err != nil {
			return 0, fmt.Errorf("insert signal %s: %w", signal.Ticker, err)
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// GetActive retrieves unexpired signals at or above the confidence
// floor, strongest first
func (r *SignalRepository) GetActive(ctx context.Context, minConfidence float64, limit int) ([]*contracts.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE expires_at > NOW() AND confidence >= $1
		ORDER BY confidence DESC, ticker ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, minConfidence, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetByTicker retrieves the most recent signals for a ticker
func (r *SignalRepository) GetByTicker(ctx context.Context, ticker string, limit int) ([]*contracts.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE ticker = $1
		ORDER BY generated_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSignals(rows)
}

type signalRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanSignals(rows signalRows) ([]*contracts.Signal, error) {
	var signals []*contracts.Signal
	for rows.Next() {
		var s contracts.Signal
		var patterns []string
		if err := rows.Scan(
			&s.Ticker, &s.Action, &s.Strength, &s.Confidence,
			&s.CurrentPrice, &s.TargetPrice, &s.StopLoss, &s.TimeHorizonDays,
			&s.PositionSizePct, &s.Reasoning, &patterns, &s.RiskFactors,
			&s.GeneratedAt, &s.ExpiresAt, &s.InsiderTradeCount, &s.TotalInsiderUSD,
		); err != nil {
			return nil, err
		}
		s.SupportingPatterns = make([]contracts.PatternKind, len(patterns))
		for i, p := range patterns {
			s.SupportingPatterns[i] = contracts.PatternKind(p)
		}
		signals = append(signals, &s)
	}
	return signals, rows.Err()
}
