package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/insider-edge/internal/contracts"
)

// PriceRepository implements contracts.PriceProvider over the
// daily_prices table
// ⭐ SSOT: price history persistence happens here only
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetClose retrieves the close price for a ticker on a date
func (r *PriceRepository) GetClose(ctx context.Context, ticker string, date time.Time) (float64, error) {
	query := `
		SELECT close_price
		FROM daily_prices
		WHERE ticker = $1 AND trade_date = $2
	`

	var close float64
	err := r.pool.QueryRow(ctx, query, ticker, date).Scan(&close)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%s on %s: %w", ticker, date.Format("2006-01-02"), contracts.ErrNoPriceData)
		}
		return 0, err
	}
	return close, nil
}

// GetRange retrieves prices for a ticker within a date range, ordered
// by trade date ascending
func (r *PriceRepository) GetRange(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.PricePoint, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []*contracts.PricePoint
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, err
		}
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s in %s..%s: %w",
			ticker, from.Format("2006-01-02"), to.Format("2006-01-02"), contracts.ErrNoPriceData)
	}
	return points, nil
}

// GetLatest retrieves the most recent price for a ticker
func (r *PriceRepository) GetLatest(ctx context.Context, ticker string) (*contracts.PricePoint, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var p contracts.PricePoint
	err := r.pool.QueryRow(ctx, query, ticker).Scan(
		&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", ticker, contracts.ErrNoPriceData)
		}
		return nil, err
	}
	return &p, nil
}

// Save upserts a single price point
func (r *PriceRepository) Save(ctx context.Context, point *contracts.PricePoint) error {
	query := `
		INSERT INTO daily_prices (ticker, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	_, err := r.pool.Exec(ctx, query,
		point.Ticker, point.Date, point.Open, point.High, point.Low, point.Close, point.Volume,
	)
	return err
}

// SaveBatch upserts multiple price points
func (r *PriceRepository) SaveBatch(ctx context.Context, points []*contracts.PricePoint) error {
	for _, point := range points {
		if err := r.Save(ctx, point); err != nil {
			return fmt.Errorf("save price %s %s: %w", point.Ticker, point.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}
