package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/insider-edge/internal/contracts"
)

// DisclosureRepository implements contracts.DisclosureRepository
// ⭐ SSOT: disclosure persistence happens here only
type DisclosureRepository struct {
	pool *pgxpool.Pool
}

// NewDisclosureRepository creates a new disclosure repository
func NewDisclosureRepository(pool *pgxpool.Pool) *DisclosureRepository {
	return &DisclosureRepository{pool: pool}
}

const disclosureColumns = `
	id, ticker, filer_id, filer_name, filer_category, party,
	transaction_type, amount_usd, quantity, price, trade_date, reported_date
`

// Query retrieves disclosure events matching the filter, ordered
// ascending on the filter's date basis
func (r *DisclosureRepository) Query(ctx context.Context, filter contracts.DisclosureFilter) ([]*contracts.DisclosureEvent, error) {
	query := `SELECT ` + disclosureColumns + ` FROM disclosures WHERE 1=1`
	var args []interface{}

	dateColumn := "reported_date"
	if filter.Dates == contracts.ByTradeDate {
		dateColumn = "trade_date"
	}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND %s >= $%d", dateColumn, len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND %s <= $%d", dateColumn, len(args))
	}
	if filter.Ticker != "" {
		args = append(args, filter.Ticker)
		query += fmt.Sprintf(" AND ticker = $%d", len(args))
	}
	if len(filter.Transactions) > 0 {
		types := make([]string, len(filter.Transactions))
		for i, t := range filter.Transactions {
			types[i] = string(t)
		}
		args = append(args, types)
		query += fmt.Sprintf(" AND transaction_type = ANY($%d)", len(args))
	}
	if filter.FilerCategory != "" {
		args = append(args, string(filter.FilerCategory))
		query += fmt.Sprintf(" AND filer_category = $%d", len(args))
	}
	if filter.RequireParty {
		query += " AND party <> ''"
	}
	if filter.RequireAmount {
		query += " AND amount_usd > 0"
	}
	query += fmt.Sprintf(" ORDER BY %s ASC, id ASC", dateColumn)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*contracts.DisclosureEvent
	for rows.Next() {
		var e contracts.DisclosureEvent
		if err := rows.Scan(
			&e.ID, &e.Ticker, &e.FilerID, &e.FilerName, &e.FilerCategory, &e.Party,
			&e.Transaction, &e.AmountUSD, &e.Quantity, &e.Price, &e.TradeDate, &e.ReportedDate,
		); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// CountByTicker counts events for a ticker and transaction types
// reported in a date range
func (r *DisclosureRepository) CountByTicker(ctx context.Context, ticker string, types []contracts.TransactionType, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM disclosures
		WHERE ticker = $1 AND transaction_type = ANY($2)
		  AND reported_date BETWEEN $3 AND $4
	`

	typeStrings := make([]string, len(types))
	for i, t := range types {
		typeStrings[i] = string(t)
	}

	var count int
	err := r.pool.QueryRow(ctx, query, ticker, typeStrings, from, to).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Save upserts a single disclosure event
func (r *DisclosureRepository) Save(ctx context.Context, event *contracts.DisclosureEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO disclosures (
			ticker, filer_id, filer_name, filer_category, party,
			transaction_type, amount_usd, quantity, price, trade_date, reported_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (ticker, filer_id, transaction_type, trade_date) DO UPDATE SET
			amount_usd = EXCLUDED.amount_usd,
			quantity = EXCLUDED.quantity,
			price = EXCLUDED.price,
			reported_date = EXCLUDED.reported_date
	`

	_, err := r.pool.Exec(ctx, query,
		event.Ticker, event.FilerID, event.FilerName, string(event.FilerCategory), string(event.Party),
		string(event.Transaction), event.AmountUSD, event.Quantity, event.Price,
		event.TradeDate, event.ReportedDate,
	)
	return err
}

// SaveBatch upserts multiple disclosure events
func (r *DisclosureRepository) SaveBatch(ctx context.Context, events []*contracts.DisclosureEvent) error {
	for _, event := range events {
		if err := r.Save(ctx, event); err != nil {
			return fmt.Errorf("save event %d: %w", event.ID, err)
		}
	}
	return nil
}
