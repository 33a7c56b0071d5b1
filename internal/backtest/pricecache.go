package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/logger"
)

// priceCache memoizes range queries against a PriceProvider for the
// duration of one backtest run. Keys combine ticker and date range so
// strategies replayed over the same window share loads.
type priceCache struct {
	provider contracts.PriceProvider
	logger   *logger.Logger
	series   map[string]map[string]float64
}

func newPriceCache(provider contracts.PriceProvider, log *logger.Logger) *priceCache {
	return &priceCache{
		provider: provider,
		logger:   log,
		series:   make(map[string]map[string]float64),
	}
}

// Range returns a date-keyed close price map for the ticker. A ticker
// with no price data is cached as an empty map so repeated lookups do
// not hit the provider again.
func (c *priceCache) Range(ctx context.Context, ticker string, from, to time.Time) (map[string]float64, error) {
	key := fmt.Sprintf("%s|%s|%s", ticker, dateKey(from), dateKey(to))
	if cached, ok := c.series[key]; ok {
		return cached, nil
	}

	points, err := c.provider.GetRange(ctx, ticker, from, to)
	if err != nil {
		if errors.Is(err, contracts.ErrNoPriceData) {
			c.series[key] = map[string]float64{}
			return c.series[key], nil
		}
		return nil, fmt.Errorf("load prices for %s: %w", ticker, err)
	}

	byDate := make(map[string]float64, len(points))
	for _, p := range points {
		byDate[dateKey(p.Date)] = p.Close
	}
	c.series[key] = byDate

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"points": len(points),
	}).Debug("Cached price range")

	return byDate, nil
}
