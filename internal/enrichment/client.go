// Package enrichment looks up company fundamentals used to annotate
// signals with risk factors.
package enrichment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/httputil"
	"github.com/wonny/insider-edge/pkg/logger"
	"github.com/wonny/insider-edge/pkg/redis"
)

// Client scrapes company profiles and caches them in Redis. It
// implements contracts.CompanyProfiler.
// ⭐ SSOT: company profile lookups go through this client only
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	cfg        config.EnrichmentConfig
	logger     *logger.Logger
}

// NewClient creates a profile client. The cache may be nil, in which
// case every lookup hits the source.
func NewClient(cfg config.EnrichmentConfig, cache *redis.Cache, log *logger.Logger) *Client {
	httpClient := httputil.New(log).WithRateLimit(cfg.RatePerSecond)
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		cfg:        cfg,
		logger:     log.WithComponent("enrichment"),
	}
}

// Profile fetches the company profile for a ticker, preferring the
// cache
func (c *Client) Profile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	cacheKey := fmt.Sprintf("profile:%s", ticker)

	if c.cache != nil {
		var cached contracts.CompanyProfile
		hit, err := c.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Profile cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	profile, err := c.fetch(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, profile, c.cfg.CacheTTL); err != nil {
			c.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Profile cache write failed")
		}
	}

	return profile, nil
}

func (c *Client) fetch(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	fullURL := fmt.Sprintf("%s/quote.ashx?t=%s", c.cfg.BaseURL, ticker)

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	profile, err := parseProfileHTML(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse profile for %s: %w", ticker, err)
	}
	profile.Ticker = ticker

	c.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"sector":     profile.Sector,
		"market_cap": profile.MarketCap,
	}).Debug("Fetched company profile")

	return profile, nil
}

// parseProfileHTML reads the snapshot table, which lays out label and
// value cells in alternating columns
func parseProfileHTML(html string) (*contracts.CompanyProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	cells := doc.Find("table.snapshot-table2 td")
	for i := 0; i+1 < cells.Length(); i += 2 {
		label := strings.TrimSpace(cells.Eq(i).Text())
		value := strings.TrimSpace(cells.Eq(i + 1).Text())
		if label != "" {
			fields[label] = value
		}
	}

	sector := strings.TrimSpace(doc.Find("a.tab-link:first-of-type").Text())
	if s, ok := fields["Sector"]; ok {
		sector = s
	}

	if len(fields) == 0 && sector == "" {
		return nil, fmt.Errorf("no snapshot table found")
	}

	return &contracts.CompanyProfile{
		Sector:    sector,
		MarketCap: parseAbbreviatedNumber(fields["Market Cap"]),
		Beta:      parseFloat(fields["Beta"]),
	}, nil
}

// parseAbbreviatedNumber converts values like "1.25B" or "840.5M" to
// dollars. Unknown or missing values map to 0.
func parseAbbreviatedNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "T"):
		multiplier = 1e12
		s = strings.TrimSuffix(s, "T")
	case strings.HasSuffix(s, "B"):
		multiplier = 1e9
		s = strings.TrimSuffix(s, "B")
	case strings.HasSuffix(s, "M"):
		multiplier = 1e6
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "K"):
		multiplier = 1e3
		s = strings.TrimSuffix(s, "K")
	}

	return parseFloat(s) * multiplier
}

func parseFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
