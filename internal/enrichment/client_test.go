package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

const sampleProfileHTML = `
<html><body>
<a class="tab-link">Technology</a>
<table class="snapshot-table2">
<tr><td>Market Cap</td><td>1.25B</td><td>Beta</td><td>1.85</td></tr>
<tr><td>Sector</td><td>Technology</td><td>P/E</td><td>22.4</td></tr>
</table>
</body></html>`

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error"})
}

func TestParseProfileHTML(t *testing.T) {
	profile, err := parseProfileHTML(sampleProfileHTML)

	require.NoError(t, err)
	assert.Equal(t, "Technology", profile.Sector)
	assert.InDelta(t, 1.25e9, profile.MarketCap, 1)
	assert.InDelta(t, 1.85, profile.Beta, 1e-9)
}

func TestParseProfileHTMLEmptyPage(t *testing.T) {
	_, err := parseProfileHTML("<html><body></body></html>")
	assert.Error(t, err)
}

func TestParseAbbreviatedNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"2.5T", 2.5e12},
		{"1.25B", 1.25e9},
		{"840.5M", 840.5e6},
		{"900K", 900e3},
		{"1234", 1234},
		{"-", 0},
		{"", 0},
		{"N/A", 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseAbbreviatedNumber(tt.input), 1, tt.input)
	}
}

func TestProfileFetchesFromSource(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.String()
		w.Write([]byte(sampleProfileHTML))
	}))
	defer server.Close()

	client := NewClient(config.EnrichmentConfig{
		BaseURL:       server.URL,
		RatePerSecond: 100,
		CacheTTL:      time.Hour,
	}, nil, testLogger())

	profile, err := client.Profile(context.Background(), "NVDA")

	require.NoError(t, err)
	assert.Equal(t, "NVDA", profile.Ticker)
	assert.Equal(t, "Technology", profile.Sector)
	assert.Contains(t, requestedPath, "t=NVDA")
}

func TestProfileErrorOnServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(config.EnrichmentConfig{
		BaseURL:       server.URL,
		RatePerSecond: 100,
	}, nil, testLogger())

	_, err := client.Profile(context.Background(), "GHOST")
	assert.Error(t, err)
}
