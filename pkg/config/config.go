package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: all environment variables are read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Enrichment (company profile lookups)
	Enrichment EnrichmentConfig

	// Core engines
	Detection DetectionConfig
	Signals   SignalConfig
	Backtest  BacktestConfig
	Strategy  StrategyConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// EnrichmentConfig holds company-profile lookup configuration
type EnrichmentConfig struct {
	BaseURL       string
	RatePerSecond float64
	CacheTTL      time.Duration
}

// DetectionConfig holds pattern detection parameters
type DetectionConfig struct {
	LookbackDays int // detection window; historical baseline covers 3x this
}

// SignalConfig holds signal generation parameters
type SignalConfig struct {
	MinConfidence    float64
	MaxSignalsPerRun int
	MaxPositionSize  float64 // fraction of portfolio
	MinPositionSize  float64
	ExpiryDays       int
	DedupWindow      time.Duration
}

// BacktestConfig holds backtesting parameters
type BacktestConfig struct {
	InitialCapital  float64
	Commission      float64 // e.g. 0.001 for 0.1%
	Slippage        float64 // e.g. 0.0005 for 0.05%
	RiskFreeRate    float64 // annual
	BenchmarkTicker string
}

// StrategyConfig holds strategy parameters
type StrategyConfig struct {
	ClusterWindowDays int
	MinClusterSize    int
	LagDays           []int
	HoldDays          []int
	ConvictionMinUSD  float64
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "insider_edge"),
			User:            getEnv("DB_USER", "insider_edge"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Enrichment
		Enrichment: EnrichmentConfig{
			BaseURL:       getEnv("ENRICHMENT_BASE_URL", "https://finance.yahoo.com"),
			RatePerSecond: getEnvAsFloat("ENRICHMENT_RATE_PER_SECOND", 2.0),
			CacheTTL:      getEnvAsDuration("ENRICHMENT_CACHE_TTL", "24h"),
		},

		// Detection
		Detection: DetectionConfig{
			LookbackDays: getEnvAsInt("DETECTION_LOOKBACK_DAYS", 90),
		},

		// Signals
		Signals: SignalConfig{
			MinConfidence:    getEnvAsFloat("SIGNAL_MIN_CONFIDENCE", 0.3),
			MaxSignalsPerRun: getEnvAsInt("SIGNAL_MAX_PER_RUN", 20),
			MaxPositionSize:  getEnvAsFloat("SIGNAL_MAX_POSITION_SIZE", 0.10),
			MinPositionSize:  getEnvAsFloat("SIGNAL_MIN_POSITION_SIZE", 0.02),
			ExpiryDays:       getEnvAsInt("SIGNAL_EXPIRY_DAYS", 7),
			DedupWindow:      getEnvAsDuration("SIGNAL_DEDUP_WINDOW", "24h"),
		},

		// Backtest
		Backtest: BacktestConfig{
			InitialCapital:  getEnvAsFloat("BACKTEST_INITIAL_CAPITAL", 100000),
			Commission:      getEnvAsFloat("BACKTEST_COMMISSION", 0.001),
			Slippage:        getEnvAsFloat("BACKTEST_SLIPPAGE", 0.0005),
			RiskFreeRate:    getEnvAsFloat("BACKTEST_RISK_FREE_RATE", 0.02),
			BenchmarkTicker: getEnv("BACKTEST_BENCHMARK", "SPY"),
		},

		// Strategy
		Strategy: StrategyConfig{
			ClusterWindowDays: getEnvAsInt("STRATEGY_CLUSTER_WINDOW_DAYS", 30),
			MinClusterSize:    getEnvAsInt("STRATEGY_MIN_CLUSTER_SIZE", 3),
			LagDays:           getEnvAsIntList("STRATEGY_LAG_DAYS", []int{1, 2, 5}),
			HoldDays:          getEnvAsIntList("STRATEGY_HOLD_DAYS", []int{30, 45, 60}),
			ConvictionMinUSD:  getEnvAsFloat("STRATEGY_CONVICTION_MIN_USD", 100000),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
// Configuration errors are fatal and surface before any I/O happens.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Detection.LookbackDays <= 0 {
		return fmt.Errorf("DETECTION_LOOKBACK_DAYS must be positive, got %d", c.Detection.LookbackDays)
	}

	if c.Signals.MinConfidence < 0 || c.Signals.MinConfidence > 1 {
		return fmt.Errorf("SIGNAL_MIN_CONFIDENCE must be in [0,1], got %v", c.Signals.MinConfidence)
	}

	if c.Signals.MinPositionSize <= 0 || c.Signals.MaxPositionSize <= 0 ||
		c.Signals.MinPositionSize > c.Signals.MaxPositionSize {
		return fmt.Errorf("position size bounds invalid: min=%v max=%v",
			c.Signals.MinPositionSize, c.Signals.MaxPositionSize)
	}

	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("BACKTEST_INITIAL_CAPITAL must be positive, got %v", c.Backtest.InitialCapital)
	}

	if c.Backtest.Commission < 0 || c.Backtest.Slippage < 0 {
		return fmt.Errorf("commission and slippage must be non-negative")
	}

	if c.Strategy.ClusterWindowDays <= 0 || c.Strategy.MinClusterSize <= 0 {
		return fmt.Errorf("cluster parameters invalid: window=%d min_size=%d",
			c.Strategy.ClusterWindowDays, c.Strategy.MinClusterSize)
	}

	if len(c.Strategy.LagDays) == 0 || len(c.Strategy.HoldDays) == 0 {
		return fmt.Errorf("STRATEGY_LAG_DAYS and STRATEGY_HOLD_DAYS must not be empty")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsIntList parses a comma-separated list of ints, e.g. "1,2,5"
func getEnvAsIntList(key string, defaultValue []int) []int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		values = append(values, v)
	}

	return values
}
