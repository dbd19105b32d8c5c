package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// Source kinds.
const (
	SourceGoogleAds  = "googleads"
	SourceSynthetic  = "synthetic"
	SourcePostgres   = "postgres"
	SourceClickHouse = "clickhouse"
)

// Config holds all configuration for the KPI dashboard.
type Config struct {
	Server     ServerConfig
	Source     SourceConfig
	GoogleAds  GoogleAdsConfig
	Dashboard  DashboardConfig
	Database   DatabaseConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
	Metrics    MetricsConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

// SourceConfig picks where raw metric rows come from.
type SourceConfig struct {
	Kind string
	// Seed drives the synthetic generator.
	Seed int64
	// WarehouseSeedDays, when positive, fills an empty postgres or
	// clickhouse warehouse with that many days of synthetic data at start.
	WarehouseSeedDays int
}

// GoogleAdsConfig holds API credentials and client limits.
type GoogleAdsConfig struct {
	BaseURL         string
	APIVersion      string
	TokenURL        string
	CustomerID      string
	LoginCustomerID string
	DeveloperToken  string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	RequestsPerMin  int
	Timeout         time.Duration
	DetailsCacheTTL time.Duration
	DetailsCacheMax int
	// TokenCache stores access tokens in Redis so instances share them.
	TokenCache bool
}

// DashboardConfig tunes the refresh loop.
type DashboardConfig struct {
	DefaultTimeRange string
	// FetchDelay is the pause between consecutive external calls of a refresh.
	FetchDelay time.Duration
	// RefreshTimeout bounds a whole five-range refresh.
	RefreshTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type ClickHouseConfig struct {
	Addrs       []string
	Database    string
	User        string
	Password    string
	DialTimeout time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	SkipPaths []string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
	// Per client IP.
	IPRPS   float64
	IPBurst int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool
	Path      string
	Namespace string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("KPI_DASHBOARD_HTTP_ADDR", ":8080"),
			Env:             getEnv("KPI_DASHBOARD_ENV", "development"),
			ShutdownTimeout: getDurationEnv("KPI_DASHBOARD_SHUTDOWN_TIMEOUT", 30*time.Second),
			ReadTimeout:     getDurationEnv("KPI_DASHBOARD_READ_TIMEOUT", 15*time.Second),
			// A synchronous refresh makes ten sequential API calls.
			WriteTimeout: getDurationEnv("KPI_DASHBOARD_WRITE_TIMEOUT", 6*time.Minute),
		},
		Source: SourceConfig{
			Kind: strings.ToLower(getEnv("KPI_DASHBOARD_SOURCE", SourceSynthetic)),
			Seed: int64(getIntEnv("KPI_DASHBOARD_SYNTHETIC_SEED", 42)),

			WarehouseSeedDays: getIntEnv("KPI_DASHBOARD_WAREHOUSE_SEED_DAYS", 0),
		},
		GoogleAds: GoogleAdsConfig{
			BaseURL:         getEnv("KPI_DASHBOARD_GOOGLE_ADS_BASE_URL", "https://googleads.googleapis.com"),
			APIVersion:      getEnv("KPI_DASHBOARD_GOOGLE_ADS_API_VERSION", "v17"),
			TokenURL:        getEnv("KPI_DASHBOARD_GOOGLE_ADS_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			CustomerID:      strings.ReplaceAll(getEnv("KPI_DASHBOARD_GOOGLE_ADS_CUSTOMER_ID", ""), "-", ""),
			LoginCustomerID: strings.ReplaceAll(getEnv("KPI_DASHBOARD_GOOGLE_ADS_LOGIN_CUSTOMER_ID", ""), "-", ""),
			DeveloperToken:  getEnv("KPI_DASHBOARD_GOOGLE_ADS_DEVELOPER_TOKEN", ""),
			ClientID:        getEnv("KPI_DASHBOARD_GOOGLE_ADS_CLIENT_ID", ""),
			ClientSecret:    getEnv("KPI_DASHBOARD_GOOGLE_ADS_CLIENT_SECRET", ""),
			RefreshToken:    getEnv("KPI_DASHBOARD_GOOGLE_ADS_REFRESH_TOKEN", ""),
			RequestsPerMin:  getIntEnv("KPI_DASHBOARD_GOOGLE_ADS_REQUESTS_PER_MIN", 100),
			Timeout:         getDurationEnv("KPI_DASHBOARD_GOOGLE_ADS_TIMEOUT", 30*time.Second),
			DetailsCacheTTL: getDurationEnv("KPI_DASHBOARD_GOOGLE_ADS_DETAILS_TTL", 10*time.Minute),
			DetailsCacheMax: getIntEnv("KPI_DASHBOARD_GOOGLE_ADS_DETAILS_CACHE_SIZE", 256),
			TokenCache:      getBoolEnv("KPI_DASHBOARD_GOOGLE_ADS_TOKEN_CACHE", false),
		},
		Dashboard: DashboardConfig{
			DefaultTimeRange: getEnv("KPI_DASHBOARD_DEFAULT_TIME_RANGE", string(models.TimeRange7d)),
			FetchDelay:       getDurationEnv("KPI_DASHBOARD_FETCH_DELAY", 0),
			RefreshTimeout:   getDurationEnv("KPI_DASHBOARD_REFRESH_TIMEOUT", 5*time.Minute),
		},
		Database: DatabaseConfig{
			Host:     getEnv("KPI_DASHBOARD_DB_HOST", "localhost"),
			Port:     getIntEnv("KPI_DASHBOARD_DB_PORT", 5432),
			User:     getEnv("KPI_DASHBOARD_DB_USER", "kpi"),
			Password: getEnv("KPI_DASHBOARD_DB_PASSWORD", "kpi_secret"),
			DBName:   getEnv("KPI_DASHBOARD_DB_NAME", "ads_warehouse"),
			SSLMode:  getEnv("KPI_DASHBOARD_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("KPI_DASHBOARD_DB_MAX_CONNS", 10),
			MinConns: getIntEnv("KPI_DASHBOARD_DB_MIN_CONNS", 1),
		},
		ClickHouse: ClickHouseConfig{
			Addrs:       getSliceEnv("KPI_DASHBOARD_CH_ADDRS", []string{"localhost:9000"}),
			Database:    getEnv("KPI_DASHBOARD_CH_DATABASE", "ads"),
			User:        getEnv("KPI_DASHBOARD_CH_USER", "default"),
			Password:    getEnv("KPI_DASHBOARD_CH_PASSWORD", ""),
			DialTimeout: getDurationEnv("KPI_DASHBOARD_CH_DIAL_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:      getEnv("KPI_DASHBOARD_REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("KPI_DASHBOARD_REDIS_PASSWORD", ""),
			DB:        getIntEnv("KPI_DASHBOARD_REDIS_DB", 0),
			KeyPrefix: getEnv("KPI_DASHBOARD_REDIS_PREFIX", "kpi-dashboard:"),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("KPI_DASHBOARD_AUTH_ENABLED", false),
			MasterKey: getEnv("KPI_DASHBOARD_API_KEY", ""),
			SkipPaths: getSliceEnv("KPI_DASHBOARD_AUTH_SKIP_PATHS", []string{"/health", "/metrics"}),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("KPI_DASHBOARD_RATE_LIMIT_ENABLED", true),
			RPS:     getFloatEnv("KPI_DASHBOARD_RATE_LIMIT_RPS", 50),
			Burst:   getIntEnv("KPI_DASHBOARD_RATE_LIMIT_BURST", 20),
			IPRPS:   getFloatEnv("KPI_DASHBOARD_RATE_LIMIT_IP_RPS", 5),
			IPBurst: getIntEnv("KPI_DASHBOARD_RATE_LIMIT_IP_BURST", 10),
		},
		Log: LogConfig{
			Level:  getEnv("KPI_DASHBOARD_LOG_LEVEL", "info"),
			Format: getEnv("KPI_DASHBOARD_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled:   getBoolEnv("KPI_DASHBOARD_METRICS_ENABLED", true),
			Path:      getEnv("KPI_DASHBOARD_METRICS_PATH", "/metrics"),
			Namespace: getEnv("KPI_DASHBOARD_METRICS_NAMESPACE", "kpi_dashboard"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceGoogleAds:
		g := c.GoogleAds
		if g.CustomerID == "" || g.DeveloperToken == "" || g.ClientID == "" || g.ClientSecret == "" || g.RefreshToken == "" {
			return fmt.Errorf("google ads source requires KPI_DASHBOARD_GOOGLE_ADS_{CUSTOMER_ID,DEVELOPER_TOKEN,CLIENT_ID,CLIENT_SECRET,REFRESH_TOKEN}")
		}
		if g.RequestsPerMin <= 0 {
			return fmt.Errorf("KPI_DASHBOARD_GOOGLE_ADS_REQUESTS_PER_MIN must be positive")
		}
	case SourceSynthetic, SourcePostgres, SourceClickHouse:
	default:
		return fmt.Errorf("unknown KPI_DASHBOARD_SOURCE %q", c.Source.Kind)
	}
	if _, err := models.ParseTimeRange(c.Dashboard.DefaultTimeRange); err != nil {
		return fmt.Errorf("KPI_DASHBOARD_DEFAULT_TIME_RANGE: %w", err)
	}
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("KPI_DASHBOARD_API_KEY is required when auth is enabled")
	}
	return nil
}

// DefaultTimeRange returns the validated default time range.
func (c *Config) DefaultTimeRange() models.TimeRange {
	tr, err := models.ParseTimeRange(c.Dashboard.DefaultTimeRange)
	if err != nil {
		return models.TimeRange7d
	}
	return tr
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return def
}
