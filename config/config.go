package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/spf13/viper"
)

// Config holds all configuration for the flytogether service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Amadeus   AmadeusConfig   `mapstructure:"amadeus"`
	Storage   StorageConfig   `mapstructure:"storage"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address     string   `mapstructure:"address"`
	JWTSecret   string   `mapstructure:"jwt_secret"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

func (s ServerConfig) Normalize() ServerConfig {
	if strings.TrimSpace(s.Address) == "" {
		s.Address = ":8080"
	}
	if len(s.CORSOrigins) == 0 {
		s.CORSOrigins = []string{"*"}
	}
	return s
}

// AmadeusConfig contains flight-offers API credentials and client tuning
type AmadeusConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	APISecret         string        `mapstructure:"api_secret"`
	CurrencyCode      string        `mapstructure:"currency_code"`
	MaxResults        int           `mapstructure:"max_results"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	Backoff           time.Duration `mapstructure:"backoff"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

func (a AmadeusConfig) Normalize() AmadeusConfig {
	a.CurrencyCode = strings.ToUpper(strings.TrimSpace(a.CurrencyCode))
	if a.CurrencyCode == "" {
		a.CurrencyCode = "USD"
	}
	if a.Burst <= 0 {
		a.Burst = 1
	}
	return a
}

func (a AmadeusConfig) Validate() error {
	if strings.TrimSpace(a.APIKey) == "" || strings.TrimSpace(a.APISecret) == "" {
		return fmt.Errorf("amadeus.api_key and amadeus.api_secret are required")
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("amadeus.max_retries cannot be negative")
	}
	if a.RequestsPerSecond < 0 {
		return fmt.Errorf("amadeus.requests_per_second cannot be negative")
	}
	return nil
}

// Storage drivers for sessions.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Driver     string         `mapstructure:"driver"`
	SessionTTL time.Duration  `mapstructure:"session_ttl"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

func (s StorageConfig) Validate() error {
	switch s.Driver {
	case DriverMemory:
	case DriverRedis:
		return s.Redis.Validate()
	case DriverPostgres:
		return s.Postgres.Validate()
	default:
		return fmt.Errorf("storage.driver must be one of memory, redis, postgres (got %q)", s.Driver)
	}
	return nil
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a Redis server is configured at all.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Host) != ""
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DSN returns the URL when set, else one assembled from the parts.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DBName, ssl)
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// Rate limiter backends.
const (
	LimiterMemory = "memory"
	LimiterRedis  = "redis"
)

// RateLimitConfig bounds requests per identity inside a sliding window
type RateLimitConfig struct {
	Backend     string        `mapstructure:"backend"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

func (r RateLimitConfig) Validate() error {
	if r.Backend != LimiterMemory && r.Backend != LimiterRedis {
		return fmt.Errorf("rate_limit.backend must be memory or redis (got %q)", r.Backend)
	}
	if r.MaxRequests <= 0 {
		return fmt.Errorf("rate_limit.max_requests must be > 0")
	}
	if r.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be > 0")
	}
	return nil
}

// RefreshConfig controls the background wishlist refresh
type RefreshConfig struct {
	Schedule    string        `mapstructure:"schedule"`
	Adults      int           `mapstructure:"adults"`
	TravelClass string        `mapstructure:"travel_class"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
}

func (r RefreshConfig) Validate() error {
	if strings.TrimSpace(r.Schedule) == "" {
		return nil
	}
	if _, err := cronexpr.Parse(r.Schedule); err != nil {
		return fmt.Errorf("refresh.schedule: %w", err)
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && !strings.HasPrefix(t.MetricsPath, "/") {
		return fmt.Errorf("telemetry.metrics_path must start with / when telemetry is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", 30*time.Second)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("amadeus.base_url", "https://test.api.amadeus.com")
	v.SetDefault("amadeus.api_key", "")
	v.SetDefault("amadeus.api_secret", "")
	v.SetDefault("amadeus.currency_code", "USD")
	v.SetDefault("amadeus.max_results", 50)
	v.SetDefault("amadeus.timeout", 15*time.Second)
	v.SetDefault("amadeus.max_retries", 2)
	v.SetDefault("amadeus.backoff", 300*time.Millisecond)
	v.SetDefault("amadeus.requests_per_second", 10.0)
	v.SetDefault("amadeus.burst", 10)

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.session_ttl", 0)
	v.SetDefault("storage.redis.host", "")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("storage.postgres.url", "")
	v.SetDefault("storage.postgres.host", "")
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.user", "")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.dbname", "")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.timeout", 5*time.Second)

	v.SetDefault("rate_limit.backend", LimiterMemory)
	v.SetDefault("rate_limit.max_requests", 3)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("refresh.schedule", "")
	v.SetDefault("refresh.adults", 1)
	v.SetDefault("refresh.travel_class", "")
	v.SetDefault("refresh.lock_ttl", 2*time.Minute)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.metrics_path", "/metrics")
}

// Load reads config from path (or the default search paths when empty) and
// FLYTOGETHER_* environment variables. A missing config file is fine when
// the environment carries everything.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("json")
	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("FLYTOGETHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server = cfg.Server.Normalize()
	cfg.Amadeus = cfg.Amadeus.Normalize()
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.RateLimit.Backend = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))

	for _, validate := range []func() error{
		cfg.Storage.Validate,
		cfg.RateLimit.Validate,
		cfg.Refresh.Validate,
		cfg.Telemetry.Validate,
	} {
		if err := validate(); err != nil {
			return nil, err
		}
	}
	if cfg.RateLimit.Backend == LimiterRedis {
		if err := cfg.Storage.Redis.Validate(); err != nil {
			return nil, fmt.Errorf("rate_limit.backend redis: %w", err)
		}
	}
	return &cfg, nil
}
