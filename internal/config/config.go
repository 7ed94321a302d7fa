package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"pickem/ingestion/internal/cache"
	"pickem/ingestion/internal/repository"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"pickem"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"pickem_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Registry
	ByeTeamID        string        `envconfig:"BYE_TEAM_ID" default:"bye week"`
	CacheTTLRegistry time.Duration `envconfig:"CACHE_TTL_REGISTRY" default:"10m"`

	// Ratings source
	SagarinURL         string        `envconfig:"SAGARIN_URL" default:"https://sagarin.com/sports/cfsend.htm"`
	SagarinTimeout     time.Duration `envconfig:"SAGARIN_TIMEOUT" default:"30s"`
	SagarinInsecureTLS bool          `envconfig:"SAGARIN_INSECURE_TLS" default:"false"`
	FetchMaxAttempts   int           `envconfig:"FETCH_MAX_ATTEMPTS" default:"3"`

	// Scheduler and triggers
	EnableScheduler bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	ScrapeCron      string `envconfig:"SCRAPE_CRON" default:"0 6 * * *"`
	TriggerChannel  string `envconfig:"TRIGGER_CHANNEL" default:"pickem:scrape"`

	// Error reports
	ReportChannel string `envconfig:"REPORT_CHANNEL" default:"pickem:errors"`
	ReportBuffer  int    `envconfig:"REPORT_BUFFER" default:"256"`

	// Ingestion Service
	IngestionPort int `envconfig:"INGESTION_PORT" default:"8080"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.ByeTeamID == "" {
		return fmt.Errorf("BYE_TEAM_ID must not be empty")
	}

	if c.FetchMaxAttempts < 1 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be at least 1, got %d", c.FetchMaxAttempts)
	}

	if c.ReportBuffer < 1 {
		return fmt.Errorf("REPORT_BUFFER must be at least 1, got %d", c.ReportBuffer)
	}

	if c.SagarinInsecureTLS && c.IsProduction() {
		return fmt.Errorf("SAGARIN_INSECURE_TLS is not allowed in production")
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// Database returns the repository connection settings
func (c *Config) Database() repository.Config {
	return repository.Config{
		Host:     c.DatabaseHost,
		Port:     strconv.Itoa(c.DatabasePort),
		User:     c.DatabaseUser,
		Password: c.DatabasePassword,
		Database: c.DatabaseName,
		SSLMode:  c.DatabaseSSLMode,
	}
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Redis returns the cache connection settings
func (c *Config) Redis() cache.Config {
	return cache.Config{
		Host:     c.RedisHost,
		Port:     strconv.Itoa(c.RedisPort),
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
