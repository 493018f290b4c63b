package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"bancalot"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"bancalot"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"bancalot"`
	PGMaxConns  int32  `env:"PG_MAX_CONNS" envDefault:"20"`

	// MigrationsDir overrides the db/migrations lookup.
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	// Redis rule cache
	RedisURL         string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RuleCacheEnabled bool          `env:"RULE_CACHE_ENABLED" envDefault:"true"`
	RuleCacheTTL     time.Duration `env:"RULE_CACHE_TTL" envDefault:"1m"`

	// Redis circuit breaker
	CacheBreakerThreshold int           `env:"CACHE_BREAKER_THRESHOLD" envDefault:"5"`
	CacheBreakerReset     time.Duration `env:"CACHE_BREAKER_RESET" envDefault:"30s"`

	// Server
	APIPort            int    `env:"API_PORT" envDefault:"3100"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Kafka
	KafkaBrokers     string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled     bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaRulesTopic  string `env:"KAFKA_RULES_TOPIC" envDefault:"bancalot.rules.snapshot.changed"`
	KafkaGroupID     string `env:"KAFKA_GROUP_ID" envDefault:"bancalot-api"`
	KafkaTopicPrefix string `env:"KAFKA_TOPIC_PREFIX" envDefault:"bancalot"`

	// Outbox relay
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	// Sales policy
	BusinessTimezone     string `env:"BUSINESS_TIMEZONE" envDefault:"America/Santo_Domingo"`
	DefaultCutoffMinutes int    `env:"DEFAULT_CUTOFF_MINUTES" envDefault:"5"`
	MaxBetsPerTicket     int    `env:"MAX_BETS_PER_TICKET" envDefault:"0"`

	// Per-seller ticket rate limit; 0 disables it.
	SubmitRateLimit  int           `env:"SUBMIT_RATE_LIMIT" envDefault:"0"`
	SubmitRateWindow time.Duration `env:"SUBMIT_RATE_WINDOW" envDefault:"1m"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configuration the service cannot run with.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.DefaultCutoffMinutes < 0 || c.DefaultCutoffMinutes > 30 {
		return fmt.Errorf("DEFAULT_CUTOFF_MINUTES must be 0-30, got %d", c.DefaultCutoffMinutes)
	}
	if c.MaxBetsPerTicket < 0 {
		return fmt.Errorf("MAX_BETS_PER_TICKET must not be negative, got %d", c.MaxBetsPerTicket)
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize)
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive, got %s", c.OutboxPollInterval)
	}
	if c.SubmitRateLimit < 0 {
		return fmt.Errorf("SUBMIT_RATE_LIMIT must not be negative, got %d", c.SubmitRateLimit)
	}
	if c.SubmitRateLimit > 0 && c.SubmitRateWindow <= 0 {
		return fmt.Errorf("SUBMIT_RATE_WINDOW must be positive when SUBMIT_RATE_LIMIT is set")
	}
	if c.RuleCacheEnabled && c.RuleCacheTTL <= 0 {
		return fmt.Errorf("RULE_CACHE_TTL must be positive when the rule cache is enabled")
	}
	return nil
}

// Location resolves BUSINESS_TIMEZONE, the zone that defines a business day.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err)
	}
	return loc, nil
}

// CORSOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
