package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/quantmind-br/adenotifier-go/internal/notifier"
	"github.com/quantmind-br/adenotifier-go/internal/utils"
	"github.com/rs/zerolog"
)

// Config represents the application configuration
type Config struct {
	API         APIConfig      `mapstructure:"api" yaml:"api"`
	Retry       RetryConfig    `mapstructure:"retry" yaml:"retry"`
	Notifier    NotifierConfig `mapstructure:"notifier" yaml:"notifier"`
	SourcesFile string         `mapstructure:"sources_file" yaml:"sources_file"`
	Ledger      LedgerConfig   `mapstructure:"ledger" yaml:"ledger"`
	Logging     LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// APIConfig contains the Notify API endpoint and credentials
type APIConfig struct {
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey       string        `mapstructure:"api_key" yaml:"api_key"`
	APIKeySecret string        `mapstructure:"api_key_secret" yaml:"api_key_secret"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// MarshalZerologObject logs the endpoint without the credentials
func (a APIConfig) MarshalZerologObject(e *zerolog.Event) {
	e.Str("base_url", a.BaseURL).
		Bool("api_key_set", a.APIKey != "").
		Bool("api_key_secret_set", a.APIKeySecret != "").
		Dur("timeout", a.Timeout)
}

// RetryConfig contains transport retry settings
type RetryConfig struct {
	MaxRetries      int           `mapstructure:"max_retries" yaml:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier" yaml:"multiplier"`
}

// NotifierConfig contains manifest assembly policies
type NotifierConfig struct {
	BatchSource      string `mapstructure:"batch_source" yaml:"batch_source"`
	BulkBatchPolicy  string `mapstructure:"bulk_batch_policy" yaml:"bulk_batch_policy"`
	MaxCompensations int    `mapstructure:"max_compensations" yaml:"max_compensations"`
}

// LedgerConfig contains submission ledger settings
type LedgerConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Backend is "badger" (local directory) or "redis" (shared)
	Backend   string        `mapstructure:"backend" yaml:"backend"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
	InMemory  bool          `mapstructure:"in_memory" yaml:"in_memory"`
	RedisURL  string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate applies defaults to out-of-range values and rejects unknown
// policy names
func (c *Config) Validate() error {
	if c.API.Timeout < time.Second {
		c.API.Timeout = DefaultTimeout
	}
	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = DefaultMaxRetries
	}
	if c.Retry.InitialInterval <= 0 {
		c.Retry.InitialInterval = DefaultInitialInterval
	}
	if c.Retry.MaxInterval < c.Retry.InitialInterval {
		c.Retry.MaxInterval = max(DefaultMaxInterval, c.Retry.InitialInterval)
	}
	if c.Retry.Multiplier < 1 {
		c.Retry.Multiplier = DefaultMultiplier
	}
	if c.Notifier.MaxCompensations < 0 {
		c.Notifier.MaxCompensations = DefaultMaxCompensations
	}

	batchSource, err := notifier.ParseBatchSource(c.Notifier.BatchSource)
	if err != nil {
		return err
	}
	c.Notifier.BatchSource = string(batchSource)

	policy, err := notifier.ParseBulkBatchPolicy(c.Notifier.BulkBatchPolicy)
	if err != nil {
		return err
	}
	c.Notifier.BulkBatchPolicy = string(policy)

	c.SourcesFile = utils.ExpandPath(c.SourcesFile)
	c.Ledger.Directory = utils.ExpandPath(c.Ledger.Directory)

	if c.Ledger.TTL < 0 {
		return fmt.Errorf("invalid ledger.ttl: %s", c.Ledger.TTL)
	}

	switch strings.ToLower(strings.TrimSpace(c.Ledger.Backend)) {
	case "", LedgerBackendBadger:
		c.Ledger.Backend = LedgerBackendBadger
	case LedgerBackendRedis:
		c.Ledger.Backend = LedgerBackendRedis
		if c.Ledger.Enabled && c.Ledger.RedisURL == "" {
			return domain.NewConfigurationError("", "ledger.redis_url", "is required for the redis backend")
		}
	default:
		return domain.NewConfigurationError("", "ledger.backend", fmt.Sprintf("unknown backend %q", c.Ledger.Backend))
	}
	return nil
}
