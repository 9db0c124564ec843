package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// API defaults
	DefaultTimeout = 30 * time.Second

	// Retry defaults
	DefaultMaxRetries      = 3
	DefaultInitialInterval = 4 * time.Second
	DefaultMaxInterval     = 10 * time.Second
	DefaultMultiplier      = 2.0

	// Notifier defaults
	DefaultBatchSource      = "original"
	DefaultBulkBatchPolicy  = "all_or_nothing"
	DefaultMaxCompensations = 1

	// Sources defaults
	DefaultSourcesFile = "sources.yaml"

	// Ledger backends
	LedgerBackendBadger = "badger"
	LedgerBackendRedis  = "redis"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".adenotifier"
	}
	return filepath.Join(home, ".adenotifier")
}

// LedgerDir returns the ledger directory path
func LedgerDir() string {
	return filepath.Join(ConfigDir(), "ledger")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			Timeout: DefaultTimeout,
		},
		Retry: RetryConfig{
			MaxRetries:      DefaultMaxRetries,
			InitialInterval: DefaultInitialInterval,
			MaxInterval:     DefaultMaxInterval,
			Multiplier:      DefaultMultiplier,
		},
		Notifier: NotifierConfig{
			BatchSource:      DefaultBatchSource,
			BulkBatchPolicy:  DefaultBulkBatchPolicy,
			MaxCompensations: DefaultMaxCompensations,
		},
		SourcesFile: DefaultSourcesFile,
		Ledger: LedgerConfig{
			Enabled:   false,
			Backend:   LedgerBackendBadger,
			Directory: LedgerDir(),
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
