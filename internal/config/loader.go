package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. ADENOTIFIER_API_BASE_URL
const EnvPrefix = "ADENOTIFIER"

// Load loads configuration from file, environment, and defaults
// Uses the global viper instance to access CLI flag bindings
func Load() (*Config, error) {
	return LoadWithViper(viper.GetViper(), "")
}

// LoadWithViper loads configuration into v. An explicit configFile replaces
// the search in the config directory and the working directory.
func LoadWithViper(v *viper.Viper, configFile string) (*Config, error) {
	// Set defaults
	setDefaults(v)

	// Config file settings
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Environment variables (ADENOTIFIER_*)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvAliases(v)

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate and apply defaults for invalid values
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Missing files are
// skipped; with no arguments ./.env is tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// bindEnvAliases binds the short credential variable names
func bindEnvAliases(v *viper.Viper) {
	_ = v.BindEnv("api.base_url", EnvPrefix+"_API_BASE_URL", EnvPrefix+"_BASE_URL")
	_ = v.BindEnv("api.api_key", EnvPrefix+"_API_API_KEY", EnvPrefix+"_API_KEY")
	_ = v.BindEnv("api.api_key_secret", EnvPrefix+"_API_API_KEY_SECRET", EnvPrefix+"_API_KEY_SECRET")
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.api_key_secret", "")
	v.SetDefault("api.timeout", DefaultTimeout)

	// Retry defaults
	v.SetDefault("retry.max_retries", DefaultMaxRetries)
	v.SetDefault("retry.initial_interval", DefaultInitialInterval)
	v.SetDefault("retry.max_interval", DefaultMaxInterval)
	v.SetDefault("retry.multiplier", DefaultMultiplier)

	// Notifier defaults
	v.SetDefault("notifier.batch_source", DefaultBatchSource)
	v.SetDefault("notifier.bulk_batch_policy", DefaultBulkBatchPolicy)
	v.SetDefault("notifier.max_compensations", DefaultMaxCompensations)

	// Sources defaults
	v.SetDefault("sources_file", DefaultSourcesFile)

	// Ledger defaults
	v.SetDefault("ledger.enabled", false)
	v.SetDefault("ledger.backend", LedgerBackendBadger)
	v.SetDefault("ledger.redis_url", "")
	v.SetDefault("ledger.directory", LedgerDir())
	v.SetDefault("ledger.in_memory", false)
	v.SetDefault("ledger.ttl", 0)

	// Logging defaults
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}
