// Package config loads harvester settings. Environment variables
// (EVENTHARVEST_ prefix) override config.yaml, which overrides the defaults.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pfrederiksen/event-harvest/internal/storage"
)

// Store drivers
const (
	DriverJSON   = storage.DriverJSON
	DriverSQLite = storage.DriverSQLite
)

// Config holds the full application configuration.
type Config struct {
	DataDir    string          `yaml:"data_dir" mapstructure:"data_dir"`
	Store      StoreConfig     `yaml:"store" mapstructure:"store"`
	Fetch      FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Validation ValidateConfig  `yaml:"validate" mapstructure:"validate"`
	Dedup      DedupConfig     `yaml:"dedup" mapstructure:"dedup"`
	Pipeline   PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Mail       MailConfig      `yaml:"mail" mapstructure:"mail"`
	Overrides  OverridesConfig `yaml:"overrides" mapstructure:"overrides"`
	Metrics    MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Log        LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the catalog backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	// DSN is the SQLite database path; defaults to <data_dir>/events.db.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// FetchConfig configures the HTTP client.
type FetchConfig struct {
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	CallsPerMinute   int    `yaml:"calls_per_minute" mapstructure:"calls_per_minute"`
	InitialBackoffMS int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// Timeout is the per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// InitialBackoff is the wait before the first retry.
func (f FetchConfig) InitialBackoff() time.Duration {
	return time.Duration(f.InitialBackoffMS) * time.Millisecond
}

// ValidateConfig bounds accepted start dates.
type ValidateConfig struct {
	MaxPastDays   int `yaml:"max_past_days" mapstructure:"max_past_days"`
	MaxFutureDays int `yaml:"max_future_days" mapstructure:"max_future_days"`
}

// DedupConfig tunes duplicate detection.
type DedupConfig struct {
	Threshold         float64 `yaml:"threshold" mapstructure:"threshold"`
	DateToleranceDays int     `yaml:"date_tolerance_days" mapstructure:"date_tolerance_days"`
}

// PipelineConfig configures a run.
type PipelineConfig struct {
	Workers      int `yaml:"workers" mapstructure:"workers"`
	KeepPastDays int `yaml:"keep_past_days" mapstructure:"keep_past_days"`
}

// MailConfig configures the newsletter mailbox.
type MailConfig struct {
	// Dir holds *.eml files; defaults to <data_dir>/mail.
	Dir         string `yaml:"dir" mapstructure:"dir"`
	DaysBack    int    `yaml:"days_back" mapstructure:"days_back"`
	MaxMessages int    `yaml:"max_messages" mapstructure:"max_messages"`
}

// OverridesConfig points at an optional YAML override registry.
type OverridesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreDSN returns the SQLite path, defaulting under the data dir.
func (c *Config) StoreDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	return filepath.Join(c.DataDir, "events.db")
}

// MailDir returns the mailbox directory, defaulting under the data dir.
func (c *Config) MailDir() string {
	if c.Mail.Dir != "" {
		return c.Mail.Dir
	}
	return filepath.Join(c.DataDir, "mail")
}

// Load reads configuration from file and environment. An empty path looks
// for config.yaml in the working directory; a missing default file is not
// an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("EVENTHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", "data")
	v.SetDefault("store.driver", DriverJSON)
	v.SetDefault("store.dsn", "")
	v.SetDefault("fetch.user_agent", "PsychoanalyticEventsBot/1.0 (Educational event aggregator)")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.calls_per_minute", 20)
	v.SetDefault("fetch.initial_backoff_ms", 1000)
	v.SetDefault("validate.max_past_days", 30)
	v.SetDefault("validate.max_future_days", 1095)
	v.SetDefault("dedup.threshold", 0.7)
	v.SetDefault("dedup.date_tolerance_days", 1)
	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("pipeline.keep_past_days", 7)
	v.SetDefault("mail.dir", "")
	v.SetDefault("mail.days_back", 30)
	v.SetDefault("mail.max_messages", 10)
	v.SetDefault("overrides.path", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless named)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings can drive a run.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverJSON, DriverSQLite:
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.DataDir == "" {
		return eris.New("config: data_dir is required")
	}
	if c.Fetch.TimeoutSecs <= 0 {
		return eris.New("config: fetch.timeout_secs must be positive")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return eris.New("config: fetch.max_attempts must be positive")
	}
	if c.Fetch.CallsPerMinute <= 0 {
		return eris.New("config: fetch.calls_per_minute must be positive")
	}
	if c.Fetch.InitialBackoffMS < 0 {
		return eris.New("config: fetch.initial_backoff_ms must not be negative")
	}
	if c.Validation.MaxPastDays < 0 || c.Validation.MaxFutureDays < 0 {
		return eris.New("config: validate windows must not be negative")
	}
	if c.Dedup.Threshold <= 0 || c.Dedup.Threshold > 1 {
		return eris.Errorf("config: dedup.threshold %v outside (0, 1]", c.Dedup.Threshold)
	}
	if c.Dedup.DateToleranceDays < 0 {
		return eris.New("config: dedup.date_tolerance_days must not be negative")
	}
	if c.Pipeline.Workers <= 0 {
		return eris.New("config: pipeline.workers must be positive")
	}
	if c.Pipeline.KeepPastDays < 0 {
		return eris.New("config: pipeline.keep_past_days must not be negative")
	}
	if c.Pipeline.KeepPastDays > c.Validation.MaxPastDays {
		return eris.Errorf("config: pipeline.keep_past_days %d exceeds validate.max_past_days %d",
			c.Pipeline.KeepPastDays, c.Validation.MaxPastDays)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
