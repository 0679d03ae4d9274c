// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Recovery RecoveryConfig `mapstructure:"recovery" yaml:"recovery"`
	Monitor  MonitorConfig  `mapstructure:"monitor" yaml:"monitor"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Sweep    SweepConfig    `mapstructure:"sweep" yaml:"sweep"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// RecoveryConfig mirrors the user-facing autosave settings plus the
// classifier tuning knobs.
type RecoveryConfig struct {
	Enabled          bool             `mapstructure:"enabled" yaml:"enabled"`
	RetentionDays    int              `mapstructure:"retention_days" yaml:"retention_days"`
	IgnoreDomains    []string         `mapstructure:"ignore_domains" yaml:"ignore_domains"`
	IgnoreLoginForms bool             `mapstructure:"ignore_login_forms" yaml:"ignore_login_forms"`
	Classifier       ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
}

// ClassifierConfig tunes the structural login-form heuristic.
type ClassifierConfig struct {
	MaxInputs     int `mapstructure:"max_inputs" yaml:"max_inputs"`
	MaxTextInputs int `mapstructure:"max_text_inputs" yaml:"max_text_inputs"`
}

// MonitorConfig tunes the live page watcher.
type MonitorConfig struct {
	DebounceWindow time.Duration `mapstructure:"debounce_window" yaml:"debounce_window"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// StorageConfig selects and configures the snapshot store backend.
type StorageConfig struct {
	// Backend is one of "memory", "sqlite" or "postgres".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path is the sqlite database file. "~" expands to the home directory.
	Path string `mapstructure:"path" yaml:"path"`
	// PostgresURL is read from AFR_POSTGRES_URL when unset.
	PostgresURL string `mapstructure:"postgres_url" yaml:"-"`
}

// SweepConfig tunes the periodic expired-snapshot sweeper.
type SweepConfig struct {
	Interval   time.Duration `mapstructure:"interval" yaml:"interval"`
	DeleteRate float64       `mapstructure:"delete_rate" yaml:"delete_rate"`
}

// Settings projects the recovery section onto the stored settings schema.
func (c *Config) Settings() schemas.Settings {
	return schemas.Settings{
		Enabled:          c.Recovery.Enabled,
		RetentionDays:    c.Recovery.RetentionDays,
		IgnoreDomains:    c.Recovery.IgnoreDomains,
		IgnoreLoginForms: c.Recovery.IgnoreLoginForms,
	}.Normalize()
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "afr")
	v.SetDefault("logger.log_file", "afr.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Recovery --
	v.SetDefault("recovery.enabled", true)
	v.SetDefault("recovery.retention_days", 7)
	v.SetDefault("recovery.ignore_domains", []string{})
	v.SetDefault("recovery.ignore_login_forms", true)
	v.SetDefault("recovery.classifier.max_inputs", 3)
	v.SetDefault("recovery.classifier.max_text_inputs", 1)

	// -- Monitor --
	v.SetDefault("monitor.debounce_window", "1s")
	v.SetDefault("monitor.poll_interval", "500ms")

	// -- Storage --
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "~/.afr/snapshots.db")

	// -- Sweep --
	v.SetDefault("sweep.interval", "10m")
	v.SetDefault("sweep.delete_rate", 50.0)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	v.BindEnv("storage.postgres_url", "AFR_POSTGRES_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Recovery.RetentionDays <= 0 {
		return fmt.Errorf("recovery.retention_days must be a positive integer")
	}
	if c.Recovery.Classifier.MaxInputs <= 0 {
		return fmt.Errorf("recovery.classifier.max_inputs must be a positive integer")
	}
	if c.Recovery.Classifier.MaxTextInputs <= 0 {
		return fmt.Errorf("recovery.classifier.max_text_inputs must be a positive integer")
	}
	if c.Monitor.DebounceWindow <= 0 {
		return fmt.Errorf("monitor.debounce_window must be a positive duration")
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be a positive duration")
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage configuration invalid: %w", err)
	}
	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be a positive duration")
	}
	if c.Sweep.DeleteRate <= 0 {
		return fmt.Errorf("sweep.delete_rate must be a positive rate")
	}
	return nil
}

// Validate checks the storage backend selection.
func (s *StorageConfig) Validate() error {
	switch s.Backend {
	case "memory":
		return nil
	case "sqlite":
		if s.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite backend")
		}
		return nil
	case "postgres":
		if s.PostgresURL == "" {
			return fmt.Errorf("storage.postgres_url is required but not found. Ensure AFR_POSTGRES_URL is set")
		}
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}
