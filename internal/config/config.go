// Package config loads server and CLI settings from defaults, an optional
// config file and JSONAPIQ_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. JSONAPIQ_APP_PORT.
const EnvPrefix = "JSONAPIQ"

// Config holds all application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Page     PageConfig     `mapstructure:"page"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type AppConfig struct {
	Port            string        `mapstructure:"port"`
	Env             string        `mapstructure:"env"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Development reports whether the app runs in development mode.
func (c AppConfig) Development() bool {
	return c.Env == "development"
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// Enabled reports whether a database is configured. Without one the
// server only parses queries.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

type PageConfig struct {
	MaxLimit int `mapstructure:"max_limit"`
}

type TracingConfig struct {
	Exporter string `mapstructure:"exporter"` // none, console, otlp-http
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.shutdown_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("page.max_limit", 50)
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration into a fresh instance from New.
func Load(file string) (*Config, error) {
	return Read(New(), file)
}

// Read merges the config file into v and returns the resulting config.
// When file is empty, config.yaml is looked up in the working directory and
// ./config; a missing file is not an error. Values bound to flags on v keep
// precedence over the file.
func Read(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.App.Port == "" {
		return errors.New("config: app.port is required")
	}
	if c.Page.MaxLimit <= 0 {
		return fmt.Errorf("config: page.max_limit must be positive, got %d", c.Page.MaxLimit)
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("config: database.max_conns must be positive, got %d", c.Database.MaxConns)
	}
	switch c.Tracing.Exporter {
	case "none", "console", "otlp-http":
	default:
		return fmt.Errorf("config: unknown tracing.exporter %q", c.Tracing.Exporter)
	}
	return nil
}
