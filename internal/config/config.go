// Package config loads the application configuration from an optional YAML
// file and FINVOICE_ prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/currency"

	"github.com/rezonia/finvoice-apix/internal/apix"
	"github.com/rezonia/finvoice-apix/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. FINVOICE_APIX_ENVIRONMENT
const EnvPrefix = "FINVOICE"

// Config holds all application configuration
type Config struct {
	Apix     ApixConfig     `mapstructure:"apix"`
	Company  CompanyConfig  `mapstructure:"company"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Server   ServerConfig   `mapstructure:"server"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
}

// ApixConfig holds Apix transport configuration
type ApixConfig struct {
	Environment string `mapstructure:"environment"` // test or production
	// BaseURL replaces the environment's hosts, e.g. for a local mock
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Software      string        `mapstructure:"software"`
	Version       string        `mapstructure:"version"`
	StorageStatus string        `mapstructure:"storage_status"`
}

// CompanyConfig holds defaults for companies
type CompanyConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Debug        bool          `mapstructure:"debug"`
}

// SweepConfig holds inbox sweep configuration
type SweepConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads configuration from path, if given, and the environment
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("apix.environment", string(apix.EnvironmentProduction))
	v.SetDefault("apix.base_url", "")
	v.SetDefault("apix.timeout", apix.DefaultTimeout)
	v.SetDefault("apix.software", apix.DefaultSoftware)
	v.SetDefault("apix.version", apix.DefaultVersion)
	v.SetDefault("apix.storage_status", model.StorageStatusUnreceived)

	v.SetDefault("company.default_currency", "EUR")

	v.SetDefault("database.path", "finvoice.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.debug", false)

	v.SetDefault("sweep.concurrency", 4)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := apix.ParseEnvironment(c.Apix.Environment); err != nil {
		return err
	}
	if c.Apix.Timeout <= 0 {
		return model.NewValidationError("apix.timeout", "must be positive")
	}
	if c.Apix.StorageStatus == model.StorageStatusNew {
		return model.NewValidationError("apix.storage_status", "NEW files are never ready for download")
	}
	if _, err := currency.ParseISO(c.Company.DefaultCurrency); err != nil {
		return model.NewValidationError("company.default_currency", fmt.Sprintf("%q is not an ISO 4217 currency", c.Company.DefaultCurrency))
	}
	if c.Database.Path == "" {
		return model.NewValidationError("database.path", "is required")
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return model.NewValidationError("logger.format", "must be json or console")
	}
	if c.Sweep.Concurrency < 1 {
		return model.NewValidationError("sweep.concurrency", "must be at least 1")
	}
	return nil
}

// Environment returns the parsed Apix environment
func (c *Config) Environment() apix.Environment {
	env, err := apix.ParseEnvironment(c.Apix.Environment)
	if err != nil {
		return apix.EnvironmentProduction
	}
	return env
}

// ClientOptions returns the Apix client options for this configuration
func (c *Config) ClientOptions() []apix.ClientOption {
	opts := []apix.ClientOption{
		apix.WithTimeout(c.Apix.Timeout),
		apix.WithSoftware(c.Apix.Software, c.Apix.Version),
	}
	if c.Apix.BaseURL != "" {
		opts = append(opts, apix.WithEndpoints(apix.NewEndpoints(c.Apix.BaseURL)))
	}
	return opts
}
