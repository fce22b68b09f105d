package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. PARTIDA_DATABASE_DSN.
const EnvPrefix = "PARTIDA"

// Supported database drivers.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config represents the top-level partida.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Ledger   LedgerConfig   `yaml:"ledger" mapstructure:"ledger"`
}

// DatabaseConfig selects and tunes the store.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" mapstructure:"driver"`
	DSN             string        `yaml:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	Mode string `yaml:"mode" mapstructure:"mode"` // gin mode: debug, release, test
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// LedgerConfig holds bookkeeping defaults.
type LedgerConfig struct {
	Currency      string      `yaml:"currency" mapstructure:"currency"` // display only
	ChartTemplate string      `yaml:"chart_template" mapstructure:"chart_template"`
	Retry         RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig bounds the retry loop around entry sequencing conflicts.
type RetryConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval" mapstructure:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval" mapstructure:"max_interval"`
	MaxElapsed      time.Duration `yaml:"max_elapsed" mapstructure:"max_elapsed"`
}

// Load reads a partida.yaml file on top of the defaults and applies
// PARTIDA_* environment overrides. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	base, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("marshaling defaults: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, fmt.Errorf("reading defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", DriverMySQL)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Ledger.Retry.MaxElapsed <= 0 {
		return fmt.Errorf("ledger.retry.max_elapsed must be positive")
	}
	return nil
}

// Default returns a Config with sensible defaults for a new deployment.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          DriverMySQL,
			DSN:             "partida:partida@tcp(127.0.0.1:3306)/partida?charset=utf8mb4&parseTime=True&loc=UTC",
			MaxOpenConns:    100,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Log: LogConfig{
			Level: "info",
		},
		Ledger: LedgerConfig{
			Currency:      "ARS",
			ChartTemplate: "ar_basico",
			Retry: RetryConfig{
				InitialInterval: 10 * time.Millisecond,
				MaxInterval:     200 * time.Millisecond,
				MaxElapsed:      2 * time.Second,
			},
		},
	}
}
