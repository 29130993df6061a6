// Package config loads the printbatch YAML configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/print-batcher/pkg/types"
)

// DefaultPath is where the CLI looks for configuration unless told otherwise.
const DefaultPath = "configs/default.yaml"

// Config represents the complete system configuration structure.
type Config struct {
	Printer PrinterConfig `yaml:"printer"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// PrinterConfig holds the default batch limits of the printer.
type PrinterConfig struct {
	MaxVolume          float64 `yaml:"max_volume"`
	MaxItems           int     `yaml:"max_items"`
	SeparatePriorities bool    `yaml:"separate_priorities"`
}

// Constraints converts the printer limits to optimizer constraints.
func (p PrinterConfig) Constraints() types.Constraints {
	return types.Constraints{
		MaxVolume:          p.MaxVolume,
		MaxItems:           p.MaxItems,
		SeparatePriorities: p.SeparatePriorities,
	}
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Printer: PrinterConfig{
			MaxVolume: 300,
			MaxItems:  2,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of Defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PRINTBATCH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PRINTBATCH_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}

	if v := os.Getenv("PRINTBATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv("PRINTBATCH_MAX_VOLUME"); v != "" {
		volume, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PRINTBATCH_MAX_VOLUME %q: %w", v, err)
		}
		c.Printer.MaxVolume = volume
	}

	if v := os.Getenv("PRINTBATCH_MAX_ITEMS"); v != "" {
		items, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PRINTBATCH_MAX_ITEMS %q: %w", v, err)
		}
		c.Printer.MaxItems = items
	}

	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if !(c.Printer.MaxVolume > 0) {
		return fmt.Errorf("printer max_volume must be positive, got %g", c.Printer.MaxVolume)
	}

	if c.Printer.MaxItems <= 0 {
		return fmt.Errorf("printer max_items must be positive, got %d", c.Printer.MaxItems)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return fmt.Errorf("metrics path is required when metrics are enabled")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", c.Logging.Format)
	}

	return nil
}
