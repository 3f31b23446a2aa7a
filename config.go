package main

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// ServeConfig controls the web front end.
type ServeConfig struct {
	Addr        string `yaml:"addr"`
	OutputDir   string `yaml:"output_dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	MaxConns    int    `yaml:"max_conns"`
	LogLevel    string `yaml:"log_level"`
}

// DefaultServeConfig matches a local single-user setup.
func DefaultServeConfig() ServeConfig {
	return ServeConfig{
		Addr:        "127.0.0.1:8080",
		OutputDir:   "pixveil-out",
		MaxUploadMB: 32,
		MaxConns:    64,
		LogLevel:    "info",
	}
}

// LoadServeConfig reads a YAML config file over the defaults.
func LoadServeConfig(path string) (ServeConfig, error) {
	cfg := DefaultServeConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c ServeConfig) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: addr is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config: output_dir is required")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("config: max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("config: max_conns must be positive, got %d", c.MaxConns)
	}
	if _, err := c.slogLevel(); err != nil {
		return err
	}
	return nil
}

func (c ServeConfig) slogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
}
