// Package config loads settings from defaults, an optional YAML file and the
// environment, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Config holds the settings of one CLI run.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	Backend     string `yaml:"backend"`
	DBPath      string `yaml:"db_path"`
	LogFile     string `yaml:"log_file"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		DataDir:  "data",
		Backend:  BackendSQLite,
		LogLevel: "info",
	}
}

// Load reads path (when non-empty and present) over the defaults and then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.DataDir = getEnv("BIKE_RENTAL_DATA_DIR", cfg.DataDir)
	cfg.Backend = getEnv("BIKE_RENTAL_BACKEND", cfg.Backend)
	cfg.DBPath = getEnv("BIKE_RENTAL_DB", cfg.DBPath)
	cfg.LogFile = getEnv("BIKE_RENTAL_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = getEnv("BIKE_RENTAL_LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsAddr = getEnv("BIKE_RENTAL_METRICS_ADDR", cfg.MetricsAddr)
	return cfg, cfg.Validate()
}

// Validate rejects unknown backends and log levels.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendBolt)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DatabasePath is DBPath, or a backend specific file inside DataDir.
func (c Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	if c.Backend == BackendBolt {
		return filepath.Join(c.DataDir, "bike-rental.bolt")
	}
	return filepath.Join(c.DataDir, "bike-rental.db")
}

// LogPath is LogFile, or bike-rental.log inside DataDir. "-" means stderr.
func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "bike-rental.log")
}

// Level returns the configured slog level.
func (c Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
