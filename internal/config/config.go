// Package config loads Questlife settings from defaults, a YAML file and the
// environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"questlife/internal/log"
)

// DefaultPath is the standard config file location.
const DefaultPath = "~/.config/questlife/config.yaml"

type Config struct {
	DBPath      string `yaml:"db_path" env:"QUESTLIFE_DB_PATH"`
	LogLevel    string `yaml:"log_level" env:"QUESTLIFE_LOG_LEVEL"`
	DailyGuard  bool   `yaml:"daily_guard" env:"QUESTLIFE_DAILY_GUARD"`
	MetricsAddr string `yaml:"metrics_addr" env:"QUESTLIFE_METRICS_ADDR"`
}

func Default() *Config {
	return &Config{
		DBPath:     "~/.questlife.db",
		LogLevel:   "warn",
		DailyGuard: true,
	}
}

// Load reads the file at path over the defaults, then applies environment
// overrides. An empty path means DefaultPath, which may be absent; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	required := path != ""
	if !required {
		path = DefaultPath
	}
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := cfg.readFile(path, required); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath, err = ExpandPath(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("db_path: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer func() { log.CloseError("config file", f.Close()) }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db_path must be non-empty"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			errs = append(errs, fmt.Errorf("metrics_addr: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Clean(path), nil
}
