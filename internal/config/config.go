package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure. It is read-only after Load
// returns.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Timer    TimerConfig    `yaml:"timer"`
	Stats    StatsConfig    `yaml:"stats"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TimerConfig locates the timer daemon socket and sets its tick rate.
type TimerConfig struct {
	Socket       string   `yaml:"socket"`
	TickInterval Duration `yaml:"tick_interval"`
}

type StatsConfig struct {
	TrailingDays int `yaml:"trailing_days"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Dir returns the directory planr keeps its files in.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "planr")
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// path overrides PLANR_CONFIG_PATH. A missing file is only an error when the
// path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := newDefaults()

	explicit := path != ""
	if !explicit {
		if v := os.Getenv("PLANR_CONFIG_PATH"); v != "" {
			path, explicit = v, true
		} else {
			path = DefaultPath()
		}
	}

	if err := loadYAMLFile(cfg, path, explicit); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newDefaults() *Config {
	dir := Dir()
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "planr.db"),
		},
		Timer: TimerConfig{
			Socket:       filepath.Join(dir, "timerd.sock"),
			TickInterval: Duration(time.Second),
		},
		Stats: StatsConfig{
			TrailingDays: 7,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(dir, "planr.log"),
		},
	}
}

func loadYAMLFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies PLANR_* overrides. Only non-empty, parseable
// values override.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PLANR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PLANR_TIMER_SOCKET"); v != "" {
		cfg.Timer.Socket = v
	}
	if v := os.Getenv("PLANR_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timer.TickInterval = Duration(d)
		}
	}
	if v := os.Getenv("PLANR_STATS_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Stats.TrailingDays = n
		}
	}
	if v := os.Getenv("PLANR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PLANR_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PLANR_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Timer.Socket == "" {
		return errors.New("timer.socket is required")
	}
	if time.Duration(c.Timer.TickInterval) <= 0 {
		return fmt.Errorf("timer.tick_interval must be positive, got %s", time.Duration(c.Timer.TickInterval))
	}
	if c.Stats.TrailingDays < 1 {
		return fmt.Errorf("stats.trailing_days must be at least 1, got %d", c.Stats.TrailingDays)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not text or json", c.Log.Format)
	}
	return nil
}
