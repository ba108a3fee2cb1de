// Package config loads snakedraw's application configuration.
//
// Values are layered: built-in defaults, then an optional TOML file, then
// environment variables. CLI flags are applied last by the commands that
// own them.
//
// A complete file looks like:
//
//	addr     = ":8080"
//	base_url = "https://draw.example.com"
//
//	[settings]
//	backend = "redis"            # memory, file or redis
//	dir     = "/var/lib/snakedraw"
//
//	[settings.redis]
//	addr   = "localhost:6379"
//	prefix = "snakedraw:settings:"
//
//	[draw]
//	grid_size    = "16x9"
//	winner_count = 1
//	speed        = 1.0
//	max_duration = "60s"
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"snakedraw/internal/draw"
	"snakedraw/pkg/errors"
)

// Settings backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Environment variables read by Load.
const (
	EnvPort            = "PORT"
	EnvBaseURL         = "BASE_URL"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvSettingsDir     = "SNAKEDRAW_SETTINGS_DIR"
	EnvSettingsBackend = "SNAKEDRAW_SETTINGS_BACKEND"
)

// Duration is a time.Duration written as a string such as "60s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Addr     string         `toml:"addr"`
	BaseURL  string         `toml:"base_url"`
	Settings SettingsConfig `toml:"settings"`
	Draw     DrawConfig     `toml:"draw"`
}

type SettingsConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	Redis   RedisConfig `toml:"redis"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// DrawConfig holds the defaults for new draws.
type DrawConfig struct {
	GridSize    string   `toml:"grid_size"`
	WinnerCount int      `toml:"winner_count"`
	Speed       float64  `toml:"speed"`
	MaxDuration Duration `toml:"max_duration"`
	// IdleTTL is how long a finished or idle web draw is kept. Zero keeps
	// draws until shutdown.
	IdleTTL Duration `toml:"idle_ttl"`
}

// DefaultIdleTTL is how long an inactive web draw survives by default.
const DefaultIdleTTL = 30 * time.Minute

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr: ":8080",
		Settings: SettingsConfig{
			Backend: BackendMemory,
		},
		Draw: DrawConfig{
			GridSize:    draw.FormatSize(draw.DefaultCols, draw.DefaultRows),
			WinnerCount: 1,
			Speed:       draw.DefaultSpeed,
			MaxDuration: Duration{draw.DefaultMaxDuration},
			IdleTTL:     Duration{DefaultIdleTTL},
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies the process
// environment and validates the result.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
		}
	}
	cfg.applyEnv(getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if port := strings.TrimSpace(getenv(EnvPort)); port != "" {
		c.Addr = ":" + port
	}
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		c.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(getenv(EnvRedisAddr)); v != "" {
		c.Settings.Redis.Addr = v
	}
	if v := strings.TrimSpace(getenv(EnvSettingsDir)); v != "" {
		c.Settings.Dir = v
	}
	if v := strings.TrimSpace(getenv(EnvSettingsBackend)); v != "" {
		c.Settings.Backend = strings.ToLower(v)
	}
}

// Validate checks the fields that have a fixed set of valid values.
func (c Config) Validate() error {
	switch c.Settings.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Settings.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "settings backend redis needs an address")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"unknown settings backend %q (want memory, file or redis)", c.Settings.Backend)
	}
	if _, _, err := draw.ParseSize(c.Draw.GridSize); err != nil {
		return err
	}
	if c.Draw.WinnerCount < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "default winner count must be at least 1")
	}
	if c.Draw.MaxDuration.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max duration must be positive")
	}
	if c.Draw.IdleTTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "idle ttl must not be negative")
	}
	return nil
}
