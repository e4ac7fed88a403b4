package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ClientConfig configures the command-line client.
type ClientConfig struct {
	ServerURL   string   `toml:"server_url"`
	APIKey      string   `toml:"api_key"`
	Cache       string   `toml:"cache"`
	CacheDir    string   `toml:"cache_dir"`
	CacheSizeMB int      `toml:"cache_size_mb"`
	Timeout     Duration `toml:"timeout"`
	LogLevel    string   `toml:"log_level"`
}

// Client cache kinds. The sqlite cache survives restarts; the memory cache
// leaves nothing on disk.
const (
	CacheSQLite = "sqlite"
	CacheMemory = "memory"
)

// Duration is a time.Duration written as "10s" in TOML.
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

// DefaultClientPath returns ~/.config/workoutlog/config.toml.
func DefaultClientPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "workoutlog", "config.toml")
}

// LoadClient reads the TOML client config at path, then applies
// WORKOUTLOG_SERVER_URL, WORKOUTLOG_API_KEY, WORKOUTLOG_CACHE,
// WORKOUTLOG_CACHE_DIR and WORKOUTLOG_TIMEOUT. A missing file is not an error.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{
		ServerURL:   "http://localhost:3000",
		Cache:       CacheSQLite,
		CacheSizeMB: 64,
		Timeout:     Duration{30 * time.Second},
		LogLevel:    "warn",
	}
	if dir, err := os.UserCacheDir(); err == nil {
		cfg.CacheDir = filepath.Join(dir, "workoutlog")
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("parsing client config: %w", err)
	}

	if v := os.Getenv("WORKOUTLOG_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("WORKOUTLOG_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("WORKOUTLOG_CACHE"); v != "" {
		cfg.Cache = v
	}
	if v := os.Getenv("WORKOUTLOG_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("WORKOUTLOG_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = Duration{d}
		}
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("config validation: server_url is required")
	}
	switch cfg.Cache {
	case CacheSQLite:
	case CacheMemory:
		if cfg.CacheSizeMB < 1 {
			return nil, fmt.Errorf("config validation: cache_size_mb must be positive")
		}
	default:
		return nil, fmt.Errorf("config validation: unknown cache %q (want %s or %s)", cfg.Cache, CacheSQLite, CacheMemory)
	}
	if cfg.Timeout.Duration <= 0 {
		return nil, fmt.Errorf("config validation: timeout must be positive")
	}
	return cfg, nil
}
