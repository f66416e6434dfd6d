package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

var ErrUnknownStore = errors.New("unknown store backend")

type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	StreamAddr    string `yaml:"stream_addr"`
	Store         string `yaml:"store"`
	DBDSN         string `yaml:"db_dsn"`
	SQLitePath    string `yaml:"sqlite_path"`
	StoreKey      string `yaml:"store_key"`
	SpendUnits    int    `yaml:"spend_units"`
	MigrationsDir string `yaml:"migrations_dir"`
	Timezone      string `yaml:"timezone"`
	LogLevel      string `yaml:"log_level"`
	CORSOrigin    string `yaml:"cors_origin"`
}

func Default() Config {
	return Config{
		HTTPAddr:      ":8080",
		StreamAddr:    ":8081",
		Store:         StoreMemory,
		SQLitePath:    "./data/resin.db",
		StoreKey:      "rechargedDate",
		SpendUnits:    20,
		MigrationsDir: "./migrations",
		LogLevel:      "info",
		CORSOrigin:    "*",
	}
}

// Load starts from Default, applies the YAML file named by RESIN_CONFIG (if
// any) and then the RESIN_* environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("RESIN_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = stringEnv("RESIN_HTTP_ADDR", c.HTTPAddr)
	c.StreamAddr = stringEnv("RESIN_STREAM_ADDR", c.StreamAddr)
	c.Store = strings.ToLower(stringEnv("RESIN_STORE", c.Store))
	c.DBDSN = stringEnv("RESIN_DB_DSN", c.DBDSN)
	c.SQLitePath = stringEnv("RESIN_SQLITE_PATH", c.SQLitePath)
	c.StoreKey = stringEnv("RESIN_STORE_KEY", c.StoreKey)
	c.SpendUnits = intEnv("RESIN_SPEND_UNITS", c.SpendUnits)
	c.MigrationsDir = stringEnv("RESIN_MIGRATIONS_DIR", c.MigrationsDir)
	c.Timezone = stringEnv("RESIN_TIMEZONE", c.Timezone)
	c.LogLevel = stringEnv("RESIN_LOG_LEVEL", c.LogLevel)
	c.CORSOrigin = stringEnv("RESIN_CORS_ORIGIN", c.CORSOrigin)
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DBDSN == "" {
			return errors.New("RESIN_DB_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; empty means the host's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) HlogLevel() hlog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "trace":
		return hlog.LevelTrace
	case "debug":
		return hlog.LevelDebug
	case "notice":
		return hlog.LevelNotice
	case "warn", "warning":
		return hlog.LevelWarn
	case "error":
		return hlog.LevelError
	case "fatal":
		return hlog.LevelFatal
	default:
		return hlog.LevelInfo
	}
}

func stringEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
