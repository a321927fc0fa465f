// Package config holds the ingestion settings. Values come from defaults,
// then an optional YAML file, then the environment (a .env file is read
// first when present); command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// Config is the complete run configuration
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Extract  ExtractConfig  `yaml:"extract"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Schedule string         `yaml:"schedule"`
}

type InputConfig struct {
	Dir       string `yaml:"dir"`
	StartPage int    `yaml:"startPage"`
}

type ExtractConfig struct {
	Strategies []string `yaml:"strategies"`
	Workers    int      `yaml:"workers"`
}

type SnapshotConfig struct {
	Dir  string `yaml:"dir"`
	XLSX bool   `yaml:"xlsx"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the built-in configuration
func Default() Config {
	var c Config
	c.Input.Dir = "data/raw/pdf"
	c.Input.StartPage = 5
	c.Extract.Strategies = []string{"stream", "lattice"}
	c.Extract.Workers = 1
	c.Snapshot.Dir = "data/raw/csv"
	c.Store.Driver = "sqlite"
	c.Store.SQLite.Path = "database/TESTE_DIATEX.db"
	c.Log.Level = "info"
	c.Log.File = "app.log"
	return c
}

// LoadFile overlays the YAML file at path onto c. Keys missing from the
// file keep their current value.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse yaml %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process
// environment. A missing file is not an error and existing variables win.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overlays NH3_* environment variables onto c
func (c *Config) ApplyEnv() error {
	c.Input.Dir = getEnv("NH3_INPUT_DIR", c.Input.Dir)
	c.Snapshot.Dir = getEnv("NH3_SNAPSHOT_DIR", c.Snapshot.Dir)
	c.Store.Driver = getEnv("NH3_STORE_DRIVER", c.Store.Driver)
	c.Store.SQLite.Path = getEnv("NH3_SQLITE_PATH", c.Store.SQLite.Path)
	c.Store.Postgres.DSN = getEnv("NH3_POSTGRES_DSN", c.Store.Postgres.DSN)
	c.Log.Level = getEnv("NH3_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("NH3_LOG_FILE", c.Log.File)
	c.Metrics.Textfile = getEnv("NH3_METRICS_TEXTFILE", c.Metrics.Textfile)
	c.Schedule = getEnv("NH3_SCHEDULE", c.Schedule)
	if v := os.Getenv("NH3_STRATEGIES"); v != "" {
		c.Extract.Strategies = splitList(v)
	}

	var err error
	if c.Input.StartPage, err = getEnvAsInt("NH3_START_PAGE", c.Input.StartPage); err != nil {
		return err
	}
	if c.Extract.Workers, err = getEnvAsInt("NH3_WORKERS", c.Extract.Workers); err != nil {
		return err
	}
	if c.Snapshot.XLSX, err = getEnvAsBool("NH3_SNAPSHOT_XLSX", c.Snapshot.XLSX); err != nil {
		return err
	}
	return nil
}

// Validate reports every problem found in c
func (c Config) Validate() error {
	var errs []error
	if c.Input.Dir == "" {
		errs = append(errs, errors.New("input.dir is required"))
	}
	if c.Input.StartPage < 1 {
		errs = append(errs, fmt.Errorf("input.startPage must be >= 1, got %d", c.Input.StartPage))
	}
	if len(c.Extract.Strategies) == 0 {
		errs = append(errs, errors.New("extract.strategies must name at least one strategy"))
	}
	for _, s := range c.Extract.Strategies {
		if s != "lattice" && s != "stream" {
			errs = append(errs, fmt.Errorf("extract.strategies: unknown strategy %q", s))
		}
	}
	if c.Extract.Workers < 1 {
		errs = append(errs, fmt.Errorf("extract.workers must be >= 1, got %d", c.Extract.Workers))
	}
	if c.Snapshot.Dir == "" {
		errs = append(errs, errors.New("snapshot.dir is required"))
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			errs = append(errs, errors.New("store.sqlite.path is required"))
		}
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			errs = append(errs, errors.New("store.postgres.dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
