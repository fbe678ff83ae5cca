package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverPebble = "pebble"
	DriverMemory = "memory"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Archive ArchiveConfig `yaml:"archive"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

// StorageConfig selects the Store implementation. Path is a SQLite file
// for the sqlite driver and a directory for pebble; memory ignores it.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ArchiveConfig struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load builds the configuration from defaults, the YAML file at path (or
// CHECKERS_CONFIG when path is empty), a .env file and CHECKERS_*
// environment variables, in that order. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv("CHECKERS_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// godotenv never overrides variables that are already set.
	_ = godotenv.Load()

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			GinMode: "release",
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "checkers.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Archive: ArchiveConfig{
			Workers:   4,
			BatchSize: 100,
		},
	}
}

func (c *Config) applyEnv() {
	if host := os.Getenv("CHECKERS_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("CHECKERS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if mode := os.Getenv("CHECKERS_GIN_MODE"); mode != "" {
		c.Server.GinMode = mode
	}

	if driver := os.Getenv("CHECKERS_STORAGE_DRIVER"); driver != "" {
		c.Storage.Driver = driver
	}
	if path := os.Getenv("CHECKERS_STORAGE_PATH"); path != "" {
		c.Storage.Path = path
	}

	if level := os.Getenv("CHECKERS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("CHECKERS_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}

	if workers := os.Getenv("CHECKERS_ARCHIVE_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Archive.Workers = n
		}
	}
	if size := os.Getenv("CHECKERS_ARCHIVE_BATCH_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			c.Archive.BatchSize = n
		}
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Storage.Driver {
	case DriverSQLite, DriverPebble:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the %s driver", c.Storage.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.Logging.Format)
	}

	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown gin mode %q", c.Server.GinMode)
	}

	if c.Archive.Workers < 1 {
		return fmt.Errorf("archive workers must be positive, got %d", c.Archive.Workers)
	}
	if c.Archive.BatchSize < 1 {
		return fmt.Errorf("archive batch size must be positive, got %d", c.Archive.BatchSize)
	}
	return nil
}
