package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, defaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"port 0", func(c *Config) { c.Server.Port = 0 }, true},
		{"port 65536", func(c *Config) { c.Server.Port = 65536 }, true},
		{"port 65535", func(c *Config) { c.Server.Port = 65535 }, false},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "redis" }, true},
		{"sqlite without path", func(c *Config) { c.Storage.Path = "" }, true},
		{"memory without path", func(c *Config) {
			c.Storage.Driver = DriverMemory
			c.Storage.Path = ""
		}, false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad gin mode", func(c *Config) { c.Server.GinMode = "fast" }, true},
		{"no workers", func(c *Config) { c.Archive.Workers = 0 }, true},
		{"no batch", func(c *Config) { c.Archive.BatchSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkers.yaml")
	yaml := `
server:
  port: 9000
storage:
  driver: pebble
  path: /var/lib/checkers
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("CHECKERS_PORT", "9100")
	t.Setenv("CHECKERS_ARCHIVE_WORKERS", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, DriverPebble, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/checkers", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 8, cfg.Archive.Workers)
	assert.Equal(t, 100, cfg.Archive.BatchSize)
	assert.Equal(t, "0.0.0.0:9100", cfg.Addr())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CHECKERS_STORAGE_DRIVER", "mongo")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
