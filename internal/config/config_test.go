package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/ehs.db", cfg.Database.Path)
	assert.Equal(t, int64(10<<20), cfg.Evidence.MaxBytes)
	assert.Contains(t, cfg.Evidence.AllowedTypes, "image/jpeg")
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  read_timeout: 5s
database:
  driver: postgres
  dsn: postgres://file@localhost/ehs
evidence:
  base_dir: /var/lib/ehs/evidence
  max_bytes: 2048
logger:
  level: debug
`)
	t.Setenv("EHS_DATABASE_DSN", "postgres://env@localhost/ehs")
	t.Setenv("EHS_LOGGER_FORMAT", "console")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://env@localhost/ehs", cfg.Database.DSN)
	assert.Equal(t, int64(2048), cfg.Evidence.MaxBytes)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "EHS_EVIDENCE_BASE_DIR=/tmp/ehs-evidence-test\n")
	t.Cleanup(func() { os.Unsetenv("EHS_EVIDENCE_BASE_DIR") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ehs-evidence-test", cfg.Evidence.BaseDir)

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: DriverSQLite, Path: "data/ehs.db"},
			Evidence: EvidenceConfig{BaseDir: "data/evidence", MaxBytes: 1024},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid sqlite", func(c *Config) {}, false},
		{"valid postgres", func(c *Config) { c.Database = DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://x"} }, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"postgres without dsn", func(c *Config) { c.Database = DatabaseConfig{Driver: DriverPostgres} }, true},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, true},
		{"no evidence dir", func(c *Config) { c.Evidence.BaseDir = "" }, true},
		{"zero max bytes", func(c *Config) { c.Evidence.MaxBytes = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
