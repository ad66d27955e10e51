package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, []int{25, 50, 75, 100}, cfg.Quiz.PackageSizes)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
server:
  port: "9000"
bank:
  path: bank.csv
storage:
  driver: sqlite
  sqlite_path: /tmp/q.db
quiz:
  package_sizes: [10, 20]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))
	t.Setenv("QUIZ_BANK_PATH", "override.xlsx")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "override.xlsx", cfg.Bank.Path)
	assert.Equal(t, []int{10, 20}, cfg.Quiz.PackageSizes)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QUIZ_STORAGE_DIR=/data\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("QUIZ_STORAGE_DIR") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data", cfg.Storage.Dir)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "mongo"
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Storage.Driver = DriverPostgres
	assert.Error(t, Validate(cfg))

	cfg.Postgres.URL = "postgres://localhost/quiz"
	assert.NoError(t, Validate(cfg))

	cfg = Default()
	cfg.Quiz.PackageSizes = []int{25, 0}
	assert.Error(t, Validate(cfg))
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, TTLDuration("", 5*time.Minute))
	assert.Equal(t, time.Hour, TTLDuration("1h", 5*time.Minute))
	assert.Equal(t, 5*time.Minute, TTLDuration("soon", 5*time.Minute))
}
