package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
mode: dev
database:
  host: localhost
  port: 3306
  user: libris
  password: secret
  dbname: libris
auth:
  jwt_secret: test-secret
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DefaultBorrowPeriodDays, cfg.Library.BorrowPeriodDays)
	assert.Equal(t, DefaultFinePerDay, cfg.Library.FinePerDay)
	assert.Equal(t, "libris", cfg.DB.DBName)
}

func TestLoadConfig_ExplicitPolicy(t *testing.T) {
	path := writeConfig(t, `
mode: release
server:
  addr: ":9090"
library:
  borrow_period_days: 7
  fine_per_day: 10.5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 7, cfg.Library.BorrowPeriodDays)
	assert.Equal(t, 10.5, cfg.Library.FinePerDay)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
