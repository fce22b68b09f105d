package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = DriverMemory
	cfg.Server.Addr = "127.0.0.1:9000"
	cfg.Ledger.Currency = "USD"
	cfg.Ledger.Retry.MaxElapsed = 5 * time.Second

	path := filepath.Join(t.TempDir(), "partida.yaml")
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, got.Database.Driver)
	assert.Equal(t, cfg.Database.DSN, got.Database.DSN)
	assert.Equal(t, cfg.Database.ConnMaxLifetime, got.Database.ConnMaxLifetime)
	assert.Equal(t, "127.0.0.1:9000", got.Server.Addr)
	assert.Equal(t, "USD", got.Ledger.Currency)
	assert.Equal(t, 5*time.Second, got.Ledger.Retry.MaxElapsed)
	assert.Equal(t, cfg.Ledger.Retry.InitialInterval, got.Ledger.Retry.InitialInterval)
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "ar_basico", cfg.Ledger.ChartTemplate)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partida.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7000\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 2*time.Second, cfg.Ledger.Retry.MaxElapsed)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PARTIDA_DATABASE_DRIVER", "memory")
	t.Setenv("PARTIDA_LEDGER_CURRENCY", "EUR")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "EUR", cfg.Ledger.Currency)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partida.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: sqlite\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown database.driver")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
