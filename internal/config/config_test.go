package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-strategist/internal/errors"
)

func TestLoad_CreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, 30.0, cfg.Model.TimeToExpiryDays)
	assert.Equal(t, 5.0, cfg.Model.RiskFreeRatePercent)
	assert.Equal(t, 20.0, cfg.Model.VolatilityPercent)
	assert.Equal(t, 100.0, cfg.Market.UnderlyingPrice)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, filepath.Join(dir, "strategies.db"), cfg.DBPath())

	// The template parses to the same values.
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Model, again.Model)
	assert.Equal(t, cfg.Server, again.Server)
	assert.Equal(t, cfg.UI, again.UI)
}

func TestLoad_FileValues(t *testing.T) {
	dir := t.TempDir()
	content := `
[model]
time_to_expiry_days = 7
volatility_percent = 55.5

[server]
port = 9090

[store]
path = "/tmp/elsewhere.db"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.Model.TimeToExpiryDays)
	assert.Equal(t, 55.5, cfg.Model.VolatilityPercent)
	assert.Equal(t, 5.0, cfg.Model.RiskFreeRatePercent)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/elsewhere.db", cfg.DBPath())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STRATEGIST_PORT", "7070")
	t.Setenv("STRATEGIST_VOLATILITY", "33")
	t.Setenv("STRATEGIST_LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 33.0, cfg.Model.VolatilityPercent)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[model]\nvolatility_percent = -1\n"), 0644))

	_, err := Load(dir)
	assert.True(t, errors.Is(err, errors.ErrConfigInvalid))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.UI.Decimals = 12
	assert.Error(t, cfg.Validate())
}

func TestAddrAndLogPath(t *testing.T) {
	cfg := Default()
	cfg.Dir = "/etc/strategist"
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "/etc/strategist/logs/strategist.log", cfg.LogPath())
}
