package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "stocker.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 12, cfg.Fetch.Quarters)
	assert.Equal(t, 4, cfg.Fetch.MaxConcurrency)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Contains(t, cfg.Edgar.UserAgent, "@", "user agent carries a contact address")
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	doc := `store:
  driver: postgres
  database_url: postgres://localhost/stocker
fetch:
  quarters: 8
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(doc), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/stocker", cfg.Store.DatabaseURL)
	assert.Equal(t, 8, cfg.Fetch.Quarters)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port, "unset keys keep defaults")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOCKER_FMP_KEY", "env-key")
	t.Setenv("STOCKER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.FMP.Key)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
