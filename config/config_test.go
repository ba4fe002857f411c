package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-social-network/config"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestNormalize_FillsDefaults(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Port: "9000", LogFormat: "xml"}
	cfg.Normalize()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "text", cfg.LogFormat, "unknown formats fall back to text")
	assert.Equal(t, config.DefaultConfig().DBPath, cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.NotEmpty(t, cfg.AllowedOrigins)
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
db_path: /tmp/events.db
log_level: debug
log_format: json
timezone: Europe/Paris
allowed_origins:
  - https://events.example
archive_schedule: "*/5 * * * *"
session_ttl: 2h
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/events.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"https://events.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "*/5 * * * *", cfg.ArchiveSchedule)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Port)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	err := cfg.ApplyEnv(env(map[string]string{
		"PORT":            "7000",
		"DB_PATH":         "file:test.db",
		"LOG_LEVEL":       "warn",
		"TIMEZONE":        "Asia/Seoul",
		"ALLOWED_ORIGINS": "https://a.example, https://b.example,",
		"SESSION_TTL":     "30m",
		"LOG_FORMAT":      "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "file:test.db", cfg.DBPath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "text", cfg.LogFormat, "empty values do not override")

	err = cfg.ApplyEnv(env(map[string]string{"SESSION_TTL": "soon"}))
	assert.Error(t, err)
}

func TestLocation_Invalid(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	_, err := cfg.Location()
	assert.Error(t, err)
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	t.Parallel()

	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
