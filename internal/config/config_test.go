package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")

	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.DBDSN)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
	assert.EqualValues(t, 5, cfg.BreakerFailures)
	assert.Nil(t, cfg.CORSAllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DSN", "file:bio.db")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://me.example, ,https://www.me.example")
	t.Setenv("INGEST_RATE_RPS", "0.5")
	t.Setenv("REPORT_TIMEOUT", "2s")

	cfg := Load()
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "file:bio.db", cfg.DBDSN)
	assert.False(t, cfg.AutoMigrate)
	assert.True(t, cfg.Production())
	assert.Equal(t, []string{"https://me.example", "https://www.me.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 0.5, cfg.IngestRateRPS)
	assert.Equal(t, 2*time.Second, cfg.ReportTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("WRITE_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.AppEnv = "staging"
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.LoginRateWindow = time.Millisecond
	assert.Error(t, cfg.Validate())
}
