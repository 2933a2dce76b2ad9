package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "UNIT_PRICE", "VOLUME_DIVISOR", "SESSION_TTL", "YIELD_EVERY"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, 8082, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 100.0, cfg.UnitPrice)
	assert.Equal(t, 100.0, cfg.VolumeDivisor)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 50, cfg.YieldEvery)
	assert.Equal(t, "127.0.0.1:8082", cfg.Addr())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("UNIT_PRICE", "120.5")
	t.Setenv("VOLUME_DIVISOR", "-3")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("YIELD_EVERY", "0")
	t.Setenv("ALLOW_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 120.5, cfg.UnitPrice)
	assert.Equal(t, 100.0, cfg.VolumeDivisor)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 50, cfg.YieldEvery)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowOrigins)
}

func TestSetupLogger_WritesFile(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	path := filepath.Join(t.TempDir(), "logs", "recon.log")
	logger := SetupLogger(Config{LogLevel: "warn", LogFormat: "json", LogFile: path})
	logger.Info().Msg("hidden")
	logger.Warn().Str("k", "v").Msg("shown")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hidden")
	assert.Contains(t, string(b), `"message":"shown"`)
	assert.Contains(t, string(b), `"service":"cargo-recon"`)
}
