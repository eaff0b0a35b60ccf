package config

import (
	"errors"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "s")
}

func TestLoadDefaults(t *testing.T) {
	t.Cleanup(func() { loadDotEnv = func() error { return godotenv.Load() } })
	loadDotEnv = func() error { return errors.New("no .env") }
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, ":8080", cfg.Addr())
	require.Equal(t, 2, cfg.WorkerCount)
	require.Equal(t, 5*time.Minute, cfg.DashboardCacheTTL)
	require.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	require.False(t, cfg.PaymentEnabled())
	require.False(t, cfg.StorageEnabled())
	require.False(t, cfg.SMTPEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Cleanup(func() { loadDotEnv = func() error { return godotenv.Load() } })
	loadDotEnv = func() error { return nil }
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("WORKER_COUNT", "4")
	t.Setenv("MAX_UPLOAD_MB", "2")
	t.Setenv("DASHBOARD_CACHE_TTL", "90s")
	t.Setenv("PAYMENT_ACCESS_TOKEN", "tok")
	t.Setenv("B2_KEY_ID", "k")
	t.Setenv("B2_APP_KEY", "a")
	t.Setenv("B2_BUCKET", "b")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, 4, cfg.WorkerCount)
	require.Equal(t, int64(2<<20), cfg.MaxUploadBytes())
	require.Equal(t, 90*time.Second, cfg.DashboardCacheTTL)
	require.True(t, cfg.PaymentEnabled())
	require.True(t, cfg.StorageEnabled())
	require.True(t, cfg.SMTPEnabled())
}

func TestLoadMissingRequired(t *testing.T) {
	t.Cleanup(func() { loadDotEnv = func() error { return godotenv.Load() } })
	loadDotEnv = func() error { return nil }

	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.ErrorContains(t, err, "DATABASE_URL")

	setRequired(t)
	t.Setenv("REDIS_ADDR", "")
	_, err = Load()
	require.ErrorContains(t, err, "REDIS_ADDR")

	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	require.ErrorContains(t, err, "JWT_SECRET")

	setRequired(t)
	t.Setenv("WORKER_COUNT", "0")
	_, err = Load()
	require.ErrorContains(t, err, "WORKER_COUNT")
}
