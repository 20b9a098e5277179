package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[server]
http_port = 9090

[database]
host = "db"
user = "booking"
password = "secret"
dbname = "mentor_booking"

[logs]
level = "debug"

[user_service]
url = "http://users:8080"

[scheduler]
interval = "30s"
timezone = "Asia/Jakarta"

[redis]
enabled = true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 15, cfg.Server.ReadTimeout)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.IntervalDuration())
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.LockTTLDuration())
	assert.Equal(t, "refund_requests", cfg.Redis.RefundQueue)
	assert.True(t, cfg.Migrations.Enabled)

	loc, err := cfg.Scheduler.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())

	assert.Equal(t,
		"host=db port=5432 user=booking password=secret dbname=mentor_booking sslmode=disable",
		cfg.Database.DSN())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, "warn", cfg.Logs.Level)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, `
[database]
host = "db"

[scheduler]
timezone = "Mars/Olympus"
interval = "-1m"
`))
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "database.dbname is required")
	assert.Contains(t, err.Error(), "user_service.url is required")
	assert.Contains(t, err.Error(), "scheduler.timezone")
	assert.Contains(t, err.Error(), "scheduler.interval")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
