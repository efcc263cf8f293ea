package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) envLookup {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func tokenEnv() map[string]string {
	return map[string]string{
		"ACCESS_TOKEN_SECRET":       "access-secret",
		"REFRESH_TOKEN_SECRET":      "refresh-secret",
		"ACCESS_TOKEN_EXPIRE_TIME":  "15m",
		"REFRESH_TOKEN_EXPIRE_TIME": "7d",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(mapLookup(tokenEnv()))
	require.NoError(t, err)

	assert.Equal(t, defaultServerPort, cfg.ServerPort)
	assert.Equal(t, defaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, defaultMySQLDSN, cfg.Database.DSN)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, defaultCacheTTL, cfg.Redis.TTL)

	assert.Equal(t, "access-secret", cfg.Token.AccessSecret)
	assert.Equal(t, "refresh-secret", cfg.Token.RefreshSecret)
	assert.Equal(t, 15*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Token.RefreshTTL)
}

func TestLoadOverrides(t *testing.T) {
	env := tokenEnv()
	env["SERVER_PORT"] = "9000"
	env["DB_DRIVER"] = "SQLite"
	env["DATABASE_DSN"] = "file:test.db"
	env["REDIS_ADDR"] = "redis:6379"
	env["REDIS_DB"] = "2"
	env["CUSTOMER_CACHE_TTL"] = "30s"
	env["LOG_LEVEL"] = "debug"
	env["SHUTDOWN_TIMEOUT"] = "3s"

	cfg, err := load(mapLookup(env))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, DatabaseConfig{Driver: DriverSQLite, DSN: "file:test.db"}, cfg.Database)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFailsFastOnMissingTokenSettings(t *testing.T) {
	for _, key := range []string{
		"ACCESS_TOKEN_SECRET",
		"REFRESH_TOKEN_SECRET",
		"ACCESS_TOKEN_EXPIRE_TIME",
		"REFRESH_TOKEN_EXPIRE_TIME",
	} {
		t.Run(key, func(t *testing.T) {
			env := tokenEnv()
			delete(env, key)

			cfg, err := load(mapLookup(env))
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad access expiry", "ACCESS_TOKEN_EXPIRE_TIME", "soon"},
		{"negative refresh expiry", "REFRESH_TOKEN_EXPIRE_TIME", "-5m"},
		{"unknown driver", "DB_DRIVER", "oracle"},
		{"bad log level", "LOG_LEVEL", "loud"},
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tokenEnv()
			env[tt.key] = tt.val

			_, err := load(mapLookup(env))
			assert.Error(t, err)
		})
	}
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "15m", want: 15 * time.Minute},
		{in: "60s", want: time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "900", want: 900 * time.Second},
		{in: "", wantErr: true},
		{in: "0", wantErr: true},
		{in: "xd", wantErr: true},
		{in: "fifteen", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpiry(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDatabaseDefaultsSQLiteDSN(t *testing.T) {
	cfg, err := loadDatabase(mapLookup(map[string]string{"DB_DRIVER": "sqlite"}))
	require.NoError(t, err)
	assert.Equal(t, defaultSQLiteDSN, cfg.DSN)
}

func TestLoadRedisWithoutTokenSettings(t *testing.T) {
	cfg, err := loadRedis(mapLookup(map[string]string{"REDIS_ADDR": "redis:6379", "CUSTOMER_CACHE_TTL": "1m"}))
	require.NoError(t, err)
	assert.Equal(t, RedisConfig{Addr: "redis:6379", TTL: time.Minute}, cfg)

	_, err = loadRedis(mapLookup(map[string]string{"CUSTOMER_CACHE_TTL": "soon"}))
	assert.Error(t, err)
}
