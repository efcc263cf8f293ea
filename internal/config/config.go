package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort      string
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
	SwaggerHost     string

	Database DatabaseConfig
	Redis    RedisConfig
	Token    TokenConfig
}

// DatabaseConfig selects the GORM dialector and its DSN.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// RedisConfig configures the customer info cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// TokenConfig carries the signing secrets and lifetimes of access and refresh tokens.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	defaultServerPort      = "8080"
	defaultShutdownTimeout = 10 * time.Second
	defaultCacheTTL        = 5 * time.Minute
	defaultMySQLDSN        = "user:password@tcp(localhost:3306)/customers?charset=utf8mb4&parseTime=True&loc=Local"
	defaultSQLiteDSN       = "customers.db"
)

type envLookup func(string) (string, bool)

// Load reads an optional .env file and builds Config from the environment.
// Missing token settings are reported here so the process never starts half configured.
func Load() (*Config, error) {
	loadDotEnv()
	return load(os.LookupEnv)
}

// LoadDatabase reads only the database settings, for tools that never sign tokens.
func LoadDatabase() (DatabaseConfig, error) {
	loadDotEnv()
	return loadDatabase(os.LookupEnv)
}

// LoadRedis reads only the cache settings.
func LoadRedis() (RedisConfig, error) {
	loadDotEnv()
	return loadRedis(os.LookupEnv)
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn(".env not loaded", slog.String("error", err.Error()))
	}
}

func load(lookup envLookup) (*Config, error) {
	db, err := loadDatabase(lookup)
	if err != nil {
		return nil, err
	}

	token, err := loadToken(lookup)
	if err != nil {
		return nil, err
	}

	level, err := parseLevel(getString(lookup, "LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	shutdown, err := getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if err != nil {
		return nil, err
	}

	redisCfg, err := loadRedis(lookup)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:      getString(lookup, "SERVER_PORT", defaultServerPort),
		ShutdownTimeout: shutdown,
		LogLevel:        level,
		SwaggerHost:     getString(lookup, "SWAGGER_HOST", ""),
		Database:        db,
		Redis:           redisCfg,
		Token:           token,
	}, nil
}

func loadDatabase(lookup envLookup) (DatabaseConfig, error) {
	driver := strings.ToLower(getString(lookup, "DB_DRIVER", DriverMySQL))

	var dsn string
	switch driver {
	case DriverMySQL:
		dsn = getString(lookup, "MYSQL_DSN", getString(lookup, "DATABASE_DSN", defaultMySQLDSN))
	case DriverSQLite:
		dsn = getString(lookup, "DATABASE_DSN", defaultSQLiteDSN)
	default:
		return DatabaseConfig{}, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	return DatabaseConfig{Driver: driver, DSN: dsn}, nil
}

func loadRedis(lookup envLookup) (RedisConfig, error) {
	ttl, err := getDuration(lookup, "CUSTOMER_CACHE_TTL", defaultCacheTTL)
	if err != nil {
		return RedisConfig{}, err
	}
	return RedisConfig{
		Addr:     getString(lookup, "REDIS_ADDR", ""),
		Password: getString(lookup, "REDIS_PASSWORD", ""),
		DB:       getInt(lookup, "REDIS_DB", 0),
		TTL:      ttl,
	}, nil
}

func loadToken(lookup envLookup) (TokenConfig, error) {
	var missing []string
	require := func(key string) string {
		v := getString(lookup, key, "")
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := TokenConfig{
		AccessSecret:  require("ACCESS_TOKEN_SECRET"),
		RefreshSecret: require("REFRESH_TOKEN_SECRET"),
	}
	accessExpiry := require("ACCESS_TOKEN_EXPIRE_TIME")
	refreshExpiry := require("REFRESH_TOKEN_EXPIRE_TIME")

	if len(missing) > 0 {
		return TokenConfig{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.AccessTTL, err = ParseExpiry(accessExpiry); err != nil {
		return TokenConfig{}, fmt.Errorf("ACCESS_TOKEN_EXPIRE_TIME: %w", err)
	}
	if cfg.RefreshTTL, err = ParseExpiry(refreshExpiry); err != nil {
		return TokenConfig{}, fmt.Errorf("REFRESH_TOKEN_EXPIRE_TIME: %w", err)
	}

	return cfg, nil
}

// ParseExpiry parses a token lifetime. It accepts Go durations ("15m", "1h30m"),
// a day suffix ("7d") and bare integers, which are seconds.
func ParseExpiry(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty expiry")
	}

	var d time.Duration
	if n, err := strconv.Atoi(value); err == nil {
		d = time.Duration(n) * time.Second
	} else if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid expiry %q", value)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		d, err = time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid expiry %q", value)
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("expiry must be positive, got %q", value)
	}
	return d, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", value)
	}
	return level, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) (time.Duration, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
