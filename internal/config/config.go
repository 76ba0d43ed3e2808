// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and OAuth callbacks.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds authentication-related settings.
	Auth AuthConfig

	// Google holds OAuth2 client credentials for federated sign-in.
	Google GoogleConfig

	// UsersAPI holds settings for the reader profile upsert endpoint.
	UsersAPI UsersAPIConfig

	// CORSAllowedOrigins lists extra origins allowed to call /api. BaseURL
	// is always allowed.
	CORSAllowedOrigins []string
}

// DatabaseConfig holds MariaDB connection parameters. If DATABASE_URL is
// set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	Host string

	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsPath is the directory holding *.up.sql / *.down.sql files.
	MigrationsPath string
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built with the driver's
// Config.FormatDSN() to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// SessionTTL is how long sessions last before expiring.
	SessionTTL time.Duration

	// ResolveTimeout bounds how long the route guard waits for session
	// resolution before rendering the loading page.
	ResolveTimeout time.Duration

	// LoginLockTTL is the upper bound on how long one login form submission
	// holds its in-flight lock.
	LoginLockTTL time.Duration
}

// GoogleConfig holds the OAuth2 client for "Sign in with Google".
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether federated sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// UsersAPIConfig configures the reader profile backend and its client.
type UsersAPIConfig struct {
	// URL is the upsert endpoint the sign-in flow posts profiles to.
	URL string

	// Key is the shared secret sent in X-API-Key. Empty disables the check.
	Key string

	// Timeout bounds a single upsert call.
	Timeout time.Duration
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/")

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  baseURL,
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "bookworm"),
			Password:        getEnv("DB_PASSWORD", "bookworm"),
			Name:            getEnv("DB_NAME", "bookworm"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "db/migrations"),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SessionTTL:     getEnvDuration("SESSION_TTL", 720*time.Hour),
			ResolveTimeout: getEnvDuration("AUTH_RESOLVE_TIMEOUT", 3*time.Second),
			LoginLockTTL:   getEnvDuration("LOGIN_LOCK_TTL", 30*time.Second),
		},

		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},

		UsersAPI: UsersAPIConfig{
			URL:     getEnv("USERS_API_URL", baseURL+"/api/v1/users"),
			Key:     getEnv("USERS_API_KEY", ""),
			Timeout: getEnvDuration("USERS_API_TIMEOUT", 5*time.Second),
		},

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
	}

	// Case-insensitive check catches common variants like "Production", "prod".
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.UsersAPI.Key == "" {
			return nil, fmt.Errorf("USERS_API_KEY is required in production")
		}
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
