// Package database provides connection setup for MariaDB and Redis.
// Both connections are created once at startup and shared across the
// application via dependency injection. This package owns the connection
// lifecycle (open, configure pool, ping, close).
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// MariaDB driver -- imported for side effect of registering the driver.
	_ "github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/bookworm/internal/config"
)

// pingAttempts is how many times a backing service is pinged at startup.
// Docker Compose cold-starts routinely bring the app up before MariaDB.
const pingAttempts = 10

// NewMariaDB creates a new MariaDB connection pool configured with the
// settings from the provided config. It pings the database to verify
// connectivity before returning.
func NewMariaDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithBackoff("mariadb", pingAttempts, time.Second, db.PingContext); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// pingWithBackoff calls ping until it succeeds, doubling the wait between
// attempts up to 30s.
func pingWithBackoff(name string, attempts int, backoff time.Duration, ping func(context.Context) error) error {
	var pingErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = ping(ctx)
		cancel()

		if pingErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		slog.Warn(name+" not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", backoff),
			slog.Any("error", pingErr),
		)
		time.Sleep(backoff)
		backoff = min(backoff*2, 30*time.Second)
	}
	return fmt.Errorf("pinging %s after %d attempts: %w", name, attempts, pingErr)
}
