// Package db opens and migrates the SQL audit store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"riskscan/pkg/config"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const pingTimeout = 5 * time.Second

// Pool sizes the connection pool of the audit store.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// PoolFor returns the pool used for driver. Postgres reads DB_MAX_OPEN_CONNS,
// DB_MAX_IDLE_CONNS, DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME; values
// that are not positive keep the default. SQLite always gets a single
// connection so appends never contend for the database lock.
func PoolFor(driver string) Pool {
	p := Pool{MaxOpen: 25, MaxIdle: 10, MaxLifetime: time.Hour, MaxIdleTime: 30 * time.Minute}
	if driver == DriverSQLite {
		p.MaxOpen, p.MaxIdle = 1, 1
		return p
	}
	p.MaxOpen = positiveInt("DB_MAX_OPEN_CONNS", p.MaxOpen)
	p.MaxIdle = positiveInt("DB_MAX_IDLE_CONNS", p.MaxIdle)
	p.MaxLifetime = positiveDuration("DB_CONN_MAX_LIFETIME", p.MaxLifetime)
	p.MaxIdleTime = positiveDuration("DB_CONN_MAX_IDLE_TIME", p.MaxIdleTime)
	return p
}

func (p Pool) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
	db.SetConnMaxIdleTime(p.MaxIdleTime)
}

// Open connects to the audit database and verifies it with a ping.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s: empty data source name", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	pool := PoolFor(driver)
	pool.apply(db)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	slog.Info("audit database connected",
		slog.String("driver", driver),
		slog.Int("max_open_conns", pool.MaxOpen),
		slog.Int("max_idle_conns", pool.MaxIdle),
		slog.Duration("conn_max_lifetime", pool.MaxLifetime))
	return db, nil
}

func positiveInt(key string, def int) int {
	if v := config.GetEnvInt(key, def); v > 0 {
		return v
	}
	return def
}

func positiveDuration(key string, def time.Duration) time.Duration {
	if v := config.GetEnvDuration(key, def); v > 0 {
		return v
	}
	return def
}
