package circuitbreaker

import (
	"context"
	"database/sql"
	"time"

	"github.com/sony/gobreaker"
)

// StoreConfig is used for the audit store.
func StoreConfig(driver string) Config {
	return Config{
		Name:             driver + "-audit-store",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// Store wraps a *sql.DB so that a dead audit database fails fast instead of
// holding every /action request for the full driver timeout.
type Store struct {
	cb *CircuitBreaker
	db *sql.DB
}

// NewStore wraps db with a breaker named after driver.
func NewStore(db *sql.DB, driver string) *Store {
	return &Store{cb: New(StoreConfig(driver)), db: db}
}

// ExecContext runs a statement through the breaker.
func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.db.ExecContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return res.(sql.Result), nil
}

// QueryContext runs a query through the breaker.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.db.QueryContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return res.(*sql.Rows), nil
}

// State returns the breaker state.
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

// DB returns the unwrapped handle, for migrations and health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}
