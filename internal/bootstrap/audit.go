// Package bootstrap assembles the screening pipeline and the audit store from
// configuration. It is shared by the API server, the watchlist worker and
// the CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker"

	"riskscan/internal/config"
	"riskscan/internal/infra/adapter/persistence/memory"
	"riskscan/internal/infra/adapter/persistence/postgres"
	"riskscan/internal/infra/adapter/persistence/sqlite"
	"riskscan/internal/infra/auditlog"
	"riskscan/internal/infra/db"
	"riskscan/internal/repository"
	"riskscan/internal/resilience/circuitbreaker"
)

// Breaker names a circuit breaker for health reporting.
type Breaker struct {
	Name  string
	State func() gobreaker.State
}

// AuditStore is the opened audit sink.
type AuditStore struct {
	Repo repository.AuditRepository
	// DB is nil for the in-memory store.
	DB      *sql.DB
	Breaker *Breaker

	closers []func() error
}

// Close releases the Kafka writer and the database pool.
func (s *AuditStore) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenAudit opens the configured store, migrating SQL schemas, and mirrors
// appends to Kafka when brokers are set.
func OpenAudit(ctx context.Context, cfg config.AuditConfig, logger *slog.Logger) (*AuditStore, error) {
	s := &AuditStore{}

	switch cfg.Store {
	case config.AuditSQLite, config.AuditPostgres:
		driver, dsn := db.DriverSQLite, cfg.SQLitePath
		if cfg.Store == config.AuditPostgres {
			driver, dsn = db.DriverPostgres, cfg.DatabaseURL
		}
		conn, err := db.Open(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, conn.Close)
		if err := db.MigrateUp(ctx, conn, driver); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate audit schema: %w", err)
		}
		store := circuitbreaker.NewStore(conn, driver)
		if driver == db.DriverPostgres {
			s.Repo = postgres.NewAuditRepo(store)
		} else {
			s.Repo = sqlite.NewAuditRepo(store)
		}
		s.DB = conn
		s.Breaker = &Breaker{Name: "audit_store", State: store.State}
	default:
		s.Repo = memory.NewAuditRepo()
	}
	logger.Info("audit store opened", slog.String("store", cfg.Store))

	if len(cfg.KafkaBrokers) > 0 {
		w := auditlog.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		s.closers = append(s.closers, w.Close)
		s.Repo = auditlog.NewKafkaPublisher(s.Repo, w)
		logger.Info("audit records mirrored to kafka",
			slog.String("topic", cfg.KafkaTopic),
			slog.Int("brokers", len(cfg.KafkaBrokers)))
	}
	return s, nil
}
