package sqlite

import (
	"context"
	"fmt"
	"time"

	"riskscan/internal/domain/entity"
	"riskscan/internal/repository"
	"riskscan/internal/resilience/circuitbreaker"
)

// Timestamps are stored as RFC 3339 text so ordering and parsing do not
// depend on driver time handling.
const timeLayout = time.RFC3339Nano

type AuditRepo struct{ store *circuitbreaker.Store }

func NewAuditRepo(store *circuitbreaker.Store) repository.AuditRepository {
	return &AuditRepo{store: store}
}

func (repo *AuditRepo) Append(ctx context.Context, record *entity.AuditRecord) error {
	const query = `
INSERT INTO audit_records (id, recorded_at, user_name, query, action, reason, article_url)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := repo.store.ExecContext(ctx, query,
		record.ID,
		record.Timestamp.UTC().Format(timeLayout),
		record.User,
		record.Query,
		string(record.Action),
		record.Reason,
		record.ArticleURL,
	)
	if err != nil {
		return fmt.Errorf("Append: ExecContext: %w", err)
	}
	return nil
}

func (repo *AuditRepo) List(ctx context.Context, limit int) ([]*entity.AuditRecord, error) {
	const query = `
SELECT id, recorded_at, user_name, query, action, reason, article_url
FROM audit_records
ORDER BY seq DESC
LIMIT ?`
	// SQLite treats a negative LIMIT as no limit.
	if limit <= 0 {
		limit = -1
	}
	rows, err := repo.store.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("List: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*entity.AuditRecord, 0, 32)
	for rows.Next() {
		var (
			rec        entity.AuditRecord
			recordedAt string
			action     string
		)
		if err := rows.Scan(&rec.ID, &recordedAt, &rec.User, &rec.Query, &action, &rec.Reason, &rec.ArticleURL); err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		ts, err := time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("List: parse recorded_at %q: %w", recordedAt, err)
		}
		rec.Timestamp = ts.UTC()
		rec.Action = entity.AuditAction(action)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows.Err: %w", err)
	}
	return records, nil
}
