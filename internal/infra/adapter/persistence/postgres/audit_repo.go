package postgres

import (
	"context"
	"fmt"

	"riskscan/internal/domain/entity"
	"riskscan/internal/repository"
	"riskscan/internal/resilience/circuitbreaker"
)

type AuditRepo struct{ store *circuitbreaker.Store }

func NewAuditRepo(store *circuitbreaker.Store) repository.AuditRepository {
	return &AuditRepo{store: store}
}

func (repo *AuditRepo) Append(ctx context.Context, record *entity.AuditRecord) error {
	const query = `
INSERT INTO audit_records (id, recorded_at, user_name, query, action, reason, article_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.store.ExecContext(ctx, query,
		record.ID,
		record.Timestamp.UTC(),
		record.User,
		record.Query,
		string(record.Action),
		record.Reason,
		record.ArticleURL,
	)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (repo *AuditRepo) List(ctx context.Context, limit int) ([]*entity.AuditRecord, error) {
	query := `
SELECT id, recorded_at, user_name, query, action, reason, article_url
FROM audit_records
ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += "\nLIMIT $1"
		args = append(args, limit)
	}

	rows, err := repo.store.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*entity.AuditRecord, 0, 32)
	for rows.Next() {
		var (
			rec    entity.AuditRecord
			action string
		)
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.User, &rec.Query, &action, &rec.Reason, &rec.ArticleURL); err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		rec.Timestamp = rec.Timestamp.UTC()
		rec.Action = entity.AuditAction(action)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return records, nil
}
