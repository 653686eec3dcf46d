// Package memory keeps the audit log in process memory. It is the default
// store and the one used by tests; records are lost on restart.
package memory

import (
	"context"
	"sync"

	"riskscan/internal/domain/entity"
	"riskscan/internal/repository"
)

type AuditRepo struct {
	mu      sync.RWMutex
	records []entity.AuditRecord
}

func NewAuditRepo() repository.AuditRepository {
	return &AuditRepo{}
}

func (repo *AuditRepo) Append(ctx context.Context, record *entity.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	repo.mu.Lock()
	repo.records = append(repo.records, *record)
	repo.mu.Unlock()
	return nil
}

func (repo *AuditRepo) List(ctx context.Context, limit int) ([]*entity.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	n := len(repo.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*entity.AuditRecord, 0, n)
	for i := len(repo.records) - 1; i >= 0 && len(out) < n; i-- {
		rec := repo.records[i]
		out = append(out, &rec)
	}
	return out, nil
}
