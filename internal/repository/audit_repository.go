// Package repository declares the storage abstractions used by the use case layer.
package repository

import (
	"context"

	"riskscan/internal/domain/entity"
)

// AuditRepository is the append-only sink for analyst decisions.
// Implementations must be safe for concurrent use; appends are the only mutation.
type AuditRepository interface {
	// Append stores a record. Records are never updated or deleted.
	Append(ctx context.Context, record *entity.AuditRecord) error
	// List returns up to limit records, most recent first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*entity.AuditRecord, error)
}
