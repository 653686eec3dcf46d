// Package audit records analyst decisions on screening findings.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"riskscan/internal/domain/entity"
	"riskscan/internal/observability/logging"
	"riskscan/internal/observability/metrics"
	"riskscan/internal/repository"
)

// DefaultUser is recorded when a decision arrives without a user.
const DefaultUser = "analyst"

// DefaultHistoryLimit applies when History is called without a positive limit.
const DefaultHistoryLimit = 100

// RecordInput is an analyst decision as received from a client.
type RecordInput struct {
	ArticleURL string
	Action     string
	Reason     string
	User       string
	Query      string
}

// Service validates decisions and hands them to the append-only store.
type Service struct {
	Repo repository.AuditRepository

	// Now is overridable in tests.
	Now func() time.Time
}

// Record validates in, completes it with an ID and timestamp, and appends it.
// Invalid input is returned as an *entity.ValidationError.
func (s *Service) Record(ctx context.Context, in RecordInput) (*entity.AuditRecord, error) {
	action, err := entity.ParseAuditAction(in.Action)
	if err != nil {
		return nil, err
	}
	user := strings.TrimSpace(in.User)
	if user == "" {
		user = DefaultUser
	}

	rec := &entity.AuditRecord{
		ID:         uuid.NewString(),
		Timestamp:  s.now().UTC(),
		User:       user,
		Query:      entity.NormalizeQuery(in.Query),
		Action:     action,
		Reason:     strings.TrimSpace(in.Reason),
		ArticleURL: strings.TrimSpace(in.ArticleURL),
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append audit record: %w", err)
	}
	metrics.RecordAuditRecord(string(rec.Action))
	logging.FromContext(ctx).Info("audit record appended",
		slog.String("id", rec.ID),
		slog.String("action", string(rec.Action)),
		slog.String("query", rec.Query),
		slog.String("user", rec.User))
	return rec, nil
}

// History returns up to limit records, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*entity.AuditRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	records, err := s.Repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	return records, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
