package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"riskscan/internal/domain/entity"
	"riskscan/internal/observability/logging"
	"riskscan/internal/repository"
	"riskscan/internal/usecase/scan"
)

// confirmedScanWindow bounds how many recent records are searched for prior
// decisions on a query.
const confirmedScanWindow = 500

// ConfirmedHistory turns earlier Confirm decisions on the same entity into
// historical context for the brief.
type ConfirmedHistory struct {
	Repo repository.AuditRepository
	// Max is the number of decisions rendered. Zero means 5.
	Max int
}

// History implements scan.HistoryProvider.
func (h *ConfirmedHistory) History(ctx context.Context, query string) (string, error) {
	records, err := h.Repo.List(ctx, confirmedScanWindow)
	if err != nil {
		return "", fmt.Errorf("audit history: %w", err)
	}
	q := strings.ToLower(entity.NormalizeQuery(query))
	limit := h.Max
	if limit <= 0 {
		limit = 5
	}

	var lines []string
	for _, r := range records {
		if r.Action != entity.AuditActionConfirm || strings.ToLower(r.Query) != q {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s Analyst confirmed %s: %s",
			r.Timestamp.Format("2006-01-02"), r.ArticleURL, r.Reason))
		if len(lines) == limit {
			break
		}
	}
	return strings.Join(lines, "\n"), nil
}

// HistoryChain concatenates the context of several providers. A failing
// provider is skipped; the chain fails only when every provider failed.
type HistoryChain []scan.HistoryProvider

// History implements scan.HistoryProvider.
func (c HistoryChain) History(ctx context.Context, query string) (string, error) {
	var (
		parts []string
		errs  []error
	)
	for _, p := range c {
		text, err := p.History(ctx, query)
		if err != nil {
			logging.FromContext(ctx).Warn("history provider failed",
				slog.String("query", query),
				slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(c) > 0 && len(errs) == len(c) {
		return "", errors.Join(errs...)
	}
	return strings.Join(parts, "\n"), nil
}
