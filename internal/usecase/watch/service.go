// Package watch re-screens a fixed watchlist and raises alerts for new
// adverse findings.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"riskscan/internal/domain/entity"
)

// Scanner runs one screening.
type Scanner interface {
	Scan(ctx context.Context, query string) (entity.ScanResult, error)
}

// Notifier delivers alerts.
type Notifier interface {
	NotifyAlert(ctx context.Context, alert entity.Alert) error
}

// Stats summarises one pass over the watchlist.
type Stats struct {
	Entities int
	Failed   int
	Adverse  int
	Alerted  int
}

// Service scans every watched entity in turn. Findings already alerted are
// remembered for the life of the process and never re-sent.
type Service struct {
	Scanner  Scanner
	Notifier Notifier
	Entities []string
	// MinScore is the lowest risk score that raises an alert.
	MinScore int

	// Now is overridable in tests.
	Now func() time.Time

	mu   sync.Mutex
	seen map[string]struct{}
}

// RunOnce screens each entity and sends an alert for every adverse cluster
// at or above MinScore that has not been alerted before. A failing entity
// does not stop the pass; its error is joined into the returned error.
func (s *Service) RunOnce(ctx context.Context) (Stats, error) {
	stats := Stats{Entities: len(s.Entities)}
	var errs []error

	for _, query := range s.Entities {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := s.Scanner.Scan(ctx, query)
		if err != nil {
			stats.Failed++
			errs = append(errs, fmt.Errorf("scan %q: %w", query, err))
			slog.Warn("watchlist scan failed",
				slog.String("query", query),
				slog.Any("error", err))
			continue
		}
		if result.Advisory != "" {
			slog.Warn("watchlist scan degraded",
				slog.String("query", query),
				slog.String("advisory", result.Advisory))
		}

		for _, c := range result.AdverseClusters() {
			stats.Adverse++
			alert := entity.Alert{Query: result.Query, Cluster: c, DetectedAt: s.now()}
			if !s.shouldAlert(alert) {
				continue
			}
			if err := s.Notifier.NotifyAlert(ctx, alert); err != nil {
				s.forget(alert.Key())
				errs = append(errs, fmt.Errorf("notify %q: %w", alert.Key(), err))
				continue
			}
			stats.Alerted++
		}
	}

	slog.Info("watchlist pass completed",
		slog.Int("entities", stats.Entities),
		slog.Int("failed", stats.Failed),
		slog.Int("adverse", stats.Adverse),
		slog.Int("alerted", stats.Alerted))
	return stats, errors.Join(errs...)
}

// shouldAlert applies the score threshold and marks the finding as seen.
func (s *Service) shouldAlert(a entity.Alert) bool {
	if a.Verdict().RiskScore < s.MinScore || a.Key() == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[a.Key()]; ok {
		return false
	}
	s.seen[a.Key()] = struct{}{}
	return true
}

func (s *Service) forget(key string) {
	s.mu.Lock()
	delete(s.seen, key)
	s.mu.Unlock()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
