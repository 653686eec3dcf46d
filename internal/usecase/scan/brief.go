package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"riskscan/internal/domain/entity"
	"riskscan/internal/observability/logging"
	"riskscan/internal/observability/metrics"
	"riskscan/internal/observability/tracing"
	"riskscan/internal/resilience/bounded"
)

const (
	defaultBriefTimeout = 8 * time.Second
	defaultBriefTopN    = 5
)

// BriefGenerator writes the executive summary of a scan.
type BriefGenerator struct {
	// Judge writes the narrative. Nil means the template is always used.
	Judge   Judge
	Timeout time.Duration
	TopN    int
}

// NoDataBrief is returned when retrieval found nothing for the query.
func NoDataBrief(query string) string {
	return fmt.Sprintf("No data found for %s in the trusted sources searched.", query)
}

// NoFindingsBrief is returned when nothing adverse is known about the query.
func NoFindingsBrief(query string) string {
	return fmt.Sprintf("No significant adverse media found for %s.", query)
}

// FallbackBrief is the deterministic narrative used when the judge cannot
// write one.
func FallbackBrief(query string, adverse int) string {
	return fmt.Sprintf("Screening of %s identified %d adverse finding(s) requiring analyst review.", query, adverse)
}

// Brief returns a narrative for clusters. It never fails and never outlives
// its timeout.
func (b *BriefGenerator) Brief(ctx context.Context, clusters []entity.Cluster, query, history string) string {
	ctx, span := tracing.StartStage(ctx, "brief")
	defer span.End()

	findings := topAdverse(clusters, b.topN())
	if len(findings) == 0 && strings.TrimSpace(history) == "" {
		return NoFindingsBrief(query)
	}

	fallback := FallbackBrief(query, countAdverse(clusters))
	if b.Judge == nil {
		return fallback
	}

	return bounded.Call(ctx, b.timeout(), func(ctx context.Context) (string, error) {
		start := time.Now()
		text, err := b.Judge.Judge(ctx, briefPrompt(query, findings, history))
		metrics.RecordJudgeCall(b.Judge.Name(), time.Since(start))
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", fmt.Errorf("%w: empty brief", ErrParse)
		}
		return text, nil
	}, func(err error) string {
		metrics.RecordProviderFailure(b.Judge.Name(), failureReason(err))
		logging.ForScan(ctx, query).Warn("brief generation degraded",
			slog.String("provider", b.Judge.Name()),
			slog.Any("error", err))
		return fallback
	})
}

// topAdverse returns up to n adverse clusters, highest score first. Ties keep
// cluster order.
func topAdverse(clusters []entity.Cluster, n int) []entity.Cluster {
	var adverse []entity.Cluster
	for _, c := range clusters {
		if c.IsAdverse() {
			adverse = append(adverse, c)
		}
	}
	sort.SliceStable(adverse, func(i, j int) bool {
		return adverse[i].Representative.Verdict.RiskScore > adverse[j].Representative.Verdict.RiskScore
	})
	if len(adverse) > n {
		adverse = adverse[:n]
	}
	return adverse
}

func countAdverse(clusters []entity.Cluster) int {
	n := 0
	for _, c := range clusters {
		if c.IsAdverse() {
			n++
		}
	}
	return n
}

func (b *BriefGenerator) topN() int {
	if b.TopN <= 0 {
		return defaultBriefTopN
	}
	return b.TopN
}

func (b *BriefGenerator) timeout() time.Duration {
	if b.Timeout <= 0 {
		return defaultBriefTimeout
	}
	return b.Timeout
}
