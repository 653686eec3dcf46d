package scan

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"riskscan/internal/domain/entity"
	"riskscan/internal/observability/logging"
	"riskscan/internal/observability/metrics"
	"riskscan/internal/observability/tracing"
	"riskscan/internal/resilience/bounded"
)

const (
	defaultJudgeTimeout     = 6 * time.Second
	defaultJudgeParallelism = 5
	defaultMaxDocuments     = 12
)

// Classifier attaches a Verdict to each document.
type Classifier struct {
	// Judge is the judgment service. Nil switches to keyword heuristics.
	Judge Judge
	// Limiter paces judge calls across all scans in the process. Optional.
	Limiter      *rate.Limiter
	Parallelism  int
	Timeout      time.Duration
	MaxDocuments int
}

type classification struct {
	verdict entity.Verdict
	mode    string
}

// Cap returns at most MaxDocuments documents from the front of docs.
// Documents beyond the cap are dropped.
func (c *Classifier) Cap(docs []entity.Document) []entity.Document {
	limit := c.MaxDocuments
	if limit <= 0 {
		limit = defaultMaxDocuments
	}
	if len(docs) <= limit {
		return docs
	}
	return docs[:limit]
}

// Classify judges up to MaxDocuments documents concurrently and returns the
// relevant ones in input order. A judge failure on one document degrades
// that document only.
func (c *Classifier) Classify(ctx context.Context, docs []entity.Document, query string) []entity.ClassifiedDocument {
	ctx, span := tracing.StartStage(ctx, "classify")
	defer span.End()

	docs = c.Cap(docs)
	results := make([]classification, len(docs))

	var g errgroup.Group
	g.SetLimit(c.parallelism())
	for i, doc := range docs {
		g.Go(func() error {
			results[i] = c.classifyOne(ctx, doc, query)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]entity.ClassifiedDocument, 0, len(docs))
	degraded := 0
	for i, r := range results {
		metrics.RecordClassification(r.mode)
		if r.mode == metrics.ModeDegraded {
			degraded++
		}
		if !r.verdict.IsRelevant {
			continue
		}
		out = append(out, entity.ClassifiedDocument{Document: docs[i], Verdict: r.verdict})
	}

	span.SetAttributes(
		attribute.Int("documents", len(docs)),
		attribute.Int("relevant", len(out)),
		attribute.Int("degraded", degraded),
	)
	return out
}

func (c *Classifier) classifyOne(ctx context.Context, doc entity.Document, query string) classification {
	// Relevance is the judge's call; the entity gate only stands in for it
	// when no judge is configured.
	mentioned := mentionsEntity(doc, query)
	switch {
	case c.Judge == nil && !mentioned:
		return classification{verdict: offTopicVerdict(), mode: metrics.ModeOffTopic}
	case mentioned && isNoise(doc.Title):
		return classification{verdict: noiseVerdict(doc), mode: metrics.ModePrefilter}
	case c.Judge == nil:
		return classification{verdict: heuristicVerdict(doc), mode: metrics.ModeHeuristic}
	}

	return bounded.Call(ctx, c.timeout(), func(ctx context.Context) (classification, error) {
		v, err := c.judge(ctx, doc, query)
		if err != nil {
			return classification{}, err
		}
		return classification{verdict: v, mode: metrics.ModeJudge}, nil
	}, func(err error) classification {
		metrics.RecordProviderFailure(c.Judge.Name(), failureReason(err))
		logging.ForScan(ctx, query).Warn("classification degraded",
			slog.String("provider", c.Judge.Name()),
			slog.String("document", doc.ID),
			slog.Any("error", err))
		return classification{verdict: degradedVerdict(doc), mode: metrics.ModeDegraded}
	})
}

func (c *Classifier) judge(ctx context.Context, doc entity.Document, query string) (entity.Verdict, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return entity.Verdict{}, err
		}
	}

	start := time.Now()
	raw, err := c.Judge.Judge(ctx, classifyPrompt(doc, query))
	metrics.RecordJudgeCall(c.Judge.Name(), time.Since(start))
	if err != nil {
		return entity.Verdict{}, err
	}

	v, err := parseVerdict(raw)
	if err != nil {
		return entity.Verdict{}, err
	}
	if v.ClusterTag == "" {
		v.ClusterTag = doc.Title
	}
	return v, nil
}

func (c *Classifier) parallelism() int {
	if c.Parallelism <= 0 {
		return defaultJudgeParallelism
	}
	return c.Parallelism
}

func (c *Classifier) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultJudgeTimeout
	}
	return c.Timeout
}
