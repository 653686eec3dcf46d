package scan

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"riskscan/internal/domain/entity"
	"riskscan/internal/observability/logging"
	"riskscan/internal/observability/metrics"
	"riskscan/internal/observability/tracing"
	"riskscan/internal/resilience/bounded"
)

const (
	defaultLookupTimeout = 3 * time.Second
	defaultMaxSignals    = 6
	defaultEnrichMinBody = 400
	enrichParallelism    = 4

	// AdvisoryManualReview is set when at least one document could not be analysed.
	AdvisoryManualReview = "Some articles could not be analysed automatically and are marked for manual review."
	// AdvisoryFailure is set when the scan failed internally and returned an empty result.
	AdvisoryFailure = "Screening could not be completed. Results may be incomplete; please retry or review manually."
)

// Service runs a screening scan. Fetcher, Classifier and Briefs are required.
type Service struct {
	Fetcher    *Fetcher
	Classifier *Classifier
	Briefs     *BriefGenerator

	// Optional lookups run alongside retrieval. Nil disables one.
	Related RelatedLookup
	History HistoryProvider
	Social  SocialLookup

	// Enricher fetches fuller text for the first EnrichTop documents whose
	// body is shorter than EnrichMinBody. Nil disables enrichment.
	Enricher      Enricher
	EnrichTop     int
	EnrichMinBody int

	LookupTimeout time.Duration
	MaxSignals    int
}

type lookups struct {
	docs    []entity.Document
	related []entity.RelatedEntity
	history string
	signals []entity.SocialSignal
}

// Scan screens query. The only error it returns wraps entity.ErrInvalidQuery,
// in which case nothing downstream was called. Provider failures and internal
// panics produce a well-formed result with an Advisory instead.
func (s *Service) Scan(ctx context.Context, query string) (result entity.ScanResult, err error) {
	start := time.Now()
	query = entity.NormalizeQuery(query)
	if err := entity.ValidateQuery(query); err != nil {
		metrics.RecordScan(metrics.OutcomeRejected, time.Since(start), 0, 0)
		return entity.ScanResult{}, err
	}

	ctx, span := tracing.GetTracer().Start(ctx, "scan")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))
	logger := logging.ForScan(ctx, query)

	fetched := 0
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scan failed, returning degraded result",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			span.SetStatus(codes.Error, fmt.Sprint(r))
			result = entity.ScanResult{
				Query:    query,
				Brief:    FallbackBrief(query, 0),
				Advisory: AdvisoryFailure,
			}
			err = nil
			metrics.RecordScan(metrics.OutcomeDegraded, time.Since(start), fetched, 0)
		}
	}()

	l := s.gather(ctx, query)
	fetched = len(l.docs)
	result = entity.ScanResult{
		Query:           query,
		RelatedEntities: l.related,
		SocialSignals:   l.signals,
	}

	if len(l.docs) == 0 {
		result.Brief = NoDataBrief(query)
		metrics.RecordScan(metrics.OutcomeEmpty, time.Since(start), 0, 0)
		logger.Info("scan finished with no documents", slog.Duration("duration", time.Since(start)))
		return result, nil
	}

	docs := s.Classifier.Cap(Prioritize(l.docs, s.tier()))
	docs = s.enrich(ctx, docs)

	classified := s.Classifier.Classify(ctx, docs, query)

	_, clusterSpan := tracing.StartStage(ctx, "cluster")
	result.Clusters = Cluster(classified)
	clusterSpan.SetAttributes(attribute.Int("clusters", len(result.Clusters)))
	clusterSpan.End()

	result.Brief = s.Briefs.Brief(ctx, result.Clusters, query, l.history)

	outcome := metrics.OutcomeOK
	for _, c := range classified {
		if c.Verdict.ManualReview {
			result.Advisory = AdvisoryManualReview
			outcome = metrics.OutcomeDegraded
			break
		}
	}
	metrics.RecordScan(outcome, time.Since(start), fetched, len(result.Clusters))
	logger.Info("scan finished",
		slog.Int("documents", fetched),
		slog.Int("classified", len(classified)),
		slog.Int("clusters", len(result.Clusters)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// gather runs retrieval and the three lookups concurrently and waits for all
// of them. Each owns its deadline and fallback, so none can cancel another.
func (s *Service) gather(ctx context.Context, query string) lookups {
	ctx, span := tracing.StartStage(ctx, "lookups")
	defer span.End()

	var l lookups
	var g errgroup.Group

	g.Go(func() error {
		if s.Fetcher != nil {
			l.docs = s.Fetcher.Fetch(ctx, query)
		}
		return nil
	})
	g.Go(func() error {
		if s.Related != nil {
			l.related = lookup(ctx, s.lookupTimeout(), "related", query, s.Related.Related, nil)
		}
		return nil
	})
	g.Go(func() error {
		if s.History != nil {
			l.history = lookup(ctx, s.lookupTimeout(), "history", query, s.History.History, "")
		}
		return nil
	})
	g.Go(func() error {
		if s.Social != nil {
			signals := lookup(ctx, s.lookupTimeout(), "social", query, s.Social.Signals, nil)
			if limit := s.maxSignals(); len(signals) > limit {
				signals = signals[:limit]
			}
			l.signals = signals
		}
		return nil
	})
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("documents", len(l.docs)),
		attribute.Int("related", len(l.related)),
		attribute.Int("signals", len(l.signals)),
		attribute.Bool("history", l.history != ""),
	)
	return l
}

func lookup[T any](ctx context.Context, timeout time.Duration, name, query string, fn func(context.Context, string) (T, error), zero T) T {
	return bounded.Call(ctx, timeout, func(ctx context.Context) (T, error) {
		return fn(ctx, query)
	}, func(err error) T {
		metrics.RecordProviderFailure(name, failureReason(err))
		logging.ForScan(ctx, query).Warn("lookup failed",
			slog.String("provider", name),
			slog.Any("error", err))
		return zero
	})
}

// enrich replaces short bodies on the first EnrichTop documents. A failed
// enrichment keeps the original document.
func (s *Service) enrich(ctx context.Context, docs []entity.Document) []entity.Document {
	if s.Enricher == nil || s.EnrichTop <= 0 {
		return docs
	}
	minBody := s.EnrichMinBody
	if minBody <= 0 {
		minBody = defaultEnrichMinBody
	}

	out := make([]entity.Document, len(docs))
	copy(out, docs)

	var g errgroup.Group
	g.SetLimit(enrichParallelism)
	for i := range out {
		if i >= s.EnrichTop {
			break
		}
		if len([]rune(out[i].Body)) >= minBody {
			continue
		}
		orig := out[i]
		g.Go(func() error {
			out[i] = bounded.Call(ctx, s.lookupTimeout(), func(ctx context.Context) (entity.Document, error) {
				return s.Enricher.Enrich(ctx, orig)
			}, bounded.Value(orig))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) tier() func(string) int {
	if s.Fetcher == nil || s.Fetcher.Catalogue == nil {
		return nil
	}
	return s.Fetcher.Catalogue.Tier
}

func (s *Service) lookupTimeout() time.Duration {
	if s.LookupTimeout <= 0 {
		return defaultLookupTimeout
	}
	return s.LookupTimeout
}

func (s *Service) maxSignals() int {
	if s.MaxSignals <= 0 {
		return defaultMaxSignals
	}
	return s.MaxSignals
}
