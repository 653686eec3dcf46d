package scan

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"riskscan/internal/domain/entity"
	"riskscan/internal/observability/logging"
	"riskscan/internal/observability/metrics"
	"riskscan/internal/observability/tracing"
	"riskscan/internal/resilience/bounded"
)

const (
	defaultRetrievalTimeout = 4 * time.Second
	defaultPageSize         = 20
)

// Fetcher gathers candidate documents from the live retrieval providers and,
// when none of them answered, from the curated fixture provider.
type Fetcher struct {
	Providers []Retriever
	// Fixture is consulted only when every live provider failed or none is
	// configured. Nil disables it.
	Fixture   Retriever
	Catalogue Catalogue
	PageSize  int
	Timeout   time.Duration
}

type providerResult struct {
	docs []entity.Document
	ok   bool
}

// Fetch returns documents for query, de-duplicated by canonical URL with the
// first occurrence kept. Provider order decides which copy wins. Fetch never
// fails; the worst case is an empty slice.
func (f *Fetcher) Fetch(ctx context.Context, query string) []entity.Document {
	ctx, span := tracing.StartStage(ctx, "fetch")
	defer span.End()

	req := SearchRequest{Query: query, PageSize: f.pageSize()}
	if f.Catalogue != nil {
		req.Domains = f.Catalogue.Domains()
	}

	results := make([]providerResult, len(f.Providers))
	var g errgroup.Group
	for i, p := range f.Providers {
		g.Go(func() error {
			results[i] = f.search(ctx, p, req)
			return nil
		})
	}
	_ = g.Wait()

	var merged []entity.Document
	anyLive := false
	for _, r := range results {
		if r.ok {
			anyLive = true
		}
		merged = append(merged, r.docs...)
	}

	if !anyLive && f.Fixture != nil {
		logging.ForScan(ctx, query).Info("no live retrieval provider answered, using curated fixtures")
		merged = append(merged, f.search(ctx, f.Fixture, req).docs...)
	}

	docs := DedupByURL(merged)
	span.SetAttributes(attribute.Int("documents", len(docs)), attribute.Bool("live", anyLive))
	return docs
}

func (f *Fetcher) search(ctx context.Context, p Retriever, req SearchRequest) providerResult {
	return bounded.Call(ctx, f.timeout(), func(ctx context.Context) (providerResult, error) {
		docs, err := p.Search(ctx, req)
		if err != nil {
			return providerResult{}, err
		}
		return providerResult{docs: docs, ok: true}, nil
	}, func(err error) providerResult {
		metrics.RecordProviderFailure(p.Name(), failureReason(err))
		logging.ForScan(ctx, req.Query).Warn("retrieval provider failed",
			slog.String("provider", p.Name()),
			slog.Any("error", err))
		return providerResult{}
	})
}

func (f *Fetcher) pageSize() int {
	if f.PageSize <= 0 {
		return defaultPageSize
	}
	return f.PageSize
}

func (f *Fetcher) timeout() time.Duration {
	if f.Timeout <= 0 {
		return defaultRetrievalTimeout
	}
	return f.Timeout
}

// DedupByURL drops documents whose canonical URL was already seen. Documents
// without an ID are dropped.
func DedupByURL(docs []entity.Document) []entity.Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]entity.Document, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			continue
		}
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Prioritize orders documents by catalogue tier (lower first), then newest
// first, then by their current order. It returns a new slice.
func Prioritize(docs []entity.Document, tier func(domain string) int) []entity.Document {
	out := make([]entity.Document, len(docs))
	copy(out, docs)
	if tier == nil {
		tier = func(string) int { return 0 }
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := tier(out[i].SourceDomain), tier(out[j].SourceDomain)
		if ti != tj {
			return ti < tj
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}
