package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sony/gobreaker"

	"riskscan/internal/domain/entity"
	"riskscan/internal/resilience/circuitbreaker"
	"riskscan/internal/usecase/scan"
)

const (
	archiveName = "archive"

	// DefaultArchiveIndex holds previously ingested adverse-media coverage.
	DefaultArchiveIndex = "adverse-media-archive"

	defaultHistoryAge   = 90 * 24 * time.Hour
	defaultHistoryLimit = 5
)

// ArchiveDocument is the stored shape of an archived article.
type ArchiveDocument struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	SourceName  string    `json:"source_name"`
	Domain      string    `json:"domain"`
	PublishedAt time.Time `json:"published_at"`
	Language    string    `json:"language,omitempty"`
}

// Archive searches an Elasticsearch index of archived coverage. It is both a
// retrieval provider and the historical-context lookup.
type Archive struct {
	es             *elasticsearch.Client
	index          string
	circuitBreaker *circuitbreaker.CircuitBreaker
	normalizer     *Normalizer

	// HistoryAge is the minimum age of coverage rendered as history.
	HistoryAge   time.Duration
	HistoryLimit int
	now          func() time.Time
}

// NewArchive creates an Archive backed by the cluster at addr.
func NewArchive(addr, index string, n *Normalizer) (*Archive, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	if index == "" {
		index = DefaultArchiveIndex
	}
	return &Archive{
		es:             es,
		index:          index,
		circuitBreaker: circuitbreaker.New(circuitbreaker.RetrievalConfig(archiveName)),
		normalizer:     n,
		HistoryAge:     defaultHistoryAge,
		HistoryLimit:   defaultHistoryLimit,
		now:            time.Now,
	}, nil
}

// Name implements scan.Retriever.
func (a *Archive) Name() string { return archiveName }

// Search implements scan.Retriever: a title-weighted match on the query,
// restricted to the allowed domains, newest first.
func (a *Archive) Search(ctx context.Context, req scan.SearchRequest) ([]entity.Document, error) {
	size := req.PageSize
	if size <= 0 {
		size = 20
	}
	filters := make([]map[string]any, 0, 1)
	if len(req.Domains) > 0 {
		filters = append(filters, map[string]any{"terms": map[string]any{"domain": req.Domains}})
	}

	hits, err := a.search(ctx, matchQuery(req.Query, filters), size)
	if err != nil {
		return nil, err
	}

	articles := make([]RawArticle, 0, len(hits))
	for _, h := range hits {
		articles = append(articles, RawArticle{
			URL:         h.URL,
			Title:       h.Title,
			Body:        h.Body,
			SourceName:  h.SourceName,
			PublishedAt: h.PublishedAt,
			Language:    h.Language,
		})
	}
	return a.normalizer.NormalizeAll(archiveName, articles), nil
}

// History implements scan.HistoryProvider. It renders archived coverage
// older than HistoryAge as dated lines, newest first. No coverage is an
// empty string.
func (a *Archive) History(ctx context.Context, query string) (string, error) {
	cutoff := a.now().Add(-a.HistoryAge).UTC().Format(time.RFC3339)
	filters := []map[string]any{
		{"range": map[string]any{"published_at": map[string]any{"lte": cutoff}}},
	}

	hits, err := a.search(ctx, matchQuery(query, filters), a.HistoryLimit)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(hits))
	for _, h := range hits {
		source := h.SourceName
		if source == "" {
			source = h.Domain
		}
		lines = append(lines, fmt.Sprintf("%s %s (%s)", h.PublishedAt.UTC().Format("2006-01-02"), strings.TrimSpace(h.Title), source))
	}
	return strings.Join(lines, "\n"), nil
}

func matchQuery(query string, filters []map[string]any) map[string]any {
	boolQuery := map[string]any{
		"must": []map[string]any{{
			"multi_match": map[string]any{
				"query":    query,
				"fields":   []string{"title^2", "body"},
				"operator": "and",
			},
		}},
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	return map[string]any{"bool": boolQuery}
}

func (a *Archive) search(ctx context.Context, query map[string]any, size int) ([]ArchiveDocument, error) {
	result, err := a.circuitBreaker.Execute(func() (interface{}, error) {
		return a.doSearch(ctx, query, size)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("archive circuit breaker open, request rejected",
				slog.String("index", a.index))
			return nil, fmt.Errorf("%w: archive: %w", scan.ErrProviderUnavailable, err)
		}
		return nil, err
	}
	return result.([]ArchiveDocument), nil
}

func (a *Archive) doSearch(ctx context.Context, query map[string]any, size int) ([]ArchiveDocument, error) {
	payload, err := json.Marshal(map[string]any{
		"size":  size,
		"query": query,
		"sort":  []map[string]any{{"published_at": map[string]any{"order": "desc"}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := a.es.Search(
		a.es.Search.WithContext(ctx),
		a.es.Search.WithIndex(a.index),
		a.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("archive search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("archive search failed: %s: %s", res.Status(), strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source ArchiveDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode archive response: %v", scan.ErrParse, err)
	}

	docs := make([]ArchiveDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return docs, nil
}

// BreakerState reports the state of the archive circuit breaker.
func (a *Archive) BreakerState() gobreaker.State { return a.circuitBreaker.State() }
