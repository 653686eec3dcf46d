package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"riskscan/internal/domain/entity"
	"riskscan/internal/resilience/circuitbreaker"
	"riskscan/internal/resilience/retry"
	"riskscan/internal/usecase/scan"
)

const (
	// DefaultNewsAPIBaseURL is the public NewsAPI endpoint.
	DefaultNewsAPIBaseURL = "https://newsapi.org"

	newsAPIName        = "newsapi"
	maxNewsAPIBody     = 4 << 20
	maxNewsAPIPageSize = 100
)

// NewsAPIConfig configures the NewsAPI provider.
type NewsAPIConfig struct {
	APIKey   string
	BaseURL  string
	Language string
	Timeout  time.Duration
}

// NewsAPI searches the NewsAPI /v2/everything endpoint.
type NewsAPI struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         NewsAPIConfig
	normalizer     *Normalizer
}

// NewNewsAPI creates a NewsAPI provider.
func NewNewsAPI(cfg NewsAPIConfig, n *Normalizer) *NewsAPI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNewsAPIBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 4 * time.Second
	}
	return &NewsAPI{
		client:         &http.Client{Timeout: cfg.Timeout},
		circuitBreaker: circuitbreaker.New(circuitbreaker.RetrievalConfig(newsAPIName)),
		retryConfig:    retry.RetrievalConfig(),
		config:         cfg,
		normalizer:     n,
	}
}

// Name implements scan.Retriever.
func (p *NewsAPI) Name() string { return newsAPIName }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Search implements scan.Retriever. An unconfigured key is reported as
// scan.ErrProviderUnavailable without a network call.
func (p *NewsAPI) Search(ctx context.Context, req scan.SearchRequest) ([]entity.Document, error) {
	if strings.TrimSpace(p.config.APIKey) == "" {
		return nil, fmt.Errorf("%w: newsapi key not configured", scan.ErrProviderUnavailable)
	}

	var docs []entity.Document
	err := retry.WithBackoff(ctx, p.retryConfig, func() error {
		result, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.doSearch(ctx, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("newsapi circuit breaker open, request rejected",
					slog.String("state", p.circuitBreaker.State().String()))
				return fmt.Errorf("%w: newsapi: %w", scan.ErrProviderUnavailable, err)
			}
			return err
		}
		docs = result.([]entity.Document)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("newsapi search: %w", err)
	}
	return docs, nil
}

func (p *NewsAPI) doSearch(ctx context.Context, req scan.SearchRequest) ([]entity.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.searchURL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("build newsapi request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", p.config.APIKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxNewsAPIBody))
	if err != nil {
		return nil, fmt.Errorf("read newsapi response: %w", err)
	}

	var parsed newsAPIResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		if decodeErr == nil && parsed.Code != "" {
			msg = parsed.Code
		}
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: newsapi: %v", scan.ErrParse, decodeErr)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("%w: newsapi status %q: %s", scan.ErrProviderUnavailable, parsed.Status, parsed.Code)
	}

	articles := make([]RawArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		articles = append(articles, RawArticle{
			URL:         a.URL,
			Title:       a.Title,
			Body:        joinNonEmpty(a.Description, a.Content),
			SourceName:  a.Source.Name,
			PublishedAt: parseTime(a.PublishedAt),
			Language:    p.config.Language,
		})
	}
	return p.normalizer.NormalizeAll(newsAPIName, articles), nil
}

func (p *NewsAPI) searchURL(req scan.SearchRequest) string {
	size := req.PageSize
	if size <= 0 || size > maxNewsAPIPageSize {
		size = maxNewsAPIPageSize
	}
	q := url.Values{}
	q.Set("q", strconv.Quote(req.Query))
	q.Set("pageSize", strconv.Itoa(size))
	q.Set("sortBy", "publishedAt")
	q.Set("language", p.config.Language)
	if len(req.Domains) > 0 {
		q.Set("domains", strings.Join(req.Domains, ","))
	}
	return strings.TrimRight(p.config.BaseURL, "/") + "/v2/everything?" + q.Encode()
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// BreakerState reports the state of the NewsAPI circuit breaker.
func (p *NewsAPI) BreakerState() gobreaker.State { return p.circuitBreaker.State() }
