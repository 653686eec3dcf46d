package retrieval

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"riskscan/internal/domain/entity"
	"riskscan/internal/resilience/circuitbreaker"
	"riskscan/internal/resilience/retry"
)

// EnricherConfig controls article page fetching.
type EnricherConfig struct {
	Timeout        time.Duration
	MaxBodySize    int64
	MaxRedirects   int
	DenyPrivateIPs bool
	UserAgent      string
}

// DefaultEnricherConfig returns production settings.
func DefaultEnricherConfig() EnricherConfig {
	return EnricherConfig{
		Timeout:        3 * time.Second,
		MaxBodySize:    5 << 20,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      "RiskScanBot/1.0",
	}
}

// ReadabilityEnricher replaces a document body with the readable text of its
// article page when that text is longer.
type ReadabilityEnricher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         EnricherConfig
	normalizer     *Normalizer
}

// NewReadabilityEnricher creates an enricher. Every redirect target is
// validated like the original URL.
func NewReadabilityEnricher(cfg EnricherConfig, n *Normalizer) *ReadabilityEnricher {
	e := &ReadabilityEnricher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "article-enrich",
			MaxRequests:      5,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		}),
		config:     cfg,
		normalizer: n,
	}
	e.client = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= e.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), e.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return e
}

// Enrich implements scan.Enricher. On any failure the caller keeps the
// original document.
func (e *ReadabilityEnricher) Enrich(ctx context.Context, doc entity.Document) (entity.Document, error) {
	if err := validateURL(doc.ID, e.config.DenyPrivateIPs); err != nil {
		return doc, err
	}
	result, err := e.circuitBreaker.Execute(func() (interface{}, error) {
		return e.fetchText(ctx, doc.ID)
	})
	if err != nil {
		return doc, err
	}

	text := e.normalizer.text(result.(string))
	if len([]rune(text)) > len([]rune(doc.Body)) {
		doc.Body = text
	}
	return doc, nil
}

func (e *ReadabilityEnricher) fetchText(ctx context.Context, urlStr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", e.config.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("fetch article: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, e.config.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("read article: %w", err)
	}
	if int64(len(page)) > e.config.MaxBodySize {
		return "", fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, e.config.MaxBodySize)
	}

	pageURL := resp.Request.URL
	article, err := readability.FromReader(bytes.NewReader(page), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadabilityFailed, err)
	}
	if article.TextContent == "" {
		return "", fmt.Errorf("%w: no readable content", ErrReadabilityFailed)
	}
	return article.TextContent, nil
}
