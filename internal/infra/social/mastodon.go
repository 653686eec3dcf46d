// Package social looks up recent social posts about a screened entity and
// tags each with a coarse sentiment.
package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"riskscan/internal/domain/entity"
	"riskscan/internal/resilience/circuitbreaker"
	"riskscan/internal/resilience/retry"
	"riskscan/internal/usecase/scan"
)

const maxPostLength = 280

// Mastodon reads the public hashtag RSS feed of a Mastodon instance.
type Mastodon struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	baseURL        string
}

// NewMastodon creates a lookup against the instance at baseURL.
func NewMastodon(baseURL string, timeout time.Duration) *Mastodon {
	return &Mastodon{
		client:         &http.Client{Timeout: timeout},
		circuitBreaker: circuitbreaker.New(circuitbreaker.SocialConfig()),
		retryConfig:    retry.RetrievalConfig(),
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

// Signals implements scan.SocialLookup. Posts are returned newest first as
// the feed lists them.
func (m *Mastodon) Signals(ctx context.Context, query string) ([]entity.SocialSignal, error) {
	tag := Hashtag(query)
	if tag == "" {
		return nil, nil
	}
	feedURL := m.baseURL + "/tags/" + url.PathEscape(tag) + ".rss"

	var signals []entity.SocialSignal
	retryErr := retry.WithBackoff(ctx, m.retryConfig, func() error {
		result, err := m.circuitBreaker.Execute(func() (interface{}, error) {
			return m.fetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("social feed circuit breaker open, request rejected",
					slog.String("url", feedURL))
				return fmt.Errorf("%w: social: %w", scan.ErrProviderUnavailable, err)
			}
			return err
		}
		signals = result.([]entity.SocialSignal)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("social lookup: %w", retryErr)
	}
	return signals, nil
}

func (m *Mastodon) fetch(ctx context.Context, feedURL string) ([]entity.SocialSignal, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "RiskScanBot/1.0"
	fp.Client = m.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}

	signals := make([]entity.SocialSignal, 0, len(feed.Items))
	for _, it := range feed.Items {
		content := plainText(it.Description)
		if content == "" {
			continue
		}
		handle := handleFromLink(it.Link)
		name, _, _ := strings.Cut(strings.TrimPrefix(handle, "@"), "@")
		if it.Author != nil && it.Author.Name != "" {
			name = it.Author.Name
		}
		var posted time.Time
		if it.PublishedParsed != nil {
			posted = it.PublishedParsed.UTC()
		}
		signals = append(signals, entity.SocialSignal{
			Name:      name,
			Handle:    handle,
			Content:   truncate(content, maxPostLength),
			URL:       it.Link,
			PostedAt:  posted,
			Sentiment: Classify(content),
		})
	}
	return signals, nil
}

// Hashtag turns an entity name into a hashtag: letters and digits only,
// lower case.
func Hashtag(query string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// handleFromLink extracts "@user@instance" from a status URL such as
// https://mastodon.social/@user/1234.
func handleFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if strings.HasPrefix(seg, "@") && len(seg) > 1 {
			if strings.Contains(seg[1:], "@") {
				return seg
			}
			return seg + "@" + u.Hostname()
		}
	}
	return ""
}

func plainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// BreakerState reports the state of the social feed circuit breaker.
func (m *Mastodon) BreakerState() gobreaker.State { return m.circuitBreaker.State() }
