package retrieval

import (
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"riskscan/internal/domain/entity"
)

// SourceTyper overrides the inferred source type for catalogued domains.
type SourceTyper interface {
	SourceType(domain string) (entity.SourceType, bool)
}

// RawArticle is a provider result before normalisation.
type RawArticle struct {
	URL         string
	Title       string
	Body        string
	SourceName  string
	PublishedAt time.Time
	Language    string
}

// Normalizer turns provider results into Documents: canonical URL as ID,
// domain without "www.", source type from the catalogue or the domain
// markers, and HTML stripped from title and body.
type Normalizer struct {
	types  SourceTyper
	policy *bluemonday.Policy
}

// NewNormalizer creates a Normalizer. types may be nil.
func NewNormalizer(types SourceTyper) *Normalizer {
	return &Normalizer{types: types, policy: bluemonday.StrictPolicy()}
}

// Normalize converts a single article. Articles without a usable URL or
// title are rejected.
func (n *Normalizer) Normalize(a RawArticle) (entity.Document, error) {
	id, err := entity.CanonicalURL(a.URL)
	if err != nil {
		return entity.Document{}, err
	}
	title := n.text(a.Title)
	if title == "" {
		return entity.Document{}, &entity.ValidationError{Field: "title", Message: "title is required"}
	}

	domain := entity.DomainOf(id)
	sourceType := entity.SourceTypeOf(id)
	if n.types != nil {
		if t, ok := n.types.SourceType(domain); ok {
			sourceType = t
		}
	}
	sourceName := strings.TrimSpace(a.SourceName)
	if sourceName == "" {
		sourceName = domain
	}

	return entity.Document{
		ID:             id,
		Title:          title,
		Body:           n.text(a.Body),
		SourceName:     sourceName,
		SourceDomain:   domain,
		SourceType:     sourceType,
		PublishedAt:    a.PublishedAt.UTC(),
		OriginLanguage: a.Language,
	}, nil
}

// NormalizeAll converts articles, skipping the ones Normalize rejects.
func (n *Normalizer) NormalizeAll(provider string, articles []RawArticle) []entity.Document {
	docs := make([]entity.Document, 0, len(articles))
	for _, a := range articles {
		d, err := n.Normalize(a)
		if err != nil {
			slog.Debug("skipping unusable article",
				slog.String("provider", provider),
				slog.String("url", a.URL),
				slog.Any("error", err))
			continue
		}
		docs = append(docs, d)
	}
	return docs
}

// text strips markup and collapses whitespace.
func (n *Normalizer) text(s string) string {
	clean := html.UnescapeString(n.policy.Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

// parseTime accepts RFC 3339 timestamps and plain dates. Anything else is
// the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
