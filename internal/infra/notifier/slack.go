package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"riskscan/internal/domain/entity"
)

// Slack Block Kit limits.
const (
	maxSectionTextLength = 3000
	maxFallbackLength    = 150
)

// SlackConfig configures the Slack incoming webhook.
type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Slack posts alerts to a Slack incoming webhook, one message per second.
type Slack struct {
	webhook
}

// NewSlack creates a Slack notifier.
func NewSlack(cfg SlackConfig) *Slack {
	return &Slack{webhook{
		name:    "slack",
		url:     cfg.WebhookURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: NewRateLimiter(1.0, 1),
	}}
}

// Name implements Notifier.
func (s *Slack) Name() string { return s.name }

// Send implements Notifier.
func (s *Slack) Send(ctx context.Context, alert entity.Alert) error {
	return s.send(ctx, alert, buildSlackPayload(alert))
}

// SlackPayload is a Block Kit webhook message.
type SlackPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject is a Block Kit text object.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildSlackPayload(alert entity.Alert) SlackPayload {
	doc, v := alert.Document(), alert.Verdict()

	fallback := truncate(fmt.Sprintf("Adverse media on %s: %s", alert.Query, doc.Title), maxFallbackLength)
	section := truncate(fmt.Sprintf("*<%s|%s>*\n%s\n\n%s",
		doc.URL(), doc.Title, riskLine(v), v.Summary), maxSectionTextLength)

	footer := fmt.Sprintf("%s • %s", alert.Query, doc.SourceName)
	if !doc.PublishedAt.IsZero() {
		footer += " • " + doc.PublishedAt.UTC().Format(time.RFC3339)
	}
	if n := len(alert.Cluster.SecondarySources); n > 0 {
		footer += fmt.Sprintf(" • %d related source(s)", n)
	}

	return SlackPayload{
		Text: fallback,
		Blocks: []SlackBlock{
			{Type: "section", Text: &SlackTextObject{Type: "mrkdwn", Text: section}},
			{Type: "context", Elements: []SlackTextObject{{Type: "mrkdwn", Text: footer}}},
		},
	}
}
