package notifier

import (
	"context"
	"net/http"
	"time"

	"riskscan/internal/domain/entity"
)

// Discord embed limits.
const (
	maxTitleLength       = 256
	maxDescriptionLength = 4096
)

// Embed colours by severity.
var severityColors = map[entity.Severity]int{
	entity.SeverityCritical: 0xB00020,
	entity.SeverityHigh:     0xE53935,
	entity.SeverityMedium:   0xFB8C00,
	entity.SeverityLow:      0xFDD835,
}

const defaultColor = 0x5865F2

// DiscordConfig configures the Discord webhook.
type DiscordConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Discord posts alerts as embeds, 30 per minute with a burst of 3.
type Discord struct {
	webhook
}

// NewDiscord creates a Discord notifier.
func NewDiscord(cfg DiscordConfig) *Discord {
	return &Discord{webhook{
		name:    "discord",
		url:     cfg.WebhookURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: NewRateLimiter(0.5, 3),
	}}
}

// Name implements Notifier.
func (d *Discord) Name() string { return d.name }

// Send implements Notifier.
func (d *Discord) Send(ctx context.Context, alert entity.Alert) error {
	return d.send(ctx, alert, buildDiscordPayload(alert))
}

// DiscordPayload is a webhook message with embeds.
type DiscordPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is one embed.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	URL         string              `json:"url"`
	Color       int                 `json:"color"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      DiscordEmbedFooter  `json:"footer"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

// DiscordEmbedField is an inline name/value pair.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbedFooter is the embed footer.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

func buildDiscordPayload(alert entity.Alert) DiscordPayload {
	doc, v := alert.Document(), alert.Verdict()

	color, ok := severityColors[v.Severity]
	if !ok {
		color = defaultColor
	}
	embed := DiscordEmbed{
		Title:       truncate(doc.Title, maxTitleLength),
		Description: truncate(v.Summary, maxDescriptionLength),
		URL:         doc.URL(),
		Color:       color,
		Fields: []DiscordEmbedField{
			{Name: "Entity", Value: alert.Query, Inline: true},
			{Name: "Risk", Value: riskLine(v), Inline: true},
		},
		Footer: DiscordEmbedFooter{Text: doc.SourceName},
	}
	if !doc.PublishedAt.IsZero() {
		embed.Timestamp = doc.PublishedAt.UTC().Format(time.RFC3339)
	}
	return DiscordPayload{Embeds: []DiscordEmbed{embed}}
}
