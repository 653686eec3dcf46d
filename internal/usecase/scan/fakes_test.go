package scan

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"riskscan/internal/domain/entity"
)

/* ───────── test doubles ───────── */

type fakeJudge struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
	delay   func(prompt string) time.Duration
}

func (f *fakeJudge) Name() string { return "fake" }

func (f *fakeJudge) Judge(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.delay != nil {
		if d := f.delay(prompt); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if f.respond == nil {
		return "", ErrProviderUnavailable
	}
	return f.respond(prompt)
}

func (f *fakeJudge) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeRetriever struct {
	name  string
	docs  []entity.Document
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeRetriever) Name() string { return f.name }

func (f *fakeRetriever) Search(ctx context.Context, _ SearchRequest) ([]entity.Document, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.docs, f.err
}

type fakeCatalogue struct {
	tiers map[string]int
}

func (c fakeCatalogue) Domains() []string {
	out := make([]string, 0, len(c.tiers))
	for d := range c.tiers {
		out = append(out, d)
	}
	return out
}

func (c fakeCatalogue) Tier(domain string) int {
	if t, ok := c.tiers[domain]; ok {
		return t
	}
	return 99
}

type countingLookup struct {
	calls   atomic.Int32
	related []entity.RelatedEntity
	history string
	signals []entity.SocialSignal
	panics  bool
}

func (c *countingLookup) Related(context.Context, string) ([]entity.RelatedEntity, error) {
	c.calls.Add(1)
	return c.related, nil
}

func (c *countingLookup) History(context.Context, string) (string, error) {
	c.calls.Add(1)
	if c.panics {
		panic("history index corrupted")
	}
	return c.history, nil
}

func (c *countingLookup) Signals(context.Context, string) ([]entity.SocialSignal, error) {
	c.calls.Add(1)
	return c.signals, nil
}

/* ───────── builders ───────── */

func newDoc(url, title, body, domain string) entity.Document {
	return entity.Document{
		ID:           url,
		Title:        title,
		Body:         body,
		SourceName:   domain,
		SourceDomain: domain,
		SourceType:   entity.InferSourceType(domain),
		PublishedAt:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func classified(url, title, tag string, adverse bool, score int) entity.ClassifiedDocument {
	return entity.ClassifiedDocument{
		Document: newDoc(url, title, "", entity.DomainOf(url)),
		Verdict: entity.Verdict{
			IsRelevant: true,
			IsAdverse:  adverse,
			RiskScore:  score,
			ClusterTag: tag,
		},
	}
}

func verdictJSON(adverse bool, score int, slug string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"isRelevant":      true,
		"isAdverse":       adverse,
		"riskTypes":       []string{"Regulatory"},
		"severity":        "High",
		"riskScore":       score,
		"summary":         "test verdict",
		"risk_event_slug": slug,
	})
	return string(b)
}

func promptTitle(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "Title: ") {
			return strings.TrimPrefix(line, "Title: ")
		}
	}
	return ""
}

func isBriefPrompt(prompt string) bool {
	return strings.Contains(prompt, "executive risk brief")
}
