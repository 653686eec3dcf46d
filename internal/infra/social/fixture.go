package social

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"riskscan/internal/domain/entity"
)

type fixtureSet struct {
	Match  []string      `yaml:"match"`
	Social []fixturePost `yaml:"social"`
}

type fixturePost struct {
	Name    string    `yaml:"name"`
	Handle  string    `yaml:"handle"`
	Content string    `yaml:"content"`
	URL     string    `yaml:"url"`
	Posted  time.Time `yaml:"posted"`
}

// Fixture serves curated posts from the "social" key of a fixture file.
type Fixture struct {
	sets []fixtureSet
}

// LoadFixture reads the social entries of a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var sets []fixtureSet
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("parse fixture file: %w", err)
	}
	return &Fixture{sets: sets}, nil
}

// Signals implements scan.SocialLookup.
func (f *Fixture) Signals(_ context.Context, query string) ([]entity.SocialSignal, error) {
	q := strings.ToLower(query)
	var out []entity.SocialSignal
	for _, s := range f.sets {
		if !matches(q, s.Match) {
			continue
		}
		for _, p := range s.Social {
			out = append(out, entity.SocialSignal{
				Name:      p.Name,
				Handle:    p.Handle,
				Content:   p.Content,
				URL:       p.URL,
				PostedAt:  p.Posted.UTC(),
				Sentiment: Classify(p.Content),
			})
		}
	}
	return out, nil
}

func matches(query string, terms []string) bool {
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && strings.Contains(query, t) {
			return true
		}
	}
	return false
}
