package retrieval

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"riskscan/internal/domain/entity"
	"riskscan/internal/usecase/scan"
)

// FixtureSet is one curated entry of a fixture file. An entry applies to
// every query containing one of its Match substrings, case-insensitively.
type FixtureSet struct {
	Match     []string          `yaml:"match"`
	Documents []FixtureDocument `yaml:"documents"`
}

// FixtureDocument is a curated article.
type FixtureDocument struct {
	URL       string `yaml:"url"`
	Title     string `yaml:"title"`
	Body      string `yaml:"body"`
	Source    string `yaml:"source"`
	Published string `yaml:"published"`
}

// Fixture serves curated documents. It is meant for demo and test
// configurations and is consulted only when no live provider answered.
type Fixture struct {
	sets       []FixtureSet
	normalizer *Normalizer
}

// LoadFixture reads a fixture file.
func LoadFixture(path string, n *Normalizer) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}
	return ParseFixture(data, n)
}

// ParseFixture decodes fixture YAML.
func ParseFixture(data []byte, n *Normalizer) (*Fixture, error) {
	var sets []FixtureSet
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("parse fixture file: %w", err)
	}
	for i, s := range sets {
		if len(s.Match) == 0 {
			return nil, fmt.Errorf("fixture entry %d has no match terms", i)
		}
	}
	return &Fixture{sets: sets, normalizer: n}, nil
}

// Name implements scan.Retriever.
func (f *Fixture) Name() string { return "fixture" }

// Search implements scan.Retriever.
func (f *Fixture) Search(_ context.Context, req scan.SearchRequest) ([]entity.Document, error) {
	q := strings.ToLower(req.Query)
	var articles []RawArticle
	for _, s := range f.sets {
		if !matchesAny(q, s.Match) {
			continue
		}
		for _, d := range s.Documents {
			articles = append(articles, RawArticle{
				URL:         d.URL,
				Title:       d.Title,
				Body:        d.Body,
				SourceName:  d.Source,
				PublishedAt: parseTime(d.Published),
			})
		}
	}
	return f.normalizer.NormalizeAll("fixture", articles), nil
}

func matchesAny(query string, terms []string) bool {
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && strings.Contains(query, t) {
			return true
		}
	}
	return false
}
