package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"riskscan/internal/domain/entity"
)

//go:embed sources.yaml
var defaultSourcesYAML []byte

// UnknownTier is the tier of domains not in the catalogue.
const UnknownTier = 1000

// Source is one trusted publisher.
type Source struct {
	Domain string            `yaml:"domain"`
	Tier   int               `yaml:"tier"`
	Type   entity.SourceType `yaml:"type"`
}

// Catalogue is the trusted-source allow-list. Lookups match the domain
// itself and any of its subdomains.
type Catalogue struct {
	sources []Source
	byName  map[string]Source
}

// LoadCatalogue reads the catalogue at path, or the embedded default when
// path is empty.
// The path parameter is expected to come from trusted configuration.
func LoadCatalogue(path string) (*Catalogue, error) {
	data := defaultSourcesYAML
	if path != "" {
		// #nosec G304 -- path comes from SOURCES_FILE, not user input
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read sources file: %w", err)
		}
		data = b
	}
	return ParseCatalogue(data)
}

// ParseCatalogue decodes and validates catalogue YAML.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var doc struct {
		Sources []Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse sources: %w", err)
	}
	if len(doc.Sources) == 0 {
		return nil, fmt.Errorf("sources: at least one trusted source is required")
	}

	c := &Catalogue{byName: make(map[string]Source, len(doc.Sources))}
	for i, s := range doc.Sources {
		s.Domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s.Domain)), "www.")
		if s.Domain == "" {
			return nil, fmt.Errorf("sources[%d]: domain is required", i)
		}
		if s.Tier <= 0 {
			return nil, fmt.Errorf("sources[%d] %s: tier must be positive", i, s.Domain)
		}
		if s.Type != "" && !s.Type.Valid() {
			return nil, fmt.Errorf("sources[%d] %s: unknown type %q", i, s.Domain, s.Type)
		}
		if _, dup := c.byName[s.Domain]; dup {
			return nil, fmt.Errorf("sources[%d]: duplicate domain %s", i, s.Domain)
		}
		c.byName[s.Domain] = s
		c.sources = append(c.sources, s)
	}
	return c, nil
}

// Domains returns the allow-list in catalogue order.
func (c *Catalogue) Domains() []string {
	out := make([]string, len(c.sources))
	for i, s := range c.sources {
		out[i] = s.Domain
	}
	return out
}

// Tier returns the tier of domain, or UnknownTier.
func (c *Catalogue) Tier(domain string) int {
	if s, ok := c.lookup(domain); ok {
		return s.Tier
	}
	return UnknownTier
}

// SourceType returns the catalogue override for domain, if any.
func (c *Catalogue) SourceType(domain string) (entity.SourceType, bool) {
	s, ok := c.lookup(domain)
	if !ok || s.Type == "" {
		return "", false
	}
	return s.Type, true
}

func (c *Catalogue) lookup(domain string) (Source, bool) {
	d := strings.TrimPrefix(strings.ToLower(domain), "www.")
	for d != "" {
		if s, ok := c.byName[d]; ok {
			return s, true
		}
		_, rest, found := strings.Cut(d, ".")
		if !found {
			break
		}
		d = rest
	}
	return Source{}, false
}
