// Package entitydir serves related people and organisations from a curated
// YAML directory.
package entitydir

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"riskscan/internal/domain/entity"
)

// Entry is one directory record.
type Entry struct {
	Entity  string         `yaml:"entity"`
	Aliases []string       `yaml:"aliases"`
	Related []RelatedEntry `yaml:"related"`
}

// RelatedEntry is a related party of an Entry.
type RelatedEntry struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

// Directory matches a query against entity names and aliases,
// case-insensitively and ignoring surrounding whitespace.
type Directory struct {
	index map[string][]entity.RelatedEntity
}

// Load reads a directory file.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity directory: %w", err)
	}
	return Parse(data)
}

// Parse decodes directory YAML. Duplicate names or aliases are an error.
func Parse(data []byte) (*Directory, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse entity directory: %w", err)
	}

	d := &Directory{index: make(map[string][]entity.RelatedEntity)}
	for _, e := range entries {
		if strings.TrimSpace(e.Entity) == "" {
			return nil, fmt.Errorf("entity directory entry without a name")
		}
		related := make([]entity.RelatedEntity, 0, len(e.Related))
		for _, r := range e.Related {
			related = append(related, entity.RelatedEntity{Name: r.Name, Role: r.Role})
		}
		for _, key := range append([]string{e.Entity}, e.Aliases...) {
			k := normalize(key)
			if k == "" {
				continue
			}
			if _, dup := d.index[k]; dup {
				return nil, fmt.Errorf("entity directory: duplicate name %q", key)
			}
			d.index[k] = related
		}
	}
	return d, nil
}

// Related implements scan.RelatedLookup. Unknown entities have no related
// parties.
func (d *Directory) Related(_ context.Context, query string) ([]entity.RelatedEntity, error) {
	related := d.index[normalize(query)]
	out := make([]entity.RelatedEntity, len(related))
	copy(out, related)
	return out, nil
}

// Len returns the number of indexed names and aliases.
func (d *Directory) Len() int { return len(d.index) }

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
