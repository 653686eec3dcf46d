package scan

import (
	"strings"
	"unicode"

	"riskscan/internal/domain/entity"
)

// ClusterKey canonicalises a cluster tag, falling back to the title when the
// tag is blank. Letters are lower-cased and everything that is not a letter
// or digit is dropped, so "OpenAI Lawsuit!" and "openai lawsuit" share a key.
func ClusterKey(tag, title string) string {
	key := canonicalKey(tag)
	if key == "" {
		key = canonicalKey(title)
	}
	return key
}

func canonicalKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Cluster groups classified documents by cluster key, in first-seen key order.
//
// The first document for a key becomes the representative and later ones are
// attached as secondary sources. An adverse document arriving while the
// representative is not adverse takes over as representative; it keeps the
// secondary sources gathered so far and the displaced representative is not
// added to them. A URL already present in a cluster is ignored, so the
// representative URL never appears among the secondary sources.
func Cluster(docs []entity.ClassifiedDocument) []entity.Cluster {
	var clusters []entity.Cluster
	index := make(map[string]int)

	for _, d := range docs {
		key := ClusterKey(d.Verdict.ClusterTag, d.Document.Title)
		if key == "" {
			// Nothing to group on; the document stands alone.
			key = d.Document.URL()
		}
		i, ok := index[key]
		if !ok {
			index[key] = len(clusters)
			clusters = append(clusters, entity.Cluster{Key: key, Representative: d})
			continue
		}

		c := &clusters[i]
		if hasMember(c, d.Document.URL()) {
			continue
		}
		if d.Verdict.IsAdverse && !c.Representative.Verdict.IsAdverse {
			c.Representative = d
			continue
		}
		c.SecondarySources = append(c.SecondarySources, entity.SecondarySource{
			SourceName: d.Document.SourceName,
			Domain:     d.Document.SourceDomain,
			URL:        d.Document.URL(),
			Title:      d.Document.Title,
		})
	}
	return clusters
}

func hasMember(c *entity.Cluster, url string) bool {
	if c.Representative.Document.URL() == url {
		return true
	}
	for _, s := range c.SecondarySources {
		if s.URL == url {
			return true
		}
	}
	return false
}
