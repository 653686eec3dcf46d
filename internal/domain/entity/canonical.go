package entity

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters dropped from canonical URLs.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref_src": true,
}

// CanonicalURL normalises raw into the identifier used to deduplicate
// documents: lower-case scheme and host, no fragment, no tracking
// parameters, sorted query, no trailing slash on the path.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			q.Del(k)
		}
	}
	u.RawQuery = encodeSorted(q)

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String(), nil
}

func encodeSorted(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// DomainOf returns the host of rawURL without port and leading "www.".
func DomainOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

var (
	regulatoryMarkers = []string{".gov", "sec.", "ftc.", "nhtsa", "regulator", "europa.eu", "fca.org", "cnil.fr"}
	legalMarkers      = []string{"court", "law", "legal", "justia"}
	blogMarkers       = []string{"blog", "medium.com", "substack", "forum", "reddit"}

	// Sections of general publishers that cover courts and litigation.
	legalSections = []string{"reuters.com/legal"}
)

// SourceTypeOf classifies a canonical document URL. A legal section of a
// general publisher is Legal; otherwise the domain decides.
func SourceTypeOf(canonical string) SourceType {
	domain := DomainOf(canonical)
	if u, err := url.Parse(canonical); err == nil {
		section := domain + strings.ToLower(u.Path)
		for _, prefix := range legalSections {
			if section == prefix || strings.HasPrefix(section, prefix+"/") {
				return SourceTypeLegal
			}
		}
	}
	return InferSourceType(domain)
}

// InferSourceType maps a publisher domain to its SourceType. Regulatory
// markers win over legal ones, legal over blog; anything else is News.
func InferSourceType(domain string) SourceType {
	d := strings.ToLower(domain)
	switch {
	case containsAny(d, regulatoryMarkers):
		return SourceTypeRegulatory
	case containsAny(d, legalMarkers):
		return SourceTypeLegal
	case containsAny(d, blogMarkers):
		return SourceTypeBlog
	default:
		return SourceTypeNews
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
