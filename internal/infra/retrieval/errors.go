// Package retrieval provides the document retrieval providers used by scans:
// the NewsAPI live search, the Elasticsearch archive, curated fixtures and
// the readability enricher that fetches fuller article text.
package retrieval

import "errors"

// Errors returned while fetching an article page for enrichment.
var (
	// ErrInvalidURL indicates a URL with an unsupported scheme or no host.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates a URL that resolves to a private, loopback or
	// link-local address.
	ErrPrivateIP = errors.New("private IP access denied")

	// ErrTooManyRedirects indicates the redirect limit was exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates a response larger than the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrReadabilityFailed indicates that no readable text could be extracted.
	ErrReadabilityFailed = errors.New("content extraction failed")
)
