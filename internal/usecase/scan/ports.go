package scan

import (
	"context"

	"riskscan/internal/domain/entity"
)

// SearchRequest is what a retrieval provider is asked for.
type SearchRequest struct {
	Query    string
	Domains  []string
	PageSize int
}

// Retriever returns candidate documents for a query. Documents must carry a
// canonical URL as ID.
type Retriever interface {
	Name() string
	Search(ctx context.Context, req SearchRequest) ([]entity.Document, error)
}

// Judge sends a prompt to the judgment service and returns its raw reply.
type Judge interface {
	Name() string
	Judge(ctx context.Context, prompt string) (string, error)
}

// Enricher replaces a short document body with fuller article text.
type Enricher interface {
	Enrich(ctx context.Context, doc entity.Document) (entity.Document, error)
}

// Catalogue is the trusted-source allow-list.
type Catalogue interface {
	Domains() []string
	// Tier returns the priority of a domain, lower first. Unknown domains
	// return a tier after every listed one.
	Tier(domain string) int
}

// RelatedLookup finds people and organisations tied to the screened entity.
type RelatedLookup interface {
	Related(ctx context.Context, query string) ([]entity.RelatedEntity, error)
}

// HistoryProvider returns older context on the entity as plain text.
// An empty string means nothing meaningful is known.
type HistoryProvider interface {
	History(ctx context.Context, query string) (string, error)
}

// SocialLookup returns recent social posts about the entity.
type SocialLookup interface {
	Signals(ctx context.Context, query string) ([]entity.SocialSignal, error)
}
