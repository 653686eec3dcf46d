package entity

import "time"

// RelatedEntity is a person or organisation associated with the screened entity.
type RelatedEntity struct {
	Name string
	Role string
}

// Sentiment is the coarse tone of a social post.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// SocialSignal is a social media post mentioning the screened entity.
type SocialSignal struct {
	Name      string
	Handle    string
	Content   string
	URL       string
	PostedAt  time.Time
	Sentiment Sentiment
}

// ScanResult is the response of a single screening request. It is never persisted.
type ScanResult struct {
	Query           string
	Clusters        []Cluster
	RelatedEntities []RelatedEntity
	Brief           string
	SocialSignals   []SocialSignal

	// Advisory is a human-readable note set when the scan degraded.
	Advisory string
}

// AdverseClusters returns the clusters whose representative is adverse, in order.
func (r ScanResult) AdverseClusters() []Cluster {
	out := make([]Cluster, 0, len(r.Clusters))
	for _, c := range r.Clusters {
		if c.IsAdverse() {
			out = append(out, c)
		}
	}
	return out
}
