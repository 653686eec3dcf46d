package entity

import "time"

// Alert is an adverse finding on a watched entity that is pushed to
// analysts outside the dashboard.
type Alert struct {
	Query      string
	Cluster    Cluster
	DetectedAt time.Time
}

// Key identifies the finding an alert is about: the canonical URL of the
// cluster representative.
func (a Alert) Key() string {
	return a.Cluster.Representative.Document.URL()
}

// Verdict returns the representative's verdict.
func (a Alert) Verdict() Verdict {
	return a.Cluster.Representative.Verdict
}

// Document returns the representative document.
func (a Alert) Document() Document {
	return a.Cluster.Representative.Document
}
