// Package entity defines the core domain entities and validation logic for the application.
// It contains the screening pipeline's value types (Document, Verdict, Cluster, ScanResult)
// and the audit decision record, along with their validation rules and domain-specific errors.
package entity

import "time"

// SourceType classifies the publisher of a Document.
type SourceType string

const (
	SourceTypeNews       SourceType = "News"
	SourceTypeLegal      SourceType = "Legal"
	SourceTypeRegulatory SourceType = "Regulatory"
	SourceTypeBlog       SourceType = "Blog"
)

// Valid reports whether t is one of the known source types.
func (t SourceType) Valid() bool {
	switch t {
	case SourceTypeNews, SourceTypeLegal, SourceTypeRegulatory, SourceTypeBlog:
		return true
	}
	return false
}

// Document is a candidate article returned by a retrieval provider.
// ID is the canonical URL and identifies the document for the whole scan.
type Document struct {
	ID             string
	Title          string
	Body           string
	SourceName     string
	SourceDomain   string
	SourceType     SourceType
	PublishedAt    time.Time
	OriginLanguage string
}

// URL returns the canonical URL of the document.
func (d Document) URL() string {
	return d.ID
}
