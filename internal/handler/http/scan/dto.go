// Package scan serves the adverse-media screening endpoint.
package scan

import (
	"time"

	"riskscan/internal/domain/entity"
)

// Request is the body of POST /scan.
type Request struct {
	Query string `json:"query"`
}

// Response is the body returned for every accepted scan, including degraded
// ones.
type Response struct {
	Query           string       `json:"query"`
	Clusters        []ClusterDTO `json:"clusters"`
	RelatedEntities []RelatedDTO `json:"relatedEntities"`
	Brief           string       `json:"brief"`
	SocialSignals   []SocialDTO  `json:"socialSignals"`
	Advisory        string       `json:"advisory,omitempty"`
}

// ClusterDTO is a cluster flattened onto its representative document.
type ClusterDTO struct {
	Title          string             `json:"title"`
	URL            string             `json:"url"`
	Source         string             `json:"source"`
	Domain         string             `json:"domain"`
	SourceType     string             `json:"sourceType"`
	Date           string             `json:"date"`
	Content        string             `json:"content"`
	Analysis       AnalysisDTO        `json:"analysis"`
	RelatedSources []RelatedSourceDTO `json:"relatedSources"`
}

// AnalysisDTO is the verdict on the representative document.
type AnalysisDTO struct {
	IsRelevant   bool     `json:"isRelevant"`
	IsAdverse    bool     `json:"isAdverse"`
	RiskTypes    []string `json:"riskTypes"`
	Severity     string   `json:"severity"`
	RiskScore    int      `json:"riskScore"`
	Summary      string   `json:"summary"`
	ClusterTag   string   `json:"clusterTag"`
	ManualReview bool     `json:"manualReview"`
}

// RelatedSourceDTO is secondary coverage of the same event.
type RelatedSourceDTO struct {
	Source string `json:"source"`
	Domain string `json:"domain"`
	URL    string `json:"url"`
	Title  string `json:"title"`
}

// RelatedDTO is a related person or organisation.
type RelatedDTO struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// SocialDTO is a social media post.
type SocialDTO struct {
	Name      string `json:"name"`
	Handle    string `json:"handle"`
	Content   string `json:"content"`
	Date      string `json:"date"`
	Sentiment string `json:"sentiment"`
	URL       string `json:"url"`
}

// NewResponse converts a scan result. Slices are never null in the JSON.
func NewResponse(r entity.ScanResult) Response {
	out := Response{
		Query:           r.Query,
		Clusters:        make([]ClusterDTO, 0, len(r.Clusters)),
		RelatedEntities: make([]RelatedDTO, 0, len(r.RelatedEntities)),
		Brief:           r.Brief,
		SocialSignals:   make([]SocialDTO, 0, len(r.SocialSignals)),
		Advisory:        r.Advisory,
	}
	for _, c := range r.Clusters {
		out.Clusters = append(out.Clusters, newCluster(c))
	}
	for _, e := range r.RelatedEntities {
		out.RelatedEntities = append(out.RelatedEntities, RelatedDTO{Name: e.Name, Role: e.Role})
	}
	for _, s := range r.SocialSignals {
		out.SocialSignals = append(out.SocialSignals, SocialDTO{
			Name:      s.Name,
			Handle:    s.Handle,
			Content:   s.Content,
			Date:      formatDate(s.PostedAt),
			Sentiment: string(s.Sentiment),
			URL:       s.URL,
		})
	}
	return out
}

func newCluster(c entity.Cluster) ClusterDTO {
	doc, v := c.Representative.Document, c.Representative.Verdict
	riskTypes := v.RiskTypes
	if riskTypes == nil {
		riskTypes = []string{}
	}
	dto := ClusterDTO{
		Title:      doc.Title,
		URL:        doc.URL(),
		Source:     doc.SourceName,
		Domain:     doc.SourceDomain,
		SourceType: string(doc.SourceType),
		Date:       formatDate(doc.PublishedAt),
		Content:    doc.Body,
		Analysis: AnalysisDTO{
			IsRelevant:   v.IsRelevant,
			IsAdverse:    v.IsAdverse,
			RiskTypes:    riskTypes,
			Severity:     string(v.Severity),
			RiskScore:    v.RiskScore,
			Summary:      v.Summary,
			ClusterTag:   v.ClusterTag,
			ManualReview: v.ManualReview,
		},
		RelatedSources: make([]RelatedSourceDTO, 0, len(c.SecondarySources)),
	}
	for _, s := range c.SecondarySources {
		dto.RelatedSources = append(dto.RelatedSources, RelatedSourceDTO{
			Source: s.SourceName,
			Domain: s.Domain,
			URL:    s.URL,
			Title:  s.Title,
		})
	}
	return dto
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
