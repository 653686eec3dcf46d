package entity

import "strings"

// Severity is the risk severity assigned by the classifier.
type Severity string

const (
	SeverityNone     Severity = "None"
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// criticalScoreThreshold is the score above which a finding is reported as Critical
// regardless of the severity label returned by the judgment service.
const criticalScoreThreshold = 90

// ParseSeverity maps a free-form label to a Severity. Unknown labels map to SeverityNone.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow
	case "medium", "moderate":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical", "severe":
		return SeverityCritical
	default:
		return SeverityNone
	}
}

// Verdict is the structured judgment attached to a Document.
type Verdict struct {
	IsRelevant bool
	IsAdverse  bool
	RiskTypes  []string
	Severity   Severity
	RiskScore  int
	Summary    string
	ClusterTag string

	// ManualReview marks a degraded verdict produced when analysis was unavailable.
	ManualReview bool
}

// Normalize clamps the score to 0-100, de-duplicates risk types and derives
// Critical severity from the score.
func (v Verdict) Normalize() Verdict {
	if v.RiskScore < 0 {
		v.RiskScore = 0
	}
	if v.RiskScore > 100 {
		v.RiskScore = 100
	}
	if v.Severity == "" {
		v.Severity = SeverityNone
	}
	if v.RiskScore > criticalScoreThreshold && v.IsAdverse {
		v.Severity = SeverityCritical
	}

	seen := make(map[string]struct{}, len(v.RiskTypes))
	types := make([]string, 0, len(v.RiskTypes))
	for _, t := range v.RiskTypes {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		types = append(types, t)
	}
	v.RiskTypes = types
	return v
}

// ClassifiedDocument is a Document with its Verdict attached.
type ClassifiedDocument struct {
	Document Document
	Verdict  Verdict
}
