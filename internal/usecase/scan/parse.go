package scan

import (
	"encoding/json"
	"fmt"
	"strings"

	"riskscan/internal/domain/entity"
)

// verdictPayload is the JSON object the judge is asked to return.
type verdictPayload struct {
	IsRelevant    *bool           `json:"isRelevant"`
	IsAdverse     bool            `json:"isAdverse"`
	RiskTypes     []string        `json:"riskTypes"`
	Severity      string          `json:"severity"`
	RiskScore     json.RawMessage `json:"riskScore"`
	Summary       string          `json:"summary"`
	RiskEventSlug string          `json:"risk_event_slug"`
	ClusterTag    string          `json:"clusterTag"`
}

// parseVerdict decodes a judge reply. Code fences and text around the JSON
// object are tolerated; anything else is ErrParse.
func parseVerdict(raw string) (entity.Verdict, error) {
	obj, err := extractJSONObject(raw)
	if err != nil {
		return entity.Verdict{}, err
	}

	var p verdictPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return entity.Verdict{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if p.IsRelevant == nil {
		return entity.Verdict{}, fmt.Errorf("%w: missing isRelevant", ErrParse)
	}

	score, err := parseScore(p.RiskScore)
	if err != nil {
		return entity.Verdict{}, err
	}

	tag := p.RiskEventSlug
	if tag == "" {
		tag = p.ClusterTag
	}

	return entity.Verdict{
		IsRelevant: *p.IsRelevant,
		IsAdverse:  p.IsAdverse,
		RiskTypes:  p.RiskTypes,
		Severity:   entity.ParseSeverity(p.Severity),
		RiskScore:  score,
		Summary:    strings.TrimSpace(p.Summary),
		ClusterTag: strings.TrimSpace(tag),
	}.Normalize(), nil
}

func extractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in reply", ErrParse)
	}
	return s[start : end+1], nil
}

// parseScore accepts a number or a numeric string.
func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f + 0.5), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &f); err == nil {
			return int(f + 0.5), nil
		}
	}
	return 0, fmt.Errorf("%w: riskScore %s", ErrParse, string(raw))
}
