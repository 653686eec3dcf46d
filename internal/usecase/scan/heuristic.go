package scan

import (
	"regexp"

	"riskscan/internal/domain/entity"
)

const heuristicAdverseScore = 80

// riskCategories maps adverse wording to the risk type it usually implies.
// Order matters only for the order of RiskTypes in the verdict.
var riskCategories = []struct {
	pattern  *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`(?i)\b(lawsuits?|sue[sd]?|suing|class action|subpoena|settle(ment|d)?)\b`), "Litigation"},
	{regexp.MustCompile(`(?i)\b(probes?|investigat\w*|regulator\w*|fined?|fines|penalt(y|ies)|violations?|recalls?)\b`), "Regulatory"},
	{regexp.MustCompile(`(?i)\b(fraud\w*|embezzle\w*|money laundering|brib(e|ery)|corrupt\w*)\b`), "Financial Crime"},
	{regexp.MustCompile(`(?i)\b(indict\w*|charged|arrest\w*|criminal)\b`), "Criminal"},
	{regexp.MustCompile(`(?i)\b(sanction\w*|embargo)\b`), "Sanctions"},
	{regexp.MustCompile(`(?i)\b(breach(es)?|hack(ed)?|leak(ed)?|data exposure)\b`), "Data Breach"},
	{regexp.MustCompile(`(?i)\b(scandal|misconduct|harass\w*)\b`), "Reputational"},
}

// heuristicVerdict classifies a document without a judge: adverse wording
// in the title or body makes it adverse with High severity.
func heuristicVerdict(doc entity.Document) entity.Verdict {
	text := doc.Title + " " + doc.Body
	if !hasAdverseLanguage(text) {
		return entity.Verdict{
			IsRelevant: true,
			Severity:   entity.SeverityNone,
			Summary:    "No adverse indicators found by keyword screening.",
			ClusterTag: doc.Title,
		}
	}

	var types []string
	for _, rc := range riskCategories {
		if rc.pattern.MatchString(text) {
			types = append(types, rc.category)
		}
	}
	if len(types) == 0 {
		types = []string{"Other"}
	}

	return entity.Verdict{
		IsRelevant: true,
		IsAdverse:  true,
		RiskTypes:  types,
		Severity:   entity.SeverityHigh,
		RiskScore:  heuristicAdverseScore,
		Summary:    "Keyword screening flagged adverse language; not reviewed by the analysis service.",
		ClusterTag: doc.Title,
	}.Normalize()
}
